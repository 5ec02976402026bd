// Package search mirrors loan applications into Elasticsearch for staff
// search. Postgres stays the source of truth.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"loan-intake/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
)

var ErrIndexFailed = errors.New("INDEX_FAILED")

// ApplicationDocument is the indexed form of an application.
type ApplicationDocument struct {
	ApplicationID int64  `json:"application_id"`
	ApplicantID   string `json:"applicant_id"`
	FilePath      string `json:"file_path"`
	Status        string `json:"status"`
	SubmittedAt   string `json:"submitted_at"`
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search-indexer", "index": index}),
	}
}

// IndexApplication writes doc under its application id.
func (i *Indexer) IndexApplication(ctx context.Context, doc ApplicationDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrIndexFailed, err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(strconv.FormatInt(doc.ApplicationID, 10)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.Status())
	}

	i.logger.Debug("application indexed", map[string]interface{}{"applicationId": doc.ApplicationID})
	return nil
}

// UpdateStatus patches the status of an indexed application.
func (i *Indexer) UpdateStatus(ctx context.Context, applicationID int64, status string) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]interface{}{"status": status},
	})
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrIndexFailed, err)
	}

	res, err := i.client.Update(
		i.index,
		strconv.FormatInt(applicationID, 10),
		bytes.NewReader(body),
		i.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.Status())
	}
	return nil
}
