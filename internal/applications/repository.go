// Package applications persists loan application records.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loan-intake/internal/common/database"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
)

var (
	ErrSchemaFailed = errors.New("SCHEMA_FAILED")
	ErrInsertFailed = errors.New("INSERT_FAILED")
	ErrQueryFailed  = errors.New("QUERY_FAILED")
	ErrUpdateFailed = errors.New("UPDATE_FAILED")
)

const selectApplicationView = `
SELECT la.application_id, la.user_id, la.application_date, la.jpg_file_path,
       la.status, la.submitted_at, mu.user_name, mu.user_email, mu.member_number
FROM loan_applications la
JOIN member_users mu ON la.user_id = mu.user_id`

type Repository struct {
	db     database.DBTX
	logger logger.Logger
	now    func() time.Time
}

func NewRepository(db database.DBTX, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "application-repository"}),
		now:    time.Now,
	}
}

// EnsureSchema creates the application and status history tables when
// missing. Safe to run repeatedly.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createApplicationsTable, createStatusHistoryTable} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaFailed, err)
		}
	}
	return nil
}

// Insert stores a new application and returns its id. An empty status
// becomes pending.
func (r *Repository) Insert(ctx context.Context, applicantID, filePath, status string) (int64, error) {
	if status == "" {
		status = models.StatusPending
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO loan_applications (user_id, jpg_file_path, status, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING application_id`,
		applicantID, filePath, status, r.now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	r.logger.Info("application stored", map[string]interface{}{
		"applicationId": id,
		"applicantId":   applicantID,
	})
	return id, nil
}

// List returns applications newest first, optionally for one applicant.
func (r *Repository) List(ctx context.Context, applicantID *string) ([]models.ApplicationView, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if applicantID != nil && *applicantID != "" {
		rows, err = r.db.QueryContext(ctx,
			selectApplicationView+` WHERE la.user_id = $1 ORDER BY la.submitted_at DESC`,
			*applicantID,
		)
	} else {
		rows, err = r.db.QueryContext(ctx, selectApplicationView+` ORDER BY la.submitted_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	apps := []models.ApplicationView{}
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		apps = append(apps, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	return apps, nil
}

// Get returns one application, or nil when id does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*models.ApplicationView, error) {
	row := r.db.QueryRowContext(ctx, selectApplicationView+` WHERE la.application_id = $1`, id)
	view, err := scanView(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return view, nil
}

// UpdateStatus overwrites the status unconditionally. The status value is
// not checked against the recognized set. found is false when no row
// matched; previous is the status before the update.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (found bool, previous *string, err error) {
	var prev sql.NullString
	var updated int64

	err = r.db.QueryRowContext(ctx, `
		UPDATE loan_applications AS la
		SET status = $1
		FROM (SELECT application_id, status FROM loan_applications WHERE application_id = $2) AS prev
		WHERE la.application_id = prev.application_id
		RETURNING la.application_id, prev.status`,
		status, id,
	).Scan(&updated, &prev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	if prev.Valid {
		previous = &prev.String
	}
	return true, previous, nil
}

// RecordStatusChange appends to the status history.
func (r *Repository) RecordStatusChange(ctx context.Context, id int64, previous *string, status string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loan_application_status_history (application_id, previous_status, new_status, changed_at)
		VALUES ($1, $2, $3, $4)`,
		id, previous, status, r.now(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return nil
}

// History lists status changes for an application, oldest first.
func (r *Repository) History(ctx context.Context, id int64) ([]models.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, application_id, previous_status, new_status, changed_at
		FROM loan_application_status_history
		WHERE application_id = $1
		ORDER BY changed_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	changes := []models.StatusChange{}
	for rows.Next() {
		var (
			c         models.StatusChange
			prev      sql.NullString
			changedAt sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.ApplicationID, &prev, &c.NewStatus, &changedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		if prev.Valid {
			c.PreviousStatus = &prev.String
		}
		if changedAt.Valid {
			c.ChangedAt = changedAt.Time.Format(time.RFC3339)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return changes, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanView(s scanner) (*models.ApplicationView, error) {
	var (
		v                         models.ApplicationView
		applicationDate, submitAt sql.NullTime
		status                    sql.NullString
		userName, email, member   sql.NullString
	)
	if err := s.Scan(
		&v.ApplicationID, &v.UserID, &applicationDate, &v.JPGFilePath,
		&status, &submitAt, &userName, &email, &member,
	); err != nil {
		return nil, err
	}

	v.ApplicationDate = formatTime(applicationDate)
	v.SubmittedAt = formatTime(submitAt)
	v.Status = nullString(status)
	v.UserName = nullString(userName)
	v.UserEmail = nullString(email)
	v.MemberNumber = nullString(member)
	return &v, nil
}

func formatTime(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(time.RFC3339)
	return &s
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
