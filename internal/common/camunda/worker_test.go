package camunda

import (
	"testing"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
)

func TestWorkers_DisabledWorkerIsNotOpened(t *testing.T) {
	// a nil client would panic if Start tried to open the worker
	w := NewWorkers(nil, logger.NewTestLogger(t))

	w.Start("submit-loan-application", config.WorkerConfig{Enabled: false}, func(worker.JobClient, entities.Job) {})

	assert.Empty(t, w.Running())
	assert.NotPanics(t, w.Close)
}
