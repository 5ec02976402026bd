// internal/workers/loan/submit-loan-application/handler.go
package submitloanapplication

import (
	"context"
	"encoding/json"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake"
	"loan-intake/internal/loanapp"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "submit-loan-application"
)

type LoanService interface {
	Submit(ctx context.Context, applicantID string, upload intake.Upload) *loanapp.SubmitResult
}

type Handler struct {
	config       *Config
	service      LoanService
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service LoanService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result := validation.SubmitLoanApplicationSchema.ValidateJSON([]byte(job.Variables))
	if !result.Valid {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "Invalid job variables", result)
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "Invalid job variables", err)
	}
	return &input, nil
}

// execute reports validation outcomes in the output and returns an error
// only for backing-store failures.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var upload intake.Upload
	if input.FilePath != "" {
		upload = intake.NewLocalFile(input.FilePath)
	}

	res := h.service.Submit(ctx, input.ApplicantID, upload)
	if res.Code != "" && !errors.IsValidation(res.Code) {
		return nil, errors.New(res.Code, res.Message)
	}

	return &Output{
		Success:        res.Success,
		Message:        res.Message,
		ApplicationID:  res.ApplicationID,
		StoredFilePath: res.FilePath,
		ErrorCode:      string(res.Code),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":  job.Key,
		"success": output.Success,
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
