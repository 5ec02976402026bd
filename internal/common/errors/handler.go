// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler throws backing-store failures back to the workflow engine as
// BPMN errors. Operations are attempt-once, so jobs are never failed with
// retries here.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError converts err and throws it on the job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := ToBPMNError(err)

	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          bpmnErr.Details,
		"workflowInstance": job.ProcessInstanceKey,
	})

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	varsJSON, mErr := json.Marshal(bpmnErr.ToErrorVariables())
	if mErr == nil {
		if cmdWithVars, vErr := cmd.VariablesFromString(string(varsJSON)); vErr == nil {
			if _, sErr := cmdWithVars.Send(ctx); sErr != nil {
				h.logSendFailure(job, sErr)
			}
			return
		}
	}

	if _, sErr := cmd.Send(ctx); sErr != nil {
		h.logSendFailure(job, sErr)
	}
}

func (h *ErrorHandler) logSendFailure(job entities.Job, err error) {
	h.logger.Error("Failed to throw BPMN error", map[string]interface{}{
		"jobKey": job.Key,
		"error":  err.Error(),
	})
}
