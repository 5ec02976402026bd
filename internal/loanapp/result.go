package loanapp

import (
	"fmt"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/models"
)

// Every result carries the uniform {success, message, ...} shape. Code is
// the internal classification of a failure and never leaves the process as
// JSON; callers use it for status codes, BPMN errors and metrics.

type SubmitResult struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	ApplicationID *int64           `json:"application_id"`
	FilePath      string           `json:"file_path,omitempty"`
	Code          errors.ErrorCode `json:"-"`
}

type ListResult struct {
	Success      bool                     `json:"success"`
	Message      string                   `json:"message,omitempty"`
	Applications []models.ApplicationView `json:"applications"`
	Code         errors.ErrorCode         `json:"-"`
}

type UpdateResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Code    errors.ErrorCode `json:"-"`
}

type GetResult struct {
	Success     bool                    `json:"success"`
	Message     string                  `json:"message,omitempty"`
	Application *models.ApplicationView `json:"application,omitempty"`
	History     []models.StatusChange   `json:"history,omitempty"`
	Code        errors.ErrorCode        `json:"-"`
}

// FileTooLargeMessage is the rejection text for uploads above maxBytes.
func FileTooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size allowed is %.1fMB.", float64(maxBytes)/(1024*1024))
}

func submitFailure(code errors.ErrorCode, message string) *SubmitResult {
	return &SubmitResult{Success: false, Message: message, Code: code}
}
