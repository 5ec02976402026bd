// internal/workers/loan/list-loan-applications/models.go
package listloanapplications

import "loan-intake/internal/models"

type Input struct {
	ApplicantID *string `json:"applicantId"` // nil or empty lists every application
}

type Output struct {
	Success      bool                     `json:"success"`
	Applications []models.ApplicationView `json:"applications"`
	Count        int                      `json:"count"`
}
