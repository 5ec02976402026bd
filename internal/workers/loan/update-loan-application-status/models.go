// internal/workers/loan/update-loan-application-status/models.go
package updateloanapplicationstatus

type Input struct {
	ApplicationID int64  `json:"applicationId"`
	Status        string `json:"status"`
}

type Output struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Status    string `json:"status,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}
