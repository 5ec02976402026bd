// internal/workers/loan/submit-loan-application/models.go
package submitloanapplication

type Input struct {
	ApplicantID string `json:"applicantId"`
	FilePath    string `json:"filePath"` // readable by the worker process
}

type Output struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ApplicationID  *int64 `json:"applicationId"`
	StoredFilePath string `json:"storedFilePath,omitempty"`
	ErrorCode      string `json:"errorCode,omitempty"`
}
