package validation

// Schemas for the loan application job variables and request bodies.
var (
	SubmitLoanApplicationSchema = MustCompile("submit-loan-application", `{
		"type": "object",
		"properties": {
			"applicantId": {"type": "string", "minLength": 1},
			"filePath":    {"type": "string", "minLength": 1}
		},
		"required": ["applicantId"]
	}`)

	ListLoanApplicationsSchema = MustCompile("list-loan-applications", `{
		"type": "object",
		"properties": {
			"applicantId": {"type": ["string", "null"]}
		}
	}`)

	UpdateLoanApplicationStatusSchema = MustCompile("update-loan-application-status", `{
		"type": "object",
		"properties": {
			"applicationId": {"type": "integer", "minimum": 1},
			"status":        {"type": "string", "minLength": 1, "maxLength": 50}
		},
		"required": ["applicationId", "status"]
	}`)

	// UpdateStatusRequestSchema is the HTTP body form, snake_case like the
	// original staff API.
	UpdateStatusRequestSchema = MustCompile("update-status-request", `{
		"type": "object",
		"properties": {
			"application_id": {"type": "integer", "minimum": 1},
			"status":         {"type": "string", "minLength": 1, "maxLength": 50}
		},
		"required": ["application_id", "status"]
	}`)
)
