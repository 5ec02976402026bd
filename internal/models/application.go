// internal/models/application.go
package models

// Recognized application statuses. The store does not enforce them.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ApplicationView is a loan application joined with its applicant, as
// returned to staff. Timestamps are RFC3339 strings.
type ApplicationView struct {
	ApplicationID   int64   `json:"application_id"`
	UserID          string  `json:"user_id"`
	ApplicationDate *string `json:"application_date"`
	JPGFilePath     string  `json:"jpg_file_path"`
	Status          *string `json:"status"`
	SubmittedAt     *string `json:"submitted_at"`
	UserName        *string `json:"user_name"`
	UserEmail       *string `json:"user_email"`
	MemberNumber    *string `json:"member_number"`
}

// StatusChange is one row of an application's status history.
type StatusChange struct {
	ID             int64   `json:"id"`
	ApplicationID  int64   `json:"application_id"`
	PreviousStatus *string `json:"previous_status"`
	NewStatus      string  `json:"new_status"`
	ChangedAt      string  `json:"changed_at"`
}
