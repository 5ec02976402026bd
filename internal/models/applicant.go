// internal/models/applicant.go
package models

// Applicant is a member account from member_users. Read-only here.
type Applicant struct {
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name"`
	UserEmail    *string `json:"user_email"`
	MemberNumber *string `json:"member_number"`
	IsActive     bool    `json:"is_active"`
}
