package domain

import "time"

// SubmissionStatus tracks review state of a task submission.
type SubmissionStatus string

const (
	SubmissionStatusWaiting  SubmissionStatus = "waiting"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Valid reports whether the status is one a reviewer may set.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusWaiting, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// Submission is an employee's evidence for a task at one pharmacy.
// (EmployeeEmail, PharmacyIndex, TaskKey) is unique.
type Submission struct {
	ID            string
	EmployeeEmail string
	PharmacyIndex PharmacyIndex
	TaskKey       string
	Status        SubmissionStatus
	FileName      string
	FileURL       string
	ReviewerEmail *string
	ReviewedAt    *time.Time
	ReviewNote    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubmissionKey addresses a single submission.
type SubmissionKey struct {
	EmployeeEmail string
	PharmacyIndex PharmacyIndex
	TaskKey       string
}

// Key returns the identifying triple of s.
func (s Submission) Key() SubmissionKey {
	return SubmissionKey{EmployeeEmail: s.EmployeeEmail, PharmacyIndex: s.PharmacyIndex, TaskKey: s.TaskKey}
}
