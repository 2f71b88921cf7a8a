package dto

import (
	"time"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// SaveSubmissionRequest payload for an employee's task evidence.
type SaveSubmissionRequest struct {
	PharmacyIndex domain.PharmacyIndex `json:"pharmacyIndex"`
	TaskKey       string               `json:"taskKey"`
	FileName      string               `json:"fileName"`
	FileURL       string               `json:"fileUrl"`
}

// UpdateStatusRequest payload for a reviewer decision.
type UpdateStatusRequest struct {
	EmployeeEmail string                  `json:"employeeEmail"`
	PharmacyIndex domain.PharmacyIndex    `json:"pharmacyIndex"`
	TaskKey       string                  `json:"taskKey"`
	Status        domain.SubmissionStatus `json:"status"`
	ReviewNote    string                  `json:"reviewNote"`
}

// DeleteSubmissionRequest payload.
type DeleteSubmissionRequest struct {
	PharmacyIndex domain.PharmacyIndex `json:"pharmacyIndex"`
	TaskKey       string               `json:"taskKey"`
}

// SubmissionResponse renders a submission.
type SubmissionResponse struct {
	ID            string                  `json:"id"`
	EmployeeEmail string                  `json:"employee_email"`
	PharmacyIndex domain.PharmacyIndex    `json:"pharmacy_index"`
	TaskKey       string                  `json:"task_key"`
	Status        domain.SubmissionStatus `json:"status"`
	FileName      string                  `json:"file_name"`
	FileURL       string                  `json:"file_url"`
	ReviewerEmail *string                 `json:"reviewer_email"`
	ReviewedAt    *time.Time              `json:"reviewed_at"`
	ReviewNote    *string                 `json:"review_note"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewSubmissionResponse renders s.
func NewSubmissionResponse(s domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            s.ID,
		EmployeeEmail: s.EmployeeEmail,
		PharmacyIndex: s.PharmacyIndex,
		TaskKey:       s.TaskKey,
		Status:        s.Status,
		FileName:      s.FileName,
		FileURL:       s.FileURL,
		ReviewerEmail: s.ReviewerEmail,
		ReviewedAt:    s.ReviewedAt,
		ReviewNote:    s.ReviewNote,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// NewSubmissionList renders subs, never returning nil.
func NewSubmissionList(subs []domain.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, NewSubmissionResponse(s))
	}
	return out
}
