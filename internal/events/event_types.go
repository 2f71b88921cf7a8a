package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionIssued    EventType = "session_issued"
	EventSessionCleared   EventType = "session_cleared"
	EventLoginFailed      EventType = "login_failed"
	EventUserRegistered   EventType = "user_registered"
	EventCodeIssued       EventType = "code_issued"
	EventCodeVerified     EventType = "code_verified"
	EventCodeRejected     EventType = "code_rejected"
	EventDeliveryFailed   EventType = "delivery_failed"
	EventSubmissionSaved  EventType = "submission_saved"
	EventSubmissionReview EventType = "submission_reviewed"
)

// AllTypes lists every event type, in declaration order.
var AllTypes = []EventType{
	EventSessionIssued,
	EventSessionCleared,
	EventLoginFailed,
	EventUserRegistered,
	EventCodeIssued,
	EventCodeVerified,
	EventCodeRejected,
	EventDeliveryFailed,
	EventSubmissionSaved,
	EventSubmissionReview,
}

// Event represents an audit event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New builds an event with a fresh id and the current time.
func New(eventType EventType, subject string, role domain.Role, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Role:      role,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SessionIssuedPayload payload.
type SessionIssuedPayload struct {
	Reason    string    `json:"reason"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedPayload payload. Reason is logged only; clients always see the same error.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// CodeIssuedPayload payload.
type CodeIssuedPayload struct {
	Outcome   string    `json:"outcome"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DeliveryFailedPayload payload.
type DeliveryFailedPayload struct {
	Error string `json:"error"`
}

// SubmissionPayload payload.
type SubmissionPayload struct {
	EmployeeEmail string                  `json:"employee_email"`
	PharmacyIndex domain.PharmacyIndex    `json:"pharmacy_index"`
	TaskKey       string                  `json:"task_key"`
	Status        domain.SubmissionStatus `json:"status"`
}
