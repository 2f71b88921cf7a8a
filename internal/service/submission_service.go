package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/events"
	"github.com/spec-kit/pharmat-audit/internal/repository"
	apperrors "github.com/spec-kit/pharmat-audit/pkg/util"
)

// SubmissionInput is an employee's evidence for a task.
type SubmissionInput struct {
	PharmacyIndex domain.PharmacyIndex
	TaskKey       string
	FileName      string
	FileURL       string
}

// ReviewInput is a reviewer's decision on a submission.
type ReviewInput struct {
	Key        domain.SubmissionKey
	Status     domain.SubmissionStatus
	ReviewNote string
}

// SubmissionService manages task submissions and their review.
type SubmissionService struct {
	submissions     repository.SubmissionRepository
	dispatcher      events.Dispatcher
	maxPayloadBytes int
	now             func() time.Time
	logger          *zap.Logger
}

// NewSubmissionService builds the service. A non-positive maxPayloadBytes disables the cap.
func NewSubmissionService(submissions repository.SubmissionRepository, dispatcher events.Dispatcher, maxPayloadBytes int, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions:     submissions,
		dispatcher:      dispatcher,
		maxPayloadBytes: maxPayloadBytes,
		now:             time.Now,
		logger:          logger,
	}
}

// List returns submissions visible to the caller, newest first. Reviewers see
// every employee's submissions, everyone else only their own.
func (s *SubmissionService) List(ctx context.Context, claim *auth.Claim, pharmacies []domain.PharmacyIndex) ([]domain.Submission, error) {
	if err := auth.RequireAuthenticated(claim); err != nil {
		return nil, err
	}
	filter := repository.SubmissionFilter{Pharmacies: pharmacies}
	if !claim.Role.Is(domain.RoleRGA) {
		filter.EmployeeEmail = claim.Identity
	}
	subs, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return subs, nil
}

// Save upserts the caller's submission and sends it back to review.
func (s *SubmissionService) Save(ctx context.Context, claim *auth.Claim, input SubmissionInput) (*domain.Submission, error) {
	if err := auth.RequireRole(claim, domain.RoleEmployee); err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(input.PharmacyIndex)) == "" || strings.TrimSpace(input.TaskKey) == "" || input.FileURL == "" {
		return nil, apperrors.NewValidationError("missing required fields", nil)
	}
	if s.maxPayloadBytes > 0 && len(input.FileURL) > s.maxPayloadBytes {
		return nil, apperrors.NewPayloadTooLarge("file payload too large")
	}

	sub := &domain.Submission{
		EmployeeEmail: claim.Identity,
		PharmacyIndex: trimPharmacy(input.PharmacyIndex),
		TaskKey:       strings.TrimSpace(input.TaskKey),
		Status:        domain.SubmissionStatusWaiting,
		FileName:      input.FileName,
		FileURL:       input.FileURL,
	}
	if err := s.submissions.Upsert(ctx, sub); err != nil {
		return nil, storeError(err)
	}
	s.publish(ctx, events.EventSubmissionSaved, claim, sub)
	return sub, nil
}

// Review records a reviewer's status decision.
func (s *SubmissionService) Review(ctx context.Context, claim *auth.Claim, input ReviewInput) (*domain.Submission, error) {
	if err := auth.RequireRole(claim, domain.RoleRGA); err != nil {
		return nil, err
	}
	input.Key = domain.SubmissionKey{
		EmployeeEmail: strings.TrimSpace(input.Key.EmployeeEmail),
		PharmacyIndex: trimPharmacy(input.Key.PharmacyIndex),
		TaskKey:       strings.TrimSpace(input.Key.TaskKey),
	}
	if input.Key.EmployeeEmail == "" || input.Key.PharmacyIndex == "" || input.Key.TaskKey == "" || input.Status == "" {
		return nil, apperrors.NewValidationError("missing required fields", nil)
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status})
	}

	update := repository.ReviewUpdate{
		Status:        input.Status,
		ReviewerEmail: claim.Identity,
		ReviewedAt:    s.now().UTC(),
	}
	if note := strings.TrimSpace(input.ReviewNote); note != "" {
		update.ReviewNote = &note
	}

	sub, err := s.submissions.UpdateReview(ctx, input.Key, update)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("submission", nil)
	}
	if err != nil {
		return nil, storeError(err)
	}
	s.publish(ctx, events.EventSubmissionReview, claim, sub)
	return sub, nil
}

// Delete removes one of the caller's own submissions.
func (s *SubmissionService) Delete(ctx context.Context, claim *auth.Claim, pharmacy domain.PharmacyIndex, taskKey string) error {
	if err := auth.RequireRole(claim, domain.RoleEmployee); err != nil {
		return err
	}
	pharmacy, taskKey = trimPharmacy(pharmacy), strings.TrimSpace(taskKey)
	if pharmacy == "" || taskKey == "" {
		return apperrors.NewValidationError("missing required fields", nil)
	}

	deleted, err := s.submissions.Delete(ctx, domain.SubmissionKey{
		EmployeeEmail: claim.Identity,
		PharmacyIndex: pharmacy,
		TaskKey:       taskKey,
	})
	if err != nil {
		return storeError(err)
	}
	if !deleted {
		return apperrors.NewNotFound("submission", nil)
	}
	return nil
}

func (s *SubmissionService) publish(ctx context.Context, t events.EventType, claim *auth.Claim, sub *domain.Submission) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(t, claim.Identity, claim.Role, events.SubmissionPayload{
		EmployeeEmail: sub.EmployeeEmail,
		PharmacyIndex: sub.PharmacyIndex,
		TaskKey:       sub.TaskKey,
		Status:        sub.Status,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(t)), zap.Error(err))
	}
}

func trimPharmacy(p domain.PharmacyIndex) domain.PharmacyIndex {
	return domain.PharmacyIndex(strings.TrimSpace(string(p)))
}
