package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/repository"
	apperrors "github.com/spec-kit/pharmat-audit/pkg/util"
)

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	FirstName  string
	LastName   string
	Pharmacies []domain.Pharmacy
}

// ProfileService reads and saves the caller's own profile.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService builds the service.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns the caller's profile, or nil when none was saved yet.
func (s *ProfileService) Get(ctx context.Context, claim *auth.Claim) (*domain.Profile, error) {
	if err := auth.RequireAuthenticated(claim); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByEmail(ctx, claim.Identity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return profile, nil
}

// Save upserts the caller's profile. Email and role come from the session.
func (s *ProfileService) Save(ctx context.Context, claim *auth.Claim, input ProfileInput) (*domain.Profile, error) {
	if err := auth.RequireAuthenticated(claim); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(string(claim.Role))
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", nil)
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	pharmacies := make([]domain.Pharmacy, 0, len(input.Pharmacies))
	for _, p := range input.Pharmacies {
		if strings.TrimSpace(string(p.Index)) == "" {
			continue
		}
		pharmacies = append(pharmacies, p)
	}

	if firstName == "" || lastName == "" || len(pharmacies) == 0 {
		return nil, apperrors.NewValidationError("all fields are required", nil)
	}
	if limit := role.MaxPharmacies(); len(pharmacies) > limit {
		noun := "pharmacy"
		if limit > 1 {
			noun = "pharmacies"
		}
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("maximum %d %s allowed for %s", limit, noun, role),
			map[string]any{"limit": limit},
		)
	}

	profile := &domain.Profile{
		Email:      claim.Identity,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       role,
		Pharmacies: pharmacies,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, storeError(err)
	}
	return profile, nil
}
