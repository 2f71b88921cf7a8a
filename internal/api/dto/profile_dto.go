package dto

import (
	"time"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// ProfileRequest accepts both camelCase and snake_case name fields.
type ProfileRequest struct {
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	FirstNameSnake string            `json:"first_name"`
	LastNameSnake  string            `json:"last_name"`
	Pharmacies     []domain.Pharmacy `json:"pharmacies"`
}

// Names returns the first and last name, preferring camelCase fields.
func (r ProfileRequest) Names() (string, string) {
	first, last := r.FirstName, r.LastName
	if first == "" {
		first = r.FirstNameSnake
	}
	if last == "" {
		last = r.LastNameSnake
	}
	return first, last
}

// ProfileResponse renders a profile.
type ProfileResponse struct {
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Role       domain.Role       `json:"role"`
	Pharmacies []domain.Pharmacy `json:"pharmacies"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewProfileResponse returns nil for a nil profile.
func NewProfileResponse(p *domain.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	pharmacies := p.Pharmacies
	if pharmacies == nil {
		pharmacies = []domain.Pharmacy{}
	}
	return &ProfileResponse{
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Role:       p.Role,
		Pharmacies: pharmacies,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
