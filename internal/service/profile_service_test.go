package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
)

func claimFor(email string, role domain.Role) *auth.Claim {
	return &auth.Claim{Identity: email, Role: role, ExpiresAt: 1}
}

func pharmacies(indexes ...string) []domain.Pharmacy {
	out := make([]domain.Pharmacy, len(indexes))
	for i, idx := range indexes {
		out[i] = domain.Pharmacy{Index: domain.PharmacyIndex(idx), Region: "North"}
	}
	return out
}

func TestProfileService_SaveAndGet(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepo())
	ctx := context.Background()
	claim := claimFor("a@x.com", "Employee")

	profile, err := svc.Get(ctx, claim)
	require.NoError(t, err)
	assert.Nil(t, profile)

	saved, err := svc.Save(ctx, claim, ProfileInput{FirstName: " Anna ", LastName: "Petrova", Pharmacies: pharmacies("12")})
	require.NoError(t, err)
	assert.Equal(t, "Anna", saved.FirstName)
	assert.Equal(t, domain.RoleEmployee, saved.Role)
	assert.Equal(t, "a@x.com", saved.Email)

	got, err := svc.Get(ctx, claim)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.PharmacyIndex("12"), got.Pharmacies[0].Index)
}

func TestProfileService_PharmacyLimits(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepo())
	ctx := context.Background()

	_, err := svc.Save(ctx, claimFor("a@x.com", domain.RoleEmployee), ProfileInput{FirstName: "A", LastName: "B", Pharmacies: pharmacies("1", "2")})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.Save(ctx, claimFor("r@x.com", domain.RoleRGA), ProfileInput{FirstName: "R", LastName: "G", Pharmacies: pharmacies("1", "2", "3", "4", "5")})
	assert.NoError(t, err)

	_, err = svc.Save(ctx, claimFor("r@x.com", domain.RoleRGA), ProfileInput{FirstName: "R", LastName: "G", Pharmacies: pharmacies("1", "2", "3", "4", "5", "6")})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestProfileService_Validation(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepo())
	ctx := context.Background()
	claim := claimFor("a@x.com", domain.RoleEmployee)

	tests := map[string]ProfileInput{
		"missing first name": {LastName: "B", Pharmacies: pharmacies("1")},
		"missing last name":  {FirstName: "A", Pharmacies: pharmacies("1")},
		"no pharmacies":      {FirstName: "A", LastName: "B"},
		"blank index only":   {FirstName: "A", LastName: "B", Pharmacies: pharmacies(" ")},
	}
	for name, input := range tests {
		_, err := svc.Save(ctx, claim, input)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), name)
	}

	_, err := svc.Save(ctx, claimFor("a@x.com", "admin"), ProfileInput{FirstName: "A", LastName: "B", Pharmacies: pharmacies("1")})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.Get(ctx, nil)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
