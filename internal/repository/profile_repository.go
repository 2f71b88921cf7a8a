package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// ProfileRepository persists user profiles keyed by email.
type ProfileRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	const query = `
        SELECT email, first_name, last_name, role, pharmacies, created_at, updated_at
        FROM profiles WHERE email=$1`

	var (
		profile domain.Profile
		role    string
	)
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&profile.Email,
		&profile.FirstName,
		&profile.LastName,
		&role,
		&profile.Pharmacies,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	profile.Role = domain.Role(role)
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (email, first_name, last_name, role, pharmacies)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO UPDATE
        SET first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
            role=EXCLUDED.role, pharmacies=EXCLUDED.pharmacies, updated_at=NOW()
        RETURNING created_at, updated_at`

	pharmacies := profile.Pharmacies
	if pharmacies == nil {
		pharmacies = []domain.Pharmacy{}
	}
	return r.pool.QueryRow(ctx, query,
		profile.Email,
		profile.FirstName,
		profile.LastName,
		string(profile.Role),
		pharmacies,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
}
