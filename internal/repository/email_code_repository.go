package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/otp"
)

// EmailCodeRepository stores one-time codes in Postgres, one row per email.
type EmailCodeRepository struct {
	pool *pgxpool.Pool
}

var _ otp.CodeStore = (*EmailCodeRepository)(nil)

// NewEmailCodeRepository constructs repository.
func NewEmailCodeRepository(pool *pgxpool.Pool) *EmailCodeRepository {
	return &EmailCodeRepository{pool: pool}
}

// Save upserts the code for record.Email and resets its used flag.
func (r *EmailCodeRepository) Save(ctx context.Context, record domain.EmailCode) error {
	const query = `
        INSERT INTO email_codes (email, code, expires_at, used, created_at)
        VALUES ($1, $2, $3, FALSE, $4)
        ON CONFLICT (email) DO UPDATE
        SET code=EXCLUDED.code, expires_at=EXCLUDED.expires_at, used=FALSE, created_at=EXCLUDED.created_at`
	_, err := r.pool.Exec(ctx, query,
		record.Email,
		record.Code,
		record.ExpiresAt,
		record.CreatedAt,
	)
	return err
}

// Consume flips the matching record to used in a single statement. The UPDATE
// takes the row lock and concurrent updaters re-evaluate used=FALSE after it is
// released (READ COMMITTED), so of two concurrent callers only one sees a row.
func (r *EmailCodeRepository) Consume(ctx context.Context, email, code string, now time.Time) (*domain.EmailCode, error) {
	const query = `
        UPDATE email_codes SET used=TRUE
        WHERE email=$1 AND code=$2 AND used=FALSE AND expires_at >= $3
        RETURNING email, code, expires_at, used, created_at`

	var rec domain.EmailCode
	err := r.pool.QueryRow(ctx, query, email, code, now).Scan(
		&rec.Email,
		&rec.Code,
		&rec.ExpiresAt,
		&rec.Used,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, otp.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
