package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// SubmissionFilter narrows a submission listing. Empty fields do not filter.
type SubmissionFilter struct {
	EmployeeEmail string
	Pharmacies    []domain.PharmacyIndex
}

// ReviewUpdate is applied by a reviewer to an existing submission.
type ReviewUpdate struct {
	Status        domain.SubmissionStatus
	ReviewerEmail string
	ReviewNote    *string
	ReviewedAt    time.Time
}

// SubmissionRepository encapsulates task submission persistence.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error)
	Upsert(ctx context.Context, submission *domain.Submission) error
	UpdateReview(ctx context.Context, key domain.SubmissionKey, update ReviewUpdate) (*domain.Submission, error)
	Delete(ctx context.Context, key domain.SubmissionKey) (bool, error)
}

const submissionColumns = `id, employee_email, pharmacy_index, task_key, status, file_name, file_url,
                    reviewer_email, reviewed_at, review_note, created_at, updated_at`

type submissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository returns a Postgres-backed implementation.
func NewSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepository{pool: pool}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EmployeeEmail != "" {
		args = append(args, filter.EmployeeEmail)
		clauses = append(clauses, fmt.Sprintf("employee_email=$%d", len(args)))
	}
	if len(filter.Pharmacies) > 0 {
		placeholders := make([]string, len(filter.Pharmacies))
		for i, p := range filter.Pharmacies {
			args = append(args, string(p))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("pharmacy_index IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM task_submissions WHERE %s ORDER BY updated_at DESC`,
		submissionColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

// Upsert inserts the submission or replaces the file of an existing one,
// sending it back to review.
func (r *submissionRepository) Upsert(ctx context.Context, submission *domain.Submission) error {
	query := `
        INSERT INTO task_submissions (employee_email, pharmacy_index, task_key, status, file_name, file_url)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (employee_email, pharmacy_index, task_key) DO UPDATE
        SET status=EXCLUDED.status, file_name=EXCLUDED.file_name, file_url=EXCLUDED.file_url,
            reviewer_email=NULL, reviewed_at=NULL, review_note=NULL, updated_at=NOW()
        RETURNING ` + submissionColumns

	saved, err := scanSubmission(r.pool.QueryRow(ctx, query,
		submission.EmployeeEmail,
		string(submission.PharmacyIndex),
		submission.TaskKey,
		string(domain.SubmissionStatusWaiting),
		submission.FileName,
		submission.FileURL,
	))
	if err != nil {
		return err
	}
	*submission = *saved
	return nil
}

func (r *submissionRepository) UpdateReview(ctx context.Context, key domain.SubmissionKey, update ReviewUpdate) (*domain.Submission, error) {
	query := `
        UPDATE task_submissions
        SET status=$1, reviewer_email=$2, reviewed_at=$3, review_note=$4, updated_at=NOW()
        WHERE employee_email=$5 AND pharmacy_index=$6 AND task_key=$7
        RETURNING ` + submissionColumns

	return scanSubmission(r.pool.QueryRow(ctx, query,
		string(update.Status),
		update.ReviewerEmail,
		update.ReviewedAt,
		update.ReviewNote,
		key.EmployeeEmail,
		string(key.PharmacyIndex),
		key.TaskKey,
	))
}

func (r *submissionRepository) Delete(ctx context.Context, key domain.SubmissionKey) (bool, error) {
	const query = `
        DELETE FROM task_submissions
        WHERE employee_email=$1 AND pharmacy_index=$2 AND task_key=$3`

	cmd, err := r.pool.Exec(ctx, query, key.EmployeeEmail, string(key.PharmacyIndex), key.TaskKey)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		sub      domain.Submission
		pharmacy string
		status   string
	)
	if err := row.Scan(
		&sub.ID,
		&sub.EmployeeEmail,
		&pharmacy,
		&sub.TaskKey,
		&status,
		&sub.FileName,
		&sub.FileURL,
		&sub.ReviewerEmail,
		&sub.ReviewedAt,
		&sub.ReviewNote,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sub.PharmacyIndex = domain.PharmacyIndex(pharmacy)
	sub.Status = domain.SubmissionStatus(status)
	return &sub, nil
}
