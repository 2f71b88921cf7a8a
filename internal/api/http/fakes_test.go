package http

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.Email] = *user
	return nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func (r *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *memProfiles) Upsert(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.UpdatedAt = time.Now()
	profile.CreatedAt = profile.UpdatedAt
	r.profiles[profile.Email] = *profile
	return nil
}

type memSubmissions struct {
	mu   sync.Mutex
	seq  int
	subs map[domain.SubmissionKey]domain.Submission
}

func (r *memSubmissions) stamp() time.Time {
	r.seq++
	return time.Date(2025, 3, 1, 0, 0, r.seq, 0, time.UTC)
}

func (r *memSubmissions) List(_ context.Context, filter repository.SubmissionFilter) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Submission
	for _, s := range r.subs {
		if filter.EmployeeEmail != "" && s.EmployeeEmail != filter.EmployeeEmail {
			continue
		}
		if len(filter.Pharmacies) > 0 && !containsPharmacy(filter.Pharmacies, s.PharmacyIndex) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memSubmissions) Upsert(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.stamp()
	if existing, ok := r.subs[sub.Key()]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.ID = uuid.NewString()
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	sub.ReviewerEmail, sub.ReviewedAt, sub.ReviewNote = nil, nil, nil
	r.subs[sub.Key()] = *sub
	return nil
}

func (r *memSubmissions) UpdateReview(_ context.Context, key domain.SubmissionKey, update repository.ReviewUpdate) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	reviewer, reviewedAt := update.ReviewerEmail, update.ReviewedAt
	sub.Status = update.Status
	sub.ReviewerEmail = &reviewer
	sub.ReviewedAt = &reviewedAt
	sub.ReviewNote = update.ReviewNote
	sub.UpdatedAt = r.stamp()
	r.subs[key] = sub
	return &sub, nil
}

func (r *memSubmissions) Delete(_ context.Context, key domain.SubmissionKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[key]; !ok {
		return false, nil
	}
	delete(r.subs, key)
	return true, nil
}

func containsPharmacy(list []domain.PharmacyIndex, p domain.PharmacyIndex) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var errPingRefused = errors.New("dial tcp: connection refused")
