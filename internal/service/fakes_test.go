package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/otp"
	"github.com/spec-kit/pharmat-audit/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.err != nil {
		return r.err
	}
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

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

type fakeCodeStore struct {
	mu      sync.Mutex
	records map[string]domain.EmailCode
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{records: make(map[string]domain.EmailCode)}
}

func (s *fakeCodeStore) Save(_ context.Context, record domain.EmailCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Email] = record
	return nil
}

func (s *fakeCodeStore) Consume(_ context.Context, email, code string, now time.Time) (*domain.EmailCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok || rec.Used || rec.Code != code || rec.Expired(now) {
		return nil, otp.ErrCodeNotFound
	}
	rec.Used = true
	s.records[email] = rec
	return &rec, nil
}

type fakeProfileRepo struct {
	profiles map[string]domain.Profile
	err      error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]domain.Profile)}
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.profiles[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *fakeProfileRepo) Upsert(_ context.Context, profile *domain.Profile) error {
	if r.err != nil {
		return r.err
	}
	now := time.Now()
	if existing, ok := r.profiles[profile.Email]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.profiles[profile.Email] = *profile
	return nil
}

type fakeSubmissionRepo struct {
	subs  map[domain.SubmissionKey]domain.Submission
	clock time.Time
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		subs:  make(map[domain.SubmissionKey]domain.Submission),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeSubmissionRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]domain.Submission, error) {
	allowed := map[domain.PharmacyIndex]bool{}
	for _, p := range filter.Pharmacies {
		allowed[p] = true
	}
	out := []domain.Submission{}
	for _, s := range r.subs {
		if filter.EmployeeEmail != "" && s.EmployeeEmail != filter.EmployeeEmail {
			continue
		}
		if len(allowed) > 0 && !allowed[s.PharmacyIndex] {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeSubmissionRepo) Upsert(_ context.Context, sub *domain.Submission) error {
	now := r.tick()
	existing, ok := r.subs[sub.Key()]
	if ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.ID = uuid.NewString()
		sub.CreatedAt = now
	}
	sub.Status = domain.SubmissionStatusWaiting
	sub.ReviewerEmail, sub.ReviewedAt, sub.ReviewNote = nil, nil, nil
	sub.UpdatedAt = now
	r.subs[sub.Key()] = *sub
	return nil
}

func (r *fakeSubmissionRepo) UpdateReview(_ context.Context, key domain.SubmissionKey, u repository.ReviewUpdate) (*domain.Submission, error) {
	sub, ok := r.subs[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	reviewer, at := u.ReviewerEmail, u.ReviewedAt
	sub.Status = u.Status
	sub.ReviewerEmail = &reviewer
	sub.ReviewedAt = &at
	sub.ReviewNote = u.ReviewNote
	sub.UpdatedAt = r.tick()
	r.subs[key] = sub
	return &sub, nil
}

func (r *fakeSubmissionRepo) Delete(_ context.Context, key domain.SubmissionKey) (bool, error) {
	_, ok := r.subs[key]
	delete(r.subs, key)
	return ok, nil
}
