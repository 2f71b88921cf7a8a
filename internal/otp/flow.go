package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/pharmat-audit/internal/domain"
)

const (
	DefaultDigits = 6
	DefaultTTL    = 10 * time.Minute
)

// Config controls code shape and lifetime.
type Config struct {
	Digits      int
	TTL         time.Duration
	DevFallback bool
}

// Flow issues and verifies one-time codes.
type Flow struct {
	store   CodeStore
	mailer  Mailer
	limiter Limiter
	cfg     Config
	now     func() time.Time
	random  io.Reader
	logger  *zap.Logger
}

// Option customizes a Flow.
type Option func(*Flow)

// WithLimiter throttles IssueCode per identity.
func WithLimiter(l Limiter) Option {
	return func(f *Flow) { f.limiter = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithRandom overrides the entropy source used for code generation.
func WithRandom(r io.Reader) Option {
	return func(f *Flow) { f.random = r }
}

// WithLogger sets the flow logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// NewFlow builds a Flow. mailer may be nil, in which case codes are never sent
// and IssueCode reports OutcomeDevFallback or OutcomeDeliveryUncertain.
func NewFlow(store CodeStore, mailer Mailer, cfg Config, opts ...Option) (*Flow, error) {
	if store == nil {
		return nil, errors.New("otp: code store is required")
	}
	if cfg.Digits == 0 {
		cfg.Digits = DefaultDigits
	}
	if cfg.Digits < 4 || cfg.Digits > 9 {
		return nil, fmt.Errorf("otp: digits must be between 4 and 9, got %d", cfg.Digits)
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("otp: ttl must be positive")
	}

	f := &Flow{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
		random: rand.Reader,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Digits returns the configured code length.
func (f *Flow) Digits() int {
	return f.cfg.Digits
}

// IssueCode generates a fresh code for identity, stores it and attempts delivery.
// Delivery failures are reported through the result, not as an error.
func (f *Flow) IssueCode(ctx context.Context, identity string) (IssueResult, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return IssueResult{}, errors.New("otp: identity is required")
	}

	if f.limiter != nil {
		allowed, err := f.limiter.Allow(ctx, identity)
		if err != nil {
			return IssueResult{}, fmt.Errorf("otp: limiter: %w", err)
		}
		if !allowed {
			return IssueResult{}, ErrRateLimited
		}
	}

	code, err := generateCode(f.random, f.cfg.Digits)
	if err != nil {
		return IssueResult{}, fmt.Errorf("otp: generate code: %w", err)
	}

	now := f.now()
	record := domain.EmailCode{
		Email:     identity,
		Code:      code,
		ExpiresAt: now.Add(f.cfg.TTL),
		CreatedAt: now,
	}
	if err := f.store.Save(ctx, record); err != nil {
		return IssueResult{}, fmt.Errorf("otp: save code: %w", err)
	}

	result := IssueResult{ExpiresAt: record.ExpiresAt}
	switch {
	case f.mailer == nil && f.cfg.DevFallback:
		f.logger.Warn("mail provider not configured; returning code to caller", zap.String("email", identity))
		result.Outcome = OutcomeDevFallback
		result.Code = code
	case f.mailer == nil:
		f.logger.Warn("mail provider not configured; code not delivered", zap.String("email", identity))
		result.Outcome = OutcomeDeliveryUncertain
	default:
		if err := f.mailer.SendCode(ctx, identity, code, f.cfg.TTL); err != nil {
			f.logger.Warn("code delivery failed", zap.String("email", identity), zap.Error(err))
			result.Outcome = OutcomeDeliveryUncertain
			result.DeliveryErr = err
		} else {
			result.Outcome = OutcomeDelivered
		}
	}
	return result, nil
}

// VerifyCode consumes the code issued to identity. Of concurrent calls with the
// same valid code exactly one succeeds.
func (f *Flow) VerifyCode(ctx context.Context, identity, candidate string) error {
	identity = strings.TrimSpace(identity)
	candidate = strings.TrimSpace(candidate)
	if identity == "" || !f.wellFormed(candidate) {
		return ErrInvalidCode
	}

	if _, err := f.store.Consume(ctx, identity, candidate, f.now()); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("otp: consume code: %w", err)
	}
	return nil
}

func (f *Flow) wellFormed(candidate string) bool {
	if len(candidate) != f.cfg.Digits {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		if candidate[i] < '0' || candidate[i] > '9' {
			return false
		}
	}
	return true
}

// generateCode returns a uniform decimal in [10^(digits-1), 10^digits - 1].
func generateCode(r io.Reader, digits int) (string, error) {
	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	n, err := rand.Int(r, big.NewInt(9*low))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+low, 10), nil
}
