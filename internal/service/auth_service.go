package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/events"
	"github.com/spec-kit/pharmat-audit/internal/otp"
	"github.com/spec-kit/pharmat-audit/internal/repository"
	apperrors "github.com/spec-kit/pharmat-audit/pkg/util"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Session is a freshly issued session token with its claim.
type Session struct {
	Token string
	Claim auth.Claim
}

// AuthService coordinates registration, login and one-time code flows.
type AuthService struct {
	users      repository.UserRepository
	codes      *otp.Flow
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	decoy      *auth.DecoyHash
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Codes      *otp.Flow
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		codes:      deps.Codes,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
		decoy:      auth.NewDecoyHash(deps.BcryptCost),
		logger:     logger,
	}
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// CheckEmail reports whether an account exists for email.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, apperrors.NewValidationError("email is required", nil)
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, storeError(err)
	}
	return exists, nil
}

// SendCode issues a one-time code for email. Delivery problems are reported in
// the result outcome, not as errors.
func (s *AuthService) SendCode(ctx context.Context, email string) (otp.IssueResult, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return otp.IssueResult{}, apperrors.NewValidationError("valid email is required", nil)
	}

	result, err := s.codes.IssueCode(ctx, email)
	if err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			return otp.IssueResult{}, apperrors.NewRateLimited("too many code requests, try again later")
		}
		return otp.IssueResult{}, storeError(err)
	}

	s.publish(ctx, events.New(events.EventCodeIssued, email, "", events.CodeIssuedPayload{
		Outcome:   string(result.Outcome),
		ExpiresAt: result.ExpiresAt,
	}))
	if result.DeliveryErr != nil {
		s.publish(ctx, events.New(events.EventDeliveryFailed, email, "", events.DeliveryFailedPayload{
			Error: result.DeliveryErr.Error(),
		}))
	}
	return result, nil
}

// VerifyCode consumes the code previously sent to email.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(code) == "" {
		return apperrors.NewValidationError("email and code are required", nil)
	}

	if err := s.codes.VerifyCode(ctx, email, code); err != nil {
		if errors.Is(err, otp.ErrInvalidCode) {
			s.publish(ctx, events.New(events.EventCodeRejected, email, "", nil))
			return apperrors.NewInvalidCode()
		}
		return storeError(err)
	}

	s.publish(ctx, events.New(events.EventCodeVerified, email, "", nil))
	return nil
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, email, password, roleTag string) (*domain.User, *Session, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return nil, nil, apperrors.NewValidationError("valid email is required", nil)
	}
	role, ok := domain.ParseRole(roleTag)
	if !ok {
		return nil, nil, apperrors.NewValidationError("invalid role", map[string]any{"role": roleTag})
	}
	if len(password) < minPasswordLength {
		return nil, nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, nil, storeError(err)
	}
	s.publish(ctx, events.New(events.EventUserRegistered, user.Email, user.Role, nil))

	session, err := s.openSession(ctx, user, "register")
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login authenticates by password. Unknown email, missing hash and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		s.decoy.Burn(password)
		return nil, nil, s.loginFailed(ctx, email, "unknown_email")
	case err != nil:
		return nil, nil, storeError(err)
	case user.PasswordHash == "":
		s.decoy.Burn(password)
		return nil, nil, s.loginFailed(ctx, email, "no_password")
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, s.loginFailed(ctx, email, "wrong_password")
	}

	session, err := s.openSession(ctx, user, "login")
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout records the end of a session. Tokens are stateless, so the caller
// clears the cookie; nothing is revoked server-side.
func (s *AuthService) Logout(ctx context.Context, claim *auth.Claim) {
	if claim == nil {
		return
	}
	s.publish(ctx, events.New(events.EventSessionCleared, claim.Identity, claim.Role, nil))
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User, reason string) (*Session, error) {
	token, claim, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.New(events.EventSessionIssued, user.Email, user.Role, events.SessionIssuedPayload{
		Reason:    reason,
		ExpiresAt: claim.Expiry(),
	}))
	return &Session{Token: token, Claim: claim}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) error {
	s.publish(ctx, events.New(events.EventLoginFailed, email, "", events.LoginFailedPayload{Reason: reason}))
	return apperrors.NewUnauthorized("invalid email or password")
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

// storeError maps data store failures to DEPENDENCY_UNAVAILABLE, keeping
// domain errors as they are.
func storeError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewDependencyUnavailable("data store", err)
}
