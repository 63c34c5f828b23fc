package app

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"

	"github.com/fooddash/api/internal/domain"
	"github.com/fooddash/api/internal/logging"
)

type UserRepository interface {
	// FindByIdentifier returns (nil, nil) when no user exists.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.AppUser, error)
	// CreateUser returns domain.ErrUserExists when the identifier is taken.
	CreateUser(ctx context.Context, user domain.AppUser) (domain.AppUser, error)
}

// CodeStore is the expiring credential store consumed by login.
type CodeStore interface {
	Issue(identifier string) (string, error)
	Consume(identifier, candidate string) bool
}

// CredentialSender hands a code off for out-of-band delivery without
// blocking the caller.
type CredentialSender interface {
	Dispatch(ctx context.Context, identifier, code string)
}

type AuthService struct {
	users  UserRepository
	codes  CodeStore
	sender CredentialSender
	logger logging.Logger
}

func NewAuthService(users UserRepository, codes CodeStore, sender CredentialSender, l logging.Logger) *AuthService {
	return &AuthService{
		users:  users,
		codes:  codes,
		sender: sender,
		logger: l.With("module", "auth"),
	}
}

// RequestOTP issues a fresh code for the identifier and queues its delivery.
// The caller is told "issued" regardless of whether delivery later succeeds.
func (s *AuthService) RequestOTP(ctx context.Context, identifier string) error {
	if identifier == "" {
		return domain.ErrIdentifierRequired
	}

	code, err := s.codes.Issue(identifier)
	if err != nil {
		return err
	}

	s.sender.Dispatch(ctx, identifier, code)
	return nil
}

// VerifyOTP consumes the code and, on success, resolves the identifier to a
// durable customer account, creating one on first login. Wrong, expired and
// missing codes are indistinguishable: all return ErrNotAuthenticated.
func (s *AuthService) VerifyOTP(ctx context.Context, identifier, code string) (domain.AppUser, error) {
	if identifier == "" {
		return domain.AppUser{}, domain.ErrIdentifierRequired
	}
	if !s.codes.Consume(identifier, code) {
		return domain.AppUser{}, domain.ErrNotAuthenticated
	}
	return s.resolve(ctx, identifier)
}

// resolve is create-or-fetch by identifier. Losing the insert race to a
// concurrent first login is not an error: the winner's row is fetched and
// returned, keyed by the store's uniqueness constraint.
func (s *AuthService) resolve(ctx context.Context, identifier string) (domain.AppUser, error) {
	existing, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return domain.AppUser{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	created, err := s.users.CreateUser(ctx, domain.AppUser{
		ID:           uuid.NewString(),
		PhoneOrEmail: identifier,
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			winner, ferr := s.users.FindByIdentifier(ctx, identifier)
			if ferr != nil {
				return domain.AppUser{}, ferr
			}
			if winner != nil {
				return *winner, nil
			}
		}
		return domain.AppUser{}, err
	}

	s.logger.Info(ctx, "customer registered", "user_id", created.ID)
	return created, nil
}

// AdminLogin authenticates an admin by identifier and stored secret. The
// comparison is plain equality (constant-time); secrets are not hashed,
// a known gap inherited from the credential layer this replaces.
func (s *AuthService) AdminLogin(ctx context.Context, username, secret string) (domain.AppUser, error) {
	user, err := s.users.FindByIdentifier(ctx, username)
	if err != nil {
		return domain.AppUser{}, err
	}
	if user == nil || user.Role != domain.RoleAdmin {
		return domain.AppUser{}, domain.ErrNotAuthenticated
	}
	if subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(secret)) != 1 {
		return domain.AppUser{}, domain.ErrNotAuthenticated
	}
	return *user, nil
}
