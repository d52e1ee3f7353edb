package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/identity"
	"github.com/safework/backend/internal/domain/shared"
	"github.com/safework/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles account registration and session authentication
type AuthService struct {
	accountRepo identity.AccountRepository
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	accountRepo identity.AccountRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		jwtService:  jwtService,
		blacklist:   blacklist,
		logger:      logger,
	}
}

// Register creates a new employee account. A username that is already
// taken is reported as invalid input so callers treat it like any
// other bad registration payload.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	exists, err := s.accountRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error("Failed to check username availability", zap.Error(err))
		return nil, shared.ErrStorage
	}
	if exists {
		s.logger.Warn("Registration with taken username", zap.String("username", input.Username))
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username is already taken")
	}

	account, err := identity.NewEmployeeAccount(input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// A concurrent registration can win the race past the
		// availability check and hit the unique index instead
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Warn("Registration lost username race", zap.String("username", input.Username))
			return nil, shared.NewDomainError("INVALID_USERNAME", "Username is already taken")
		}
		s.logger.Error("Failed to create account", zap.Error(err))
		return nil, shared.ErrStorage
	}

	s.logger.Info("Account registered",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID.String()))

	return &RegisterResult{Account: accountInfoFromDomain(account)}, nil
}

// Login authenticates an account and returns a signed session token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := s.accountRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown account", zap.String("username", input.Username))
			return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid username or password")
		}
		s.logger.Error("Failed to look up account", zap.Error(err))
		return nil, shared.ErrStorage
	}

	if !account.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid username or password")
	}

	token, err := s.jwtService.GenerateToken(auth.GenerateTokenInput{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	})
	if err != nil {
		s.logger.Error("Failed to generate session token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create session")
	}

	account.RecordLoginSuccess()
	if err := s.accountRepo.Update(ctx, account); err != nil {
		// Don't fail the login over bookkeeping
		s.logger.Error("Failed to record login time", zap.Error(err))
	}

	s.logger.Info("Account logged in",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID.String()))

	return &LoginResult{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Account:   accountInfoFromDomain(account),
	}, nil
}

// Logout revokes the session token so it can no longer authenticate
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	ttl := time.Until(input.ExpiresAt)
	if input.TokenID == "" || ttl <= 0 {
		// Nothing to revoke; the token is already unusable
		return nil
	}

	if err := s.blacklist.Revoke(ctx, input.TokenID, ttl); err != nil {
		s.logger.Error("Failed to revoke session token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to end session")
	}
	return nil
}

// GetCurrentAccount returns the account behind an authenticated session
func (s *AuthService) GetCurrentAccount(ctx context.Context, accountID uuid.UUID) (*AccountInfo, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Account no longer exists")
		}
		s.logger.Error("Failed to look up account", zap.Error(err))
		return nil, shared.ErrStorage
	}

	info := accountInfoFromDomain(account)
	return &info, nil
}

// EnsureDefaultAdmin creates the administrator account on first boot.
// If the username already exists the call is a no-op.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	exists, err := s.accountRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	admin, err := identity.NewAccount(username, password, identity.RoleAdministrator)
	if err != nil {
		return err
	}
	if err := s.accountRepo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("Seeded default administrator account", zap.String("username", username))
	return nil
}
