package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/identity"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Username string
	Password string
}

// RegisterResult contains the result of a successful registration
type RegisterResult struct {
	Account AccountInfo
}

// LoginInput contains the input for account login
type LoginInput struct {
	Username string
	Password string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   AccountInfo
}

// LogoutInput identifies the session token to revoke
type LogoutInput struct {
	TokenID   string
	ExpiresAt time.Time
}

// AccountInfo contains basic account information exposed to callers
type AccountInfo struct {
	ID       uuid.UUID
	Username string
	Role     identity.Role
}

func accountInfoFromDomain(account *identity.Account) AccountInfo {
	return AccountInfo{
		ID:       account.ID,
		Username: account.Username,
		Role:     account.Role,
	}
}
