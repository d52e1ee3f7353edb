package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/safework/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role classifies what an account is allowed to do. It is a closed
// two-variant tag checked explicitly at each authorization point.
type Role string

const (
	RoleEmployee      Role = "employee"
	RoleAdministrator Role = "administrator"
)

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleEmployee:
		return RoleEmployee, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	default:
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be employee or administrator")
	}
}

// IsAdministrator reports whether the role grants triage privileges
func (r Role) IsAdministrator() bool {
	return r == RoleAdministrator
}

// Password cost for bcrypt
const bcryptCost = 12

// Account represents a registered user of the system.
// It is the aggregate root for authentication and authorization.
type Account struct {
	shared.BaseAggregateRoot
	Username     string
	PasswordHash string
	Role         Role
	LastLoginAt  *time.Time
}

// NewAccount creates a new account with the given credentials and role
func NewAccount(username, password string, role Role) (*Account, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      passwordHash,
		Role:              role,
	}, nil
}

// NewEmployeeAccount creates a new account with the employee role.
// Self-service registration always produces employees; administrator
// accounts are seeded or promoted out of band.
func NewEmployeeAccount(username, password string) (*Account, error) {
	return NewAccount(username, password, RoleEmployee)
}

// VerifyPassword checks whether the given password matches the stored hash
func (a *Account) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// RecordLoginSuccess updates login tracking fields
func (a *Account) RecordLoginSuccess() {
	now := time.Now()
	a.LastLoginAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
}

// IsAdministrator reports whether the account may perform triage operations
func (a *Account) IsAdministrator() bool {
	return a.Role.IsAdministrator()
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateUsername validates the username format
func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username is required")
	}
	if len(username) < 3 || len(username) > 50 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username may only contain letters, digits, dots, underscores and hyphens")
	}
	return nil
}

// validatePassword validates password requirements
func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password is required")
	}
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		// bcrypt input limit
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
