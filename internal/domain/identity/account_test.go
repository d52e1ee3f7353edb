package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("creates employee account with valid credentials", func(t *testing.T) {
		account, err := NewEmployeeAccount("alice", "secret1")

		require.NoError(t, err)
		assert.NotNil(t, account)
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, RoleEmployee, account.Role)
		assert.NotEmpty(t, account.PasswordHash)
		assert.NotEqual(t, "secret1", account.PasswordHash)
		assert.False(t, account.IsAdministrator())
	})

	t.Run("creates administrator account", func(t *testing.T) {
		account, err := NewAccount("admin", "admin123", RoleAdministrator)

		require.NoError(t, err)
		assert.Equal(t, RoleAdministrator, account.Role)
		assert.True(t, account.IsAdministrator())
	})

	t.Run("normalizes username to lowercase", func(t *testing.T) {
		account, err := NewEmployeeAccount("Alice", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "alice", account.Username)
	})

	t.Run("trims username whitespace", func(t *testing.T) {
		account, err := NewEmployeeAccount("  alice  ", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "alice", account.Username)
	})

	t.Run("fails with empty username", func(t *testing.T) {
		_, err := NewEmployeeAccount("", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("fails with short username", func(t *testing.T) {
		_, err := NewEmployeeAccount("ab", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "between 3 and 50")
	})

	t.Run("fails with invalid username characters", func(t *testing.T) {
		_, err := NewEmployeeAccount("alice@work", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "may only contain")
	})

	t.Run("fails with empty password", func(t *testing.T) {
		_, err := NewEmployeeAccount("alice", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("fails with short password", func(t *testing.T) {
		_, err := NewEmployeeAccount("alice", "pw1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6 characters")
	})
}

func TestAccount_VerifyPassword(t *testing.T) {
	account, err := NewEmployeeAccount("alice", "secret1")
	require.NoError(t, err)

	t.Run("accepts correct password", func(t *testing.T) {
		assert.True(t, account.VerifyPassword("secret1"))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		assert.False(t, account.VerifyPassword("secret2"))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		assert.False(t, account.VerifyPassword(""))
	})
}

func TestAccount_RecordLoginSuccess(t *testing.T) {
	account, err := NewEmployeeAccount("alice", "secret1")
	require.NoError(t, err)
	require.Nil(t, account.LastLoginAt)

	before := account.Version
	account.RecordLoginSuccess()

	assert.NotNil(t, account.LastLoginAt)
	assert.Equal(t, before+1, account.Version)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{"employee", RoleEmployee, false},
		{"administrator", RoleAdministrator, false},
		{"Administrator", RoleAdministrator, false},
		{" employee ", RoleEmployee, false},
		{"manager", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		role, err := ParseRole(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
		} else {
			require.NoError(t, err, "input %q", tt.input)
			assert.Equal(t, tt.expected, role)
		}
	}
}
