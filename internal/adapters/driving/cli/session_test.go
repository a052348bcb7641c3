package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

func TestLoginCmd_Use(t *testing.T) {
	assert.Equal(t, "login [username]", loginCmd.Use)
}

func TestLoginCmd_UsernameArgPasswordFromStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("s3cret\n"))
	defer rootCmd.SetIn(nil)

	out, err := executeCommand(t, "login", "alice")

	require.NoError(t, err)
	assert.Equal(t, "alice", ts.session.username)
	assert.Equal(t, "s3cret", ts.session.password)
	assert.Contains(t, out, "Logged in as alice")
}

func TestLoginCmd_PromptsForUsername(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("bob@example.com\nhunter2"))
	defer rootCmd.SetIn(nil)

	out, err := executeCommand(t, "login")

	require.NoError(t, err)
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "Password: ")
	assert.Equal(t, "bob@example.com", ts.session.username)
	assert.Equal(t, "hunter2", ts.session.password)
}

func TestLoginCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.session.loginErr = errors.New("invalid credentials")

	rootCmd.SetIn(strings.NewReader("wrong\n"))
	defer rootCmd.SetIn(nil)

	_, err := executeCommand(t, "login", "alice")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to log in")
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginCmd_NoService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	sessionService = nil

	_, err := executeCommand(t, "login", "alice")

	assert.EqualError(t, err, "session service not configured")
}

func TestLogoutCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "logout")

	require.NoError(t, err)
	assert.True(t, ts.session.loggedOut)
	assert.Contains(t, out, "Logged out")
}

func TestWhoamiCmd(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name     string
		info     *domain.SessionInfo
		contains []string
		excludes []string
	}{
		{
			name:     "not logged in",
			info:     &domain.SessionInfo{},
			contains: []string{"Not logged in"},
		},
		{
			name:     "no readable claims",
			info:     &domain.SessionInfo{Authenticated: true},
			contains: []string{"Logged in"},
			excludes: []string{"User ID"},
		},
		{
			name: "full claims",
			info: &domain.SessionInfo{Authenticated: true, Claims: &domain.TokenClaims{
				UserID: "7", Username: "alice", Email: "alice@example.com", ExpiresAt: future,
			}},
			contains: []string{"Logged in as alice <alice@example.com>", "User ID:  7", "Access:   until"},
			excludes: []string{"expired"},
		},
		{
			name: "expired access token",
			info: &domain.SessionInfo{Authenticated: true, Claims: &domain.TokenClaims{
				Username: "alice", ExpiresAt: past,
			}},
			contains: []string{"Logged in as alice\n", "expired, renewed on next request"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()
			ts.session.info = tt.info

			out, err := executeCommand(t, "whoami")

			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}
