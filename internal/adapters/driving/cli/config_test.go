package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docverify/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/services"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range configCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"list", "get", "set"}, names)
}

func TestConfigListCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "config", "list")

	require.NoError(t, err)
	assert.Regexp(t, `api\.base_url\s+http://localhost:8000`, out)
	assert.Regexp(t, `poll\.interval\s+2s`, out)
}

func TestConfigSetGet_WithSettingsService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsService = services.NewSettingsService(memory.NewConfigStore())

	out, err := executeCommand(t, "config", "set", "poll.interval", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "poll.interval = 5s")

	out, err = executeCommand(t, "config", "get", "poll.interval")
	require.NoError(t, err)
	assert.Equal(t, "5s\n", out)
}

func TestConfigSetCmd_RejectsInvalidValue(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsService = services.NewSettingsService(memory.NewConfigStore())

	_, err := executeCommand(t, "config", "set", "api.base_url", "not a url")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "failed to set api.base_url")
}

func TestConfigGetCmd_UnknownKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "config", "get", "search.mode")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read search.mode")
}

func TestConfigCmd_NoService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	_, err := executeCommand(t, "config", "list")

	assert.EqualError(t, err, "settings service not configured")
}
