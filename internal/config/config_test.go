package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: bulk-caller
  env: test
  dotenv: ""
http:
  port: 9090
vapi:
  api_key: key-123
  assistant_id: asst-1
  request_timeout: 5s
twilio:
  account_sid: AC123
  auth_token: token
  phone_number: "+15550001111"
dispatch:
  call_interval: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "key-123", cfg.Vapi.APIKey)
	assert.Equal(t, "asst-1", cfg.Vapi.AssistantID)
	assert.Equal(t, 5*time.Second, cfg.Vapi.RequestTimeout)
	assert.Equal(t, "https://api.vapi.ai", cfg.Vapi.BaseURL)
	assert.Equal(t, "+15550001111", cfg.Twilio.PhoneNumber)
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.CallInterval)
	assert.Equal(t, DefaultFirstMessage, cfg.Dispatch.DefaultFirstMessage)
	assert.Equal(t, "memory", cfg.RunStore.Backend)
}

func TestLoadSecretsFromEnvironment(t *testing.T) {
	t.Setenv("BULKCALLER_APP_DOTENV", "")
	t.Setenv("VAPI_API_KEY", "legacy-key")
	t.Setenv("VAPI_ASSISTANT_ID", "legacy-assistant")
	t.Setenv("TWILIO_ACCOUNT_SID", "AClegacy")
	t.Setenv("TWILIO_AUTH_TOKEN", "legacy-token")
	t.Setenv("BULKCALLER_TWILIO_PHONE_NUMBER", "+15551234567")
	t.Setenv("TWILIO_PHONE_NUMBER", "+19999999999")
	t.Setenv("BULKCALLER_DISPATCH_CALL_INTERVAL", "2s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "legacy-key", cfg.Vapi.APIKey)
	assert.Equal(t, "legacy-assistant", cfg.Vapi.AssistantID)
	assert.Equal(t, "AClegacy", cfg.Twilio.AccountSID)
	assert.Equal(t, "legacy-token", cfg.Twilio.AuthToken)
	assert.Equal(t, "+15551234567", cfg.Twilio.PhoneNumber, "prefixed variable wins over the legacy name")
	assert.Equal(t, 2*time.Second, cfg.Dispatch.CallInterval)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, "secrets.env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"VAPI_API_KEY=dotenv-key\nVAPI_ASSISTANT_ID=dotenv-asst\nTWILIO_ACCOUNT_SID=ACdot\nTWILIO_AUTH_TOKEN=dot\nTWILIO_PHONE_NUMBER=+15550000000\n",
	), 0o600))
	t.Setenv("BULKCALLER_APP_DOTENV", dotenv)
	t.Cleanup(func() {
		for _, name := range legacyEnv {
			os.Unsetenv(name)
		}
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Vapi.APIKey)
	assert.Equal(t, "+15550000000", cfg.Twilio.PhoneNumber)
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
app:
  dotenv: ""
vapi:
  api_key: only-the-key
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AssistantID")
}

func TestLoadDryRunSkipsCredentials(t *testing.T) {
	path := writeConfig(t, `
app:
  dotenv: ""
dispatch:
  dry_run: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Dispatch.DryRun)
	assert.True(t, cfg.Vapi.DryRun)
}

func TestValidateRejectsUnknownRunStore(t *testing.T) {
	path := writeConfig(t, `
app:
  dotenv: ""
dispatch:
  dry_run: true
run_store:
  backend: postgres
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Backend")
}
