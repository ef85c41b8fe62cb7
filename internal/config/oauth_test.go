package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOAuthJSON = `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "sampling-rosters",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.test.json")
	require.NoError(t, os.WriteFile(path, []byte(validOAuthJSON), 0600))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sampling-rosters", cfg.Installed.ProjectID)
}

func TestLoadOAuthClientFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed":{"client_id":"x","auth_uri":"not-a-url"}}`), 0600))

	_, err := LoadOAuthClientFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
