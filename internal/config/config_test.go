package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 993, cfg.Mail.Port)
	assert.Equal(t, "ssl", cfg.Mail.Encryption)
	assert.True(t, cfg.Mail.ValidateCert)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Session.TTL())
	assert.Equal(t, ":8143", cfg.HTTP.Addr)
	assert.Equal(t, "webmail.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.MessageLimit)
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `
mail:
  host: mail.example.com
  port: 143
  encryption: tls
  validate_cert: false
  connect_timeout_sec: 5
  read_timeout_sec: 15
session:
  backend: token
  secret: hush
  ttl_sec: 600
http:
  addr: ":9000"
db_path: /var/lib/webmaild/webmail.db
message_limit: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:143", cfg.Mail.Addr())
	assert.Equal(t, "tls", cfg.Mail.Encryption)
	assert.False(t, cfg.Mail.ValidateCert)
	assert.Equal(t, 5*time.Second, cfg.Mail.ConnectTimeout())
	assert.Equal(t, 15*time.Second, cfg.Mail.ReadTimeout())
	assert.Equal(t, "token", cfg.Session.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL())
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 25, cfg.MessageLimit)
}

func TestLoadFillsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
mail:
  host: mail.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 993, cfg.Mail.Port)
	assert.Equal(t, 30*time.Second, cfg.Mail.ConnectTimeout())
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 10, cfg.MessageLimit)
}

func TestLoadRejectsBadEncryption(t *testing.T) {
	path := writeConfig(t, `
mail:
  host: mail.example.com
  encryption: rot13
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.encryption")
}

func TestLoadTokenBackendRequiresSecret(t *testing.T) {
	path := writeConfig(t, `
mail:
  host: mail.example.com
session:
  backend: token
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")
}

func TestLoadRequiresHost(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.host")
}

func TestMessageLimitFallsBack(t *testing.T) {
	path := writeConfig(t, `
mail:
  host: mail.example.com
message_limit: -3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MessageLimit)
}
