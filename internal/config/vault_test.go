package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"coverletter/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

// fakeReader serves KVv2-shaped secrets from memory
type fakeReader struct {
	secrets map[string]map[string]any
	err     error
}

func (f *fakeReader) Read(path string) (*api.Secret, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.secrets[path]
	if !ok {
		return nil, nil
	}
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": "3"},
	}}, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "int value", input: 7, expected: 7},
		{name: "float64 value", input: float64(42), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetSecretV2(t *testing.T) {
	reader := &fakeReader{secrets: map[string]map[string]any{
		"secret/data/gemini": {"api_key": "AIzaSyExampleKey1234"},
	}}
	client := newVaultClientWithReader(reader, newTestLogger())

	secret, err := client.GetSecretV2("secret/data/gemini")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, "AIzaSyExampleKey1234", secret.Data["api_key"])

	_, err = client.GetSecretV2("secret/data/missing")
	assert.ErrorContains(t, err, "secret not found at path")
}

func TestGetSecretV2NotKVv2(t *testing.T) {
	reader := readerFunc(func(string) (*api.Secret, error) {
		return &api.Secret{Data: map[string]any{"api_key": "flat"}}, nil
	})
	client := newVaultClientWithReader(reader, newTestLogger())

	_, err := client.GetSecretV2("secret/kv1")
	assert.ErrorContains(t, err, "not in KVv2 format")
}

type readerFunc func(path string) (*api.Secret, error)

func (f readerFunc) Read(path string) (*api.Secret, error) { return f(path) }

func TestGetStringSecret(t *testing.T) {
	reader := &fakeReader{secrets: map[string]map[string]any{
		"secret/data/mixed": {"name": "value", "count": 3},
	}}
	client := newVaultClientWithReader(reader, newTestLogger())

	value, err := client.GetStringSecret("secret/data/mixed", "name")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	_, err = client.GetStringSecret("secret/data/mixed", "count")
	assert.ErrorContains(t, err, "is not a string")

	_, err = client.GetStringSecret("secret/data/mixed", "absent")
	assert.ErrorContains(t, err, "key 'absent' not found")
}

func TestApplySecrets(t *testing.T) {
	reader := &fakeReader{secrets: map[string]map[string]any{
		"secret/data/api":    {"keys": "alpha, beta ,,gamma"},
		"secret/data/gemini": {"api_key": "gemini-from-vault"},
		"secret/data/redis":  {"password": "hunter2"},
		"secret/data/tls":    {"cert": "CERT", "key": "KEY"},
	}}

	cfg := &Config{
		AI: AIConfig{Suggest: OperationAIConfig{APIKey: "suggest-specific"}},
		Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
			APIKeys:       "secret/data/api",
			GeminiKey:     "secret/data/gemini",
			RedisPassword: "secret/data/redis",
			TLSCerts:      "secret/data/tls",
		}},
	}

	err := applySecrets(newVaultClientWithReader(reader, newTestLogger()), cfg, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-from-vault", cfg.AI.APIKey)
	assert.Equal(t, "gemini-from-vault", cfg.AI.Structured.APIKey)
	assert.Equal(t, "gemini-from-vault", cfg.AI.Freeform.APIKey)
	assert.Equal(t, "suggest-specific", cfg.AI.Suggest.APIKey)
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password)
	assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CAContent)
}

func TestApplySecretsReadFailure(t *testing.T) {
	reader := &fakeReader{err: fmt.Errorf("permission denied")}
	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{GeminiKey: "secret/data/gemini"}}}

	err := applySecrets(newVaultClientWithReader(reader, newTestLogger()), cfg, newTestLogger())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestApplySecretsRejectsTLSFilePaths(t *testing.T) {
	reader := &fakeReader{secrets: map[string]map[string]any{
		"secret/data/tls": {"cert_file": "/etc/tls/cert.pem"},
	}}
	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{TLSCerts: "secret/data/tls"}}}

	err := applySecrets(newVaultClientWithReader(reader, newTestLogger()), cfg, newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'cert_file' field is not supported")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{AI: AIConfig{APIKey: "original"}}
	assert.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
	assert.Equal(t, "original", cfg.AI.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  s.filetoken\n"), 0600))

	tests := []struct {
		name        string
		cfg         VaultConfig
		expected    string
		expectError bool
	}{
		{name: "inline token wins", cfg: VaultConfig{Token: "s.inline", TokenFile: tokenFile}, expected: "s.inline"},
		{name: "token file", cfg: VaultConfig{TokenFile: tokenFile}, expected: "s.filetoken"},
		{name: "missing token file", cfg: VaultConfig{TokenFile: filepath.Join(dir, "absent")}, expectError: true},
		{name: "no token", cfg: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghwxyz"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
