package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"coverletter/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths of the secrets to load. Empty paths are skipped.
type VaultSecrets struct {
	// APIKeys is read from the "keys" field as a comma-separated list
	APIKeys string `mapstructure:"apiKeys"`
	// GeminiKey is read from the "api_key" field
	GeminiKey string `mapstructure:"geminiKey"`
	// RedisPassword is read from the "password" field
	RedisPassword string `mapstructure:"redisPassword"`
	// TLSCerts is read from the "cert", "key" and "ca" fields
	TLSCerts string `mapstructure:"tlsCerts"`
}

// secretReader is the part of the Vault logical API used here
type secretReader interface {
	Read(path string) (*api.Secret, error)
}

// VaultClient reads KVv2 secrets
type VaultClient struct {
	reader secretReader
	logger *errors.Logger
}

// VaultSecret is the payload and version of one KVv2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault and verifies it is reachable
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiConfig.Address, err)
	}
	logger.Info("Connected to Vault",
		"address", apiConfig.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return newVaultClientWithReader(client.Logical(), logger), nil
}

func newVaultClientWithReader(reader secretReader, logger *errors.Logger) *VaultClient {
	return &VaultClient{reader: reader, logger: logger}
}

// resolveVaultToken prefers the inline token and falls back to the token file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads a secret from a KVv2 mount
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts the numeric encodings Vault responses use for version
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret reads one string field of a secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	vc.logger.Debug("String secret retrieved from Vault", "path", path, "key", key, "masked_value", maskSecret(str))
	return str, nil
}

// GetStringSliceSecret reads a comma-separated string field as a list
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

func maskSecret(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case len(s) > 0:
		return "****"
	default:
		return ""
	}
}

// ApplyVaultSecrets loads configured secrets from Vault into cfg. It is a
// no-op when Vault is disabled.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeSecretLoadFailed, "failed to initialize vault client", err)
	}
	return applySecrets(client, cfg, logger)
}

func applySecrets(client *VaultClient, cfg *Config, logger *errors.Logger) error {
	secrets := cfg.Vault.Secrets

	if secrets.APIKeys != "" {
		keys, err := client.GetStringSliceSecret(secrets.APIKeys, "keys")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretLoadFailed, "failed to load API keys from vault", err)
		}
		if len(keys) > 0 {
			cfg.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			logger.Warn("No API keys found in Vault", "path", secrets.APIKeys)
		}
	}

	if secrets.GeminiKey != "" {
		key, err := client.GetStringSecret(secrets.GeminiKey, "api_key")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretLoadFailed, "failed to load Gemini API key from vault", err)
		}
		if key != "" {
			applyGeminiKeyToConfig(cfg, key)
			logger.Info("Gemini API key loaded from Vault")
		}
	}

	if secrets.RedisPassword != "" {
		password, err := client.GetStringSecret(secrets.RedisPassword, "password")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretLoadFailed, "failed to load Redis password from vault", err)
		}
		cfg.Storage.Redis.Password = password
	}

	if secrets.TLSCerts != "" {
		tlsData, err := client.GetSecretV2(secrets.TLSCerts)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretLoadFailed, "failed to load TLS certificates from vault", err)
		}
		if err := rejectTLSFileFields(tlsData); err != nil {
			return errors.NewConfigError(errors.ErrCodeSecretLoadFailed, "invalid TLS secret in vault", err)
		}
		loaded := loadTLSCertificateContent(cfg, tlsData)
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}

	return nil
}

// applyGeminiKeyToConfig sets the global key and fills operations that have none
func applyGeminiKeyToConfig(cfg *Config, geminiKey string) {
	cfg.AI.APIKey = geminiKey
	for _, op := range cfg.operationConfigs() {
		if op.APIKey == "" {
			op.APIKey = geminiKey
		}
	}
}

// loadTLSCertificateContent copies PEM content into the TLS config and
// returns how many fields were set
func loadTLSCertificateContent(cfg *Config, tlsData *VaultSecret) int {
	targets := []struct {
		key    string
		target *string
	}{
		{"cert", &cfg.Server.TLS.CertContent},
		{"key", &cfg.Server.TLS.KeyContent},
		{"ca", &cfg.Server.TLS.CAContent},
	}

	count := 0
	for _, t := range targets {
		if content, ok := tlsData.Data[t.key].(string); ok && content != "" {
			*t.target = content
			count++
		}
	}
	return count
}

// rejectTLSFileFields refuses file path fields; Vault must hold PEM content
func rejectTLSFileFields(tlsData *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, ok := tlsData.Data[field]; ok {
			return fmt.Errorf("'%s' field is not supported, store PEM content in '%s' instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}
	return nil
}
