package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled", "":
		return nil
	case "server":
		if err := requireCertAndKey(tls, "server mode"); err != nil {
			return err
		}
	case "mutual":
		if err := requireCertAndKey(tls, "mutual mode"); err != nil {
			return err
		}
		if err := exclusiveSource("caFile", tls.CAFile, "caContent", tls.CAContent, true); err != nil {
			return fmt.Errorf("CA certificate for mutual TLS: %w", err)
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

func requireCertAndKey(tls TLSConfig, mode string) error {
	if err := exclusiveSource("certFile", tls.CertFile, "certContent", tls.CertContent, true); err != nil {
		return fmt.Errorf("TLS certificate for %s: %w", mode, err)
	}
	if err := exclusiveSource("keyFile", tls.KeyFile, "keyContent", tls.KeyContent, true); err != nil {
		return fmt.Errorf("TLS key for %s: %w", mode, err)
	}
	return nil
}

// exclusiveSource checks that at most one of a file/content pair is set,
// and exactly one when required
func exclusiveSource(fileKey, file, contentKey, content string, required bool) error {
	if file != "" && content != "" {
		return fmt.Errorf("cannot specify both %s and %s - choose one", fileKey, contentKey)
	}
	if required && file == "" && content == "" {
		return fmt.Errorf("provide either %s or %s", fileKey, contentKey)
	}
	return nil
}
