package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"coverletter/internal/observability"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	switch s.TLSConfig.Mode {
	case "server", "mutual":
		if err := s.setupCertReloader(om); err != nil {
			return err
		}
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		return nil
	case "disabled", "":
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}
}

// setupCertReloader enables hot reload for file based certificates
func (s *Server) setupCertReloader(om *observability.ObservabilityManager) error {
	if !s.TLSConfig.AutoReload.Enabled || s.TLSConfig.CertContent != "" || s.TLSConfig.CertFile == "" {
		return nil
	}

	reloader, err := newCertReloader(s.TLSConfig.CertFile, s.TLSConfig.KeyFile, s.Logger)
	if err != nil {
		return err
	}

	metrics := om.GetMetrics()
	err = reloader.Watch(s.TLSConfig.AutoReload.DebounceDelay, func(success bool, _ error) {
		metrics.RecordBusinessMetric(context.Background(), observability.MetricCertReload, success, om)
	})
	if err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}

	s.certs = reloader
	return nil
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if s.certs != nil {
		tlsConfig.GetCertificate = s.certs.GetCertificate
	} else {
		cert, err := s.loadServerCertificate()
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if s.TLSConfig.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if s.TLSConfig.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return tlsConfig, nil
	}

	caCertPool, err := s.loadCACertificatePool()
	if err != nil {
		return nil, err
	}
	tlsConfig.ClientCAs = caCertPool
	tlsConfig.ClientAuth = s.getClientAuthPolicy()

	return tlsConfig, nil
}

// loadServerCertificate loads the server certificate from content or files
func (s *Server) loadServerCertificate() (tls.Certificate, error) {
	if s.TLSConfig.CertContent != "" && s.TLSConfig.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(s.TLSConfig.CertContent), []byte(s.TLSConfig.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if s.TLSConfig.CertFile != "" && s.TLSConfig.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// loadCACertificatePool loads the CA pool used to verify client certificates
func (s *Server) loadCACertificatePool() (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case s.TLSConfig.CAContent != "":
		caCert = []byte(s.TLSConfig.CAContent)
	case s.TLSConfig.CAFile != "":
		data, err := os.ReadFile(s.TLSConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

// getClientAuthPolicy returns the appropriate client authentication policy
func (s *Server) getClientAuthPolicy() tls.ClientAuthType {
	switch s.TLSConfig.ClientAuthPolicy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
