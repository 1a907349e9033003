package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"coverletter/internal/errors"
)

// certReloader serves the server certificate and swaps it when the files
// on disk change
type certReloader struct {
	certFile string
	keyFile  string

	mu         sync.RWMutex
	cert       *tls.Certificate
	notAfter   time.Time
	reloads    int64
	failures   int64
	lastReload time.Time
	lastError  string

	watcher  *CertWatcher
	onReload func(success bool, err error)
	logger   *errors.Logger
}

// newCertReloader loads the initial key pair
func newCertReloader(certFile, keyFile string, logger *errors.Logger) (*certReloader, error) {
	c := &certReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *certReloader) load() error {
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}

	var notAfter time.Time
	if len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			notAfter = leaf.NotAfter
		}
	}

	c.mu.Lock()
	c.cert = &cert
	c.notAfter = notAfter
	c.mu.Unlock()
	return nil
}

// Reload reloads the key pair. On failure the previous certificate stays in use.
func (c *certReloader) Reload() error {
	err := c.load()

	c.mu.Lock()
	c.lastReload = time.Now()
	if err != nil {
		c.failures++
		c.lastError = err.Error()
	} else {
		c.reloads++
		c.lastError = ""
	}
	onReload := c.onReload
	c.mu.Unlock()

	if err != nil {
		c.logger.LogError(err, "Failed to reload TLS certificates", "cert_file", c.certFile)
	} else {
		c.logger.Info("TLS certificates reloaded", "cert_file", c.certFile)
	}
	if onReload != nil {
		onReload(err == nil, err)
	}
	return err
}

// GetCertificate implements tls.Config.GetCertificate
func (c *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert, nil
}

// Watch starts reloading on file changes
func (c *certReloader) Watch(debounce time.Duration, onReload func(success bool, err error)) error {
	c.mu.Lock()
	c.onReload = onReload
	c.mu.Unlock()

	c.watcher = NewCertWatcher([]string{c.certFile, c.keyFile}, debounce, func() { _ = c.Reload() }, c.logger)
	return c.watcher.Start()
}

// Stop stops watching
func (c *certReloader) Stop() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Stop()
}

// Status summarizes the served certificate for the health endpoint
func (c *certReloader) Status() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := map[string]any{
		"reload_count":   c.reloads,
		"failure_count":  c.failures,
		"watching":       c.watcher != nil && c.watcher.IsRunning(),
		"last_error":     c.lastError,
		"expires_at":     c.notAfter,
		"expires_in_hrs": int(time.Until(c.notAfter).Hours()),
	}
	if !c.lastReload.IsZero() {
		status["last_reload"] = c.lastReload
	}
	return status
}
