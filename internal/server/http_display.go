package server

import (
	"fmt"
	"io"
	"os"
)

// displayServerInfo prints the endpoints and protection settings at startup
func (s *Server) displayServerInfo(tlsEnabled bool) {
	s.writeServerInfo(os.Stdout, tlsEnabled)
}

func (s *Server) writeServerInfo(w io.Writer, tlsEnabled bool) {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	fmt.Fprintf(w, "Listening on %s://%s:%s (TLS mode: %s)\n", scheme, s.Host, s.Port, s.tlsModeLabel())

	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET    /health        - Health check")
	fmt.Fprintln(w, "  GET    /stats         - Server statistics")
	fmt.Fprintln(w, "  POST   /generate      - Generate a cover letter")
	fmt.Fprintln(w, "  POST   /fit-score     - Score skills against a job description")
	fmt.Fprintln(w, "  GET    /letters       - List saved letters")
	fmt.Fprintln(w, "  POST   /letters       - Save a letter")
	fmt.Fprintln(w, "  GET    /letters/{id}  - Show a saved letter")
	fmt.Fprintln(w, "  DELETE /letters/{id}  - Delete a saved letter")

	if len(s.APIKeys) > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(w, "Request size limit: DISABLED")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	} else {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
	}

	if s.certs != nil {
		fmt.Fprintln(w, "TLS auto-reload: ENABLED")
	}
}

func (s *Server) tlsModeLabel() string {
	switch s.TLSConfig.Mode {
	case "server":
		return "server-only"
	case "mutual":
		return "mutual"
	default:
		return "disabled"
	}
}
