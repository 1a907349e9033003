package common

import (
	"fmt"
	"slices"
	"strings"

	"coverletter/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateGenerationMode accepts an empty mode (use the configured default)
// or one of the known modes, case-insensitively
func ValidateGenerationMode(mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return nil
	}
	if _, ok := types.ParseGenerationMode(mode); ok {
		return nil
	}
	return fmt.Errorf("unsupported generation mode '%s'. Supported modes: [%s %s]",
		mode, types.ModeStructured, types.ModeFreeform)
}

// GenerationModes lists the modes offered for shell completion
func GenerationModes() []string {
	return []string{string(types.ModeStructured), string(types.ModeFreeform)}
}
