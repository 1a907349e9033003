package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"coverletter/internal/ai"
	"coverletter/internal/common"
	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/letters"
	"coverletter/internal/store"
	"coverletter/internal/types"

	"github.com/spf13/cobra"
)

// runtime is what a command needs to reach the letter operations
type runtime struct {
	letters *letters.Service
	// writer is nil unless the command asked for model access
	writer *ai.Writer
	closers []io.Closer
}

// newRuntime opens the configured store and, when withWriter is set, the
// Gemini writer. Callers must call close.
func newRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger, withWriter bool) (*runtime, error) {
	st, err := store.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	rt := &runtime{}
	if closer, ok := st.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	var writer letters.LetterWriter
	if withWriter {
		w, err := ai.NewWriterFromConfig(cfg, logger)
		if err != nil {
			rt.close(logger)
			return nil, err
		}
		rt.writer = w
		rt.closers = append(rt.closers, w)
		writer = w
	}

	rt.letters = letters.NewService(writer, st, defaultMode(cfg), logger)
	return rt, nil
}

func (rt *runtime) close(logger *errors.Logger) {
	for _, closer := range rt.closers {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
}

// defaultMode reads ai.mode; Validate has already rejected unknown values
func defaultMode(cfg *config.Config) types.GenerationMode {
	if mode, ok := types.ParseGenerationMode(strings.ToLower(cfg.AI.Mode)); ok {
		return mode
	}
	return types.ModeStructured
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutputFormat applies the default format and validates it
func resolveOutputFormat(cmd *cobra.Command, target *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if target.OutputFormat == "" {
		target.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
}

// outputHandler prints to the command's output stream
func outputHandler(cmd *cobra.Command) *common.OutputHandler {
	return common.NewOutputHandlerWithWriter(getLoggerFromContext(cmd.Context()), cmd.OutOrStdout())
}

// readJobDescription returns the --job text or the --job-file content
func readJobDescription(fp *common.FileProcessor, text, file string) (string, error) {
	if file == "" {
		return text, nil
	}
	content, err := fp.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return content, nil
}
