package common

import (
	"context"

	"coverletter/internal/ai"
	"coverletter/internal/errors"
)

// LogDetailsFunc logs the start of an operation
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is any command operation that may report model token usage
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// RunCommand runs an operation on a prepared input, reports token usage and
// writes the formatted result. logDetails may be nil.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	output *OutputHandler,
	cmdConfig CommandConfig,
	input Input,
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, tokenUsage, err := operation(ctx, input)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		logger.Info("AI token usage",
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	return output.HandleOutput(result, cmdConfig)
}
