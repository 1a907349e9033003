package cli

import (
	"context"
	"fmt"

	"coverletter/internal/ai"
	"coverletter/internal/common"

	"github.com/spf13/cobra"
)

var lettersCmd = &cobra.Command{
	Use:   "letters",
	Short: "Manage saved cover letters",
	Long: `List, show and delete saved cover letters. Letters are kept in the
configured storage backend (file, redis or memory), newest first.`,
}

var lettersConfig common.CommandConfig

var lettersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved letters, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLetters(cmd, func(ctx context.Context, rt *runtime) (any, error) {
			return rt.letters.List(ctx)
		})
	},
}

var lettersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved letter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLetters(cmd, func(ctx context.Context, rt *runtime) (any, error) {
			letter, err := rt.letters.Get(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return *letter, nil
		})
	},
}

var lettersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved letter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := getLoggerFromContext(ctx)

		rt, err := newRuntime(ctx, getConfigFromContext(ctx), logger, false)
		if err != nil {
			return err
		}
		defer rt.close(logger)

		if err := rt.letters.Delete(ctx, args[0]); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return err
	},
}

func init() {
	addOutputFlags(lettersListCmd, &lettersConfig)
	addOutputFlags(lettersShowCmd, &lettersConfig)

	lettersCmd.AddCommand(lettersListCmd)
	lettersCmd.AddCommand(lettersShowCmd)
	lettersCmd.AddCommand(lettersDeleteCmd)
}

// runLetters opens the store without model access, runs op and prints the result
func runLetters(cmd *cobra.Command, op func(context.Context, *runtime) (any, error)) error {
	if err := resolveOutputFormat(cmd, &lettersConfig); err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := getLoggerFromContext(ctx)

	rt, err := newRuntime(ctx, getConfigFromContext(ctx), logger, false)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	run := func(ctx context.Context, _ struct{}) (any, *ai.TokenUsage, error) {
		result, err := op(ctx, rt)
		return result, nil, err
	}
	return common.RunCommand(ctx, logger, outputHandler(cmd), lettersConfig, struct{}{}, run, nil)
}
