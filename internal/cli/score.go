package cli

import (
	"context"
	"fmt"

	"coverletter/internal/ai"
	"coverletter/internal/common"
	"coverletter/internal/letters"
	"coverletter/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score skills against a job description",
	Long: `Compute the keyword fit score of a comma-separated skills list against a
job description. The score is the percentage of skills that appear in the job
description. No model call is made and no API key is needed.`,
	Example: `  coverletter score --skills "React, TypeScript, Python" --job "We need React and TypeScript."
  coverletter score --skills "Go, SQL" --job-file jd.txt --format json`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &scoreConfig)
	},
	RunE: runScore,
}

var (
	scoreConfig common.CommandConfig
	scoreFlags  struct {
		skills  string
		job     string
		jobFile string
	}
)

func init() {
	addOutputFlags(scoreCmd, &scoreConfig)
	scoreCmd.Flags().StringVar(&scoreFlags.skills, "skills", "", "Comma-separated skills")
	scoreCmd.Flags().StringVar(&scoreFlags.job, "job", "", "Job description text")
	scoreCmd.Flags().StringVar(&scoreFlags.jobFile, "job-file", "", "File containing the job description")
	scoreCmd.MarkFlagsMutuallyExclusive("job", "job-file")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	jd, err := readJobDescription(common.NewFileProcessor(logger, cfg.App.MaxFileSize), scoreFlags.job, scoreFlags.jobFile)
	if err != nil {
		return err
	}

	// Scoring touches neither the model nor the saved letters
	svc := letters.NewService(nil, nil, defaultMode(cfg), logger)

	score := func(_ context.Context, req types.FitScoreRequest) (types.FitScoreResponse, *ai.TokenUsage, error) {
		resp, err := svc.Score(req)
		if err != nil {
			return types.FitScoreResponse{}, nil, err
		}
		return *resp, nil, nil
	}

	req := types.FitScoreRequest{Skills: scoreFlags.skills, JobDescription: jd}
	if err := common.RunCommand(ctx, logger, outputHandler(cmd), scoreConfig, req, score, nil); err != nil {
		return fmt.Errorf("failed to score skills: %w", err)
	}
	return nil
}
