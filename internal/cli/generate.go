package cli

import (
	"context"
	"fmt"

	"coverletter/internal/ai"
	"coverletter/internal/common"
	"coverletter/internal/types"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a cover letter for a job description",
	Long: `Generate a cover letter tailored to a job description using Gemini.

The candidate profile comes from a JSON file (--profile) with the same fields
as the HTTP API, from individual flags, or both; flags override the profile.
The job description is given inline with --job or read from --job-file.

Structured mode (the default) asks for the letter and a fit analysis in one
JSON reply. Freeform mode asks for plain letter text and fetches one
improvement suggestion in parallel.`,
	Example: `  coverletter generate --profile me.json --job-file jd.txt
  coverletter generate --name "Ada Lovelace" --skills "React, TypeScript" \
    --experience "5 years" --company Acme --position "Frontend Engineer" \
    --job "We need React and TypeScript." --mode freeform --save`,
	Args:    cobra.NoArgs,
	PreRunE: preRunGenerate,
	RunE:    runGenerate,
}

var (
	generateConfig common.CommandConfig
	generateFlags  struct {
		profile string
		mode    string
		save    bool
		jobFile string
	}
	// profileFlags maps flag names to the request field they override
	profileFlags = []struct {
		name  string
		usage string
		field func(*types.CoverLetterRequest) *string
	}{
		{"name", "Candidate name", func(r *types.CoverLetterRequest) *string { return &r.Name }},
		{"email", "Candidate email", func(r *types.CoverLetterRequest) *string { return &r.Email }},
		{"phone", "Candidate phone", func(r *types.CoverLetterRequest) *string { return &r.Phone }},
		{"skills", "Comma-separated skills", func(r *types.CoverLetterRequest) *string { return &r.Skills }},
		{"experience", "Experience summary", func(r *types.CoverLetterRequest) *string { return &r.Experience }},
		{"achievements", "Notable achievements", func(r *types.CoverLetterRequest) *string { return &r.Achievements }},
		{"company", "Target company", func(r *types.CoverLetterRequest) *string { return &r.Company }},
		{"position", "Target position", func(r *types.CoverLetterRequest) *string { return &r.Position }},
		{"job", "Job description text", func(r *types.CoverLetterRequest) *string { return &r.JobDescription }},
		{"website", "Company website", func(r *types.CoverLetterRequest) *string { return &r.CompanyWebsite }},
	}
	toneFlag     string
	industryFlag string
)

func init() {
	addOutputFlags(generateCmd, &generateConfig)

	flags := generateCmd.Flags()
	flags.StringVar(&generateFlags.profile, "profile", "", "JSON file with the candidate profile and job fields")
	flags.StringVar(&generateFlags.mode, "mode", "", "Generation mode: structured or freeform (default from config)")
	flags.BoolVar(&generateFlags.save, "save", false, "Save the generated letter")
	flags.StringVar(&generateFlags.jobFile, "job-file", "", "File containing the job description")
	for _, f := range profileFlags {
		flags.String(f.name, "", f.usage)
	}
	flags.StringVar(&toneFlag, "tone", "", "Tone: formal, enthusiastic, concise, storytelling")
	flags.StringVar(&industryFlag, "industry", "", "Industry: tech, finance, creative, healthcare, general")

	generateCmd.MarkFlagsMutuallyExclusive("job", "job-file")

	_ = generateCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.GenerationModes(), cobra.ShellCompDirectiveNoFileComp
	})
}

func preRunGenerate(cmd *cobra.Command, args []string) error {
	if err := resolveOutputFormat(cmd, &generateConfig); err != nil {
		return err
	}
	return common.ValidateGenerationMode(generateFlags.mode)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	req, err := buildGenerateRequest(cmd, common.NewFileProcessor(logger, cfg.App.MaxFileSize))
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, logger, true)
	if err != nil {
		return fmt.Errorf("failed to create cover letter service: %w", err)
	}
	defer rt.close(logger)

	logDetails := func(req types.GenerateRequest, cmdCfg common.CommandConfig) {
		logger.Info("Starting cover letter generation",
			"company", req.Company,
			"position", req.Position,
			"mode", req.Mode,
			"job_chars", len(req.JobDescription),
			"save", req.Save,
			"output_format", cmdCfg.OutputFormat)
	}

	generate := func(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, *ai.TokenUsage, error) {
		resp, usage, err := rt.letters.Generate(ctx, req)
		if err != nil {
			return types.GenerateResponse{}, nil, err
		}
		return *resp, usage, nil
	}

	if err := common.RunCommand(ctx, logger, outputHandler(cmd), generateConfig, req, generate, logDetails); err != nil {
		return fmt.Errorf("failed to generate cover letter: %w", err)
	}
	logger.Info("Cover letter generation completed successfully")
	return nil
}

// buildGenerateRequest merges the profile file, the field flags and the job
// file into one request. Validation happens in the letter service.
func buildGenerateRequest(cmd *cobra.Command, fp *common.FileProcessor) (types.GenerateRequest, error) {
	var req types.GenerateRequest

	if generateFlags.profile != "" {
		if err := fp.ReadJSONFile(generateFlags.profile, &req.CoverLetterRequest); err != nil {
			return req, fmt.Errorf("failed to read profile: %w", err)
		}
	}

	flags := cmd.Flags()
	for _, f := range profileFlags {
		if flags.Changed(f.name) {
			value, _ := flags.GetString(f.name)
			*f.field(&req.CoverLetterRequest) = value
		}
	}
	if flags.Changed("tone") {
		req.Tone = types.Tone(toneFlag)
	}
	if flags.Changed("industry") {
		req.Industry = types.Industry(industryFlag)
	}

	if generateFlags.jobFile != "" {
		jd, err := readJobDescription(fp, "", generateFlags.jobFile)
		if err != nil {
			return req, err
		}
		req.JobDescription = jd
	}

	req.Mode = generateFlags.mode
	req.Save = generateFlags.save
	return req, nil
}
