package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coverletter/internal/common"
	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/store"
	"coverletter/internal/types"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

func testConfig(dir string) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			LogLevel:         "debug",
			DefaultFormat:    "text",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1 << 20,
		},
		Storage: config.StorageConfig{
			Backend: "file",
			File:    config.FileStorageConfig{Dir: dir},
		},
	}
}

// executeCommand runs the root command with args. Cobra keeps the first
// context it sees on each subcommand, so every command is reset here.
func executeCommand(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	ctx := context.WithValue(context.Background(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, testLogger)
	setContextRecursive(rootCmd, ctx)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func setContextRecursive(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, child := range cmd.Commands() {
		setContextRecursive(child, ctx)
	}
}

func seedLetters(t *testing.T, dir string, letters ...types.SavedLetter) {
	t.Helper()
	require.NoError(t, store.NewFileStore(dir).Save(context.Background(), letters))
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, testConfig(t.TempDir()), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "coverletter version dev")
	assert.Contains(t, out, "Git commit: unknown")
}

func TestScoreCommand(t *testing.T) {
	jd := filepath.Join(t.TempDir(), "jd.txt")
	require.NoError(t, os.WriteFile(jd, []byte("We need React and TypeScript."), 0o600))

	out, err := executeCommand(t, testConfig(t.TempDir()),
		"score", "--skills", "React, TypeScript, Python", "--job-file", jd, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 67/100")
	assert.Contains(t, out, "Matched: react, typescript")
}

func TestScoreCommandEmptySkillsScoresZero(t *testing.T) {
	jd := filepath.Join(t.TempDir(), "jd.txt")
	require.NoError(t, os.WriteFile(jd, []byte("We need Go."), 0o600))

	out, err := executeCommand(t, testConfig(t.TempDir()),
		"score", "--skills", "", "--job-file", jd, "--format", "json")
	require.NoError(t, err)

	var resp types.FitScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 0, resp.FitScore)
	assert.Equal(t, []string{}, resp.CandidateSkills)
	assert.Equal(t, []string{}, resp.MatchedSkills)
}

func TestScoreCommandRejectsUnknownFormat(t *testing.T) {
	_, err := executeCommand(t, testConfig(t.TempDir()),
		"score", "--skills", "Go", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format 'xml'")
}

func TestLettersCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	seedLetters(t, dir,
		types.SavedLetter{ID: "b", Title: "Beta - Dev", Content: "Second", Company: "Beta", Position: "Dev",
			CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Analysis: types.Analysis{FitScore: 40}},
		types.SavedLetter{ID: "a", Title: "Acme - Engineer", Content: "Dear team,", Company: "Acme", Position: "Engineer",
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Analysis: types.Analysis{FitScore: 80}},
	)

	out, err := executeCommand(t, cfg, "letters", "list", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "b  40   2025-02-01  Beta - Dev\na  80   2025-01-01  Acme - Engineer\n", out)

	out, err = executeCommand(t, cfg, "letters", "show", "a", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Acme - Engineer")
	assert.Contains(t, out, "Dear team,")

	out, err = executeCommand(t, cfg, "letters", "delete", "a")
	require.NoError(t, err)
	assert.Equal(t, "Deleted a\n", out)

	_, err = executeCommand(t, cfg, "letters", "show", "a", "--format", "text")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	remaining, err := store.NewFileStore(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].ID)
}

func TestGenerateCommandRequiresAPIKey(t *testing.T) {
	_, err := executeCommand(t, testConfig(t.TempDir()), "generate", "--format", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create cover letter service")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestGenerateCommandRejectsUnknownMode(t *testing.T) {
	_, err := executeCommand(t, testConfig(t.TempDir()), "generate", "--format", "text", "--mode", "poem")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported generation mode 'poem'")
	generateFlags.mode = ""
}

func TestBuildGenerateRequest(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(profile, []byte(`{
  "name": "Ada Lovelace",
  "skills": "React, TypeScript",
  "experience": "Five years",
  "company": "Old Co",
  "position": "Engineer"
}`), 0o600))
	jd := filepath.Join(dir, "jd.txt")
	require.NoError(t, os.WriteFile(jd, []byte("We need React."), 0o600))

	cmd := &cobra.Command{}
	for _, f := range profileFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().StringVar(&toneFlag, "tone", "", "")
	cmd.Flags().StringVar(&industryFlag, "industry", "", "")
	require.NoError(t, cmd.Flags().Set("company", "Analytical Engines"))
	require.NoError(t, cmd.Flags().Set("tone", "concise"))

	saved := generateFlags
	t.Cleanup(func() { generateFlags = saved })
	generateFlags.profile = profile
	generateFlags.jobFile = jd
	generateFlags.mode = "freeform"
	generateFlags.save = true

	req, err := buildGenerateRequest(cmd, common.NewFileProcessor(testLogger, 0))
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", req.Name)
	assert.Equal(t, "Analytical Engines", req.Company, "flags override the profile")
	assert.Equal(t, "Engineer", req.Position)
	assert.Equal(t, "We need React.", req.JobDescription)
	assert.Equal(t, types.ToneConcise, req.Tone)
	assert.Equal(t, types.Industry(""), req.Industry)
	assert.Equal(t, "freeform", req.Mode)
	assert.True(t, req.Save)

	generateFlags.profile = filepath.Join(dir, "missing.json")
	_, err = buildGenerateRequest(cmd, common.NewFileProcessor(testLogger, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read profile")
}

func TestDefaultMode(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, types.ModeStructured, defaultMode(cfg))

	cfg.AI.Mode = "Freeform"
	assert.Equal(t, types.ModeFreeform, defaultMode(cfg))
}

func TestApplyServeOverrides(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(serveCmd.Flags())
	require.NoError(t, cmd.Flags().Set("port", "9090"))
	require.NoError(t, cmd.Flags().Set("tls-mode", "server"))

	cfg := config.ServerConfig{Host: "localhost", Port: "8080"}
	applyServeOverrides(cmd, &cfg)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "server", cfg.TLS.Mode)
}
