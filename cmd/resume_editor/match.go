package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/autosave"
	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/logger"
	"github.com/jonathan/resume-editor/internal/matching"
	"github.com/jonathan/resume-editor/internal/observability"
)

var matchJSON bool

var matchCmd = &cobra.Command{
	Use:   "match [job-description-file]",
	Short: "Compare the persisted document with a job description",
	Long: "Analyze how well the last autosaved document fits a job description. The description is read " +
		"from the given file, or from stdin when the file is omitted or \"-\". Plain text and pasted HTML " +
		"are both accepted. Without GEMINI_API_KEY a keyword analysis is used.",
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print the analysis as JSON")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	jobDescription, err := readJobDescription(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	store, err := openPersistence(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.close()

	var analyzer matching.Analyzer = matching.NewKeywordAnalyzer()
	if cfg.APIKey != "" {
		client, err := llm.NewClient(cmd.Context(), llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close LLM client", zap.Error(err))
			}
		}()
		analyzer = matching.NewLLMAnalyzer(client, log)
	}

	return matchDocument(cmd.Context(), cmd.OutOrStdout(), store.documents, analyzer, jobDescription, matchJSON)
}

func readJobDescription(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read job description from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return string(data), nil
}

func matchDocument(ctx context.Context, out io.Writer, p autosave.Persister, analyzer matching.Analyzer, jobDescription string, asJSON bool) error {
	doc, err := loadStoredDocument(ctx, p)
	if err != nil {
		return err
	}
	session := editor.NewSession(doc, editor.WithAnalyzer(analyzer))
	analysis, err := session.AnalyzeMatch(ctx, jobDescription)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	observability.NewPrinter(out).PrintMatchAnalysis(analysis)
	return nil
}
