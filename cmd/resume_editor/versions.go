package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/types"
)

var versionsJSON bool

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Print the persisted version tree",
	RunE:  runVersions,
}

func init() {
	versionsCmd.Flags().BoolVar(&versionsJSON, "json", false, "Print version summaries as JSON")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	store, err := openPersistence(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.close()

	return listVersions(cmd.Context(), cmd.OutOrStdout(), store.versions, versionsJSON)
}

func listVersions(ctx context.Context, out io.Writer, vs editor.VersionStore, asJSON bool) error {
	list, err := vs.LoadVersions(ctx)
	if err != nil {
		return err
	}
	if !asJSON {
		observability.NewPrinter(out).PrintVersionTree(list, "")
		return nil
	}

	summaries := make([]types.VersionSummary, 0, len(list))
	for _, v := range list {
		summaries = append(summaries, v.Summary())
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
