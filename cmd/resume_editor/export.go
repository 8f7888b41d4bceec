package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/autosave"
	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/types"
)

var (
	exportOut     string
	exportSummary bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the persisted document",
	Long:  "Load the last autosaved document from storage and print it as JSON or as a summary.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write JSON to this file instead of stdout")
	exportCmd.Flags().BoolVar(&exportSummary, "summary", false, "Print a human-readable summary instead of JSON")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	store, err := openPersistence(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.close()

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}
	return exportDocument(cmd.Context(), out, store.documents, exportSummary)
}

func exportDocument(ctx context.Context, out io.Writer, p autosave.Persister, summary bool) error {
	doc, err := loadStoredDocument(ctx, p)
	if err != nil {
		return err
	}

	if summary {
		observability.NewPrinter(out).PrintDocument(doc)
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// loadStoredDocument reads the autosaved document. Unlike startup seeding, a missing or
// invalid record is an error here.
func loadStoredDocument(ctx context.Context, p autosave.Persister) (types.Document, error) {
	data, err := p.Load(ctx)
	if err != nil {
		return types.Document{}, err
	}
	if data == nil {
		return types.Document{}, fmt.Errorf("no document has been saved yet")
	}
	doc, err := schemas.DecodeDocument(data)
	if err != nil {
		return types.Document{}, fmt.Errorf("stored document is invalid: %w", err)
	}
	return doc, nil
}
