package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/schemas"
)

var validateSummary bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a document file before importing it",
	Long:  "Validate a serialized document against the document schema and the layout and id rules an import enforces.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateFile(cmd.OutOrStdout(), args[0], validateSummary)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateSummary, "summary", false, "Print a summary of the document when valid")
	rootCmd.AddCommand(validateCmd)
}

func validateFile(out io.Writer, path string, summary bool) error {
	if err := schemas.ValidateFile(schemas.DocumentSchema, path); err != nil {
		fmt.Fprintf(out, "Validation failed:\n%v\n", err)
		return fmt.Errorf("%s is not a valid document", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := schemas.DecodeDocument(data)
	if err != nil {
		fmt.Fprintf(out, "Validation failed:\n%v\n", err)
		return fmt.Errorf("%s is not a valid document", path)
	}

	fmt.Fprintln(out, "Validation passed")
	if summary {
		observability.NewPrinter(out).PrintDocument(doc)
	}
	return nil
}
