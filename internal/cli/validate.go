// Package cli implements the funnelctl subcommands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/junes231/funnel-editor/internal/importer"
	"github.com/junes231/funnel-editor/internal/model"
)

func okMark() string   { return color.New(color.FgGreen).Sprint("✓") }
func failMark() string { return color.New(color.FgRed).Sprint("✗") }

// ValidateCmd runs the question importer against a local file
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a question import file without uploading it",
		Long: `Runs the same normalizer the API uses on a JSON (or YAML) question list
and prints the normalized questions. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			questions, err := parseQuestions(args[0], data)
			out := cmd.OutOrStdout()
			if err != nil {
				var formatErr *importer.FormatError
				if errors.As(err, &formatErr) && formatErr.Index >= 0 {
					fmt.Fprintf(out, "%s question %d: %s\n", failMark(), formatErr.Index+1, formatErr.Reason)
				} else {
					fmt.Fprintf(out, "%s %v\n", failMark(), err)
				}
				return fmt.Errorf("%s is not a valid question list", args[0])
			}

			printQuestions(out, questions)
			fmt.Fprintf(out, "%s %d questions ready to import\n", okMark(), len(questions))
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func parseQuestions(name string, data []byte) ([]model.Question, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return importer.Normalize(raw)
	default:
		return importer.Parse(data)
	}
}

func printQuestions(w io.Writer, questions []model.Question) {
	bold := color.New(color.Bold)
	for _, q := range questions {
		fmt.Fprintf(w, "%s  %s (%s)\n", bold.Sprint(q.ID), q.Title, q.Type)
		for _, a := range q.SortedAnswers() {
			line := fmt.Sprintf("    %-14s %s", a.ID, a.Text)
			if a.ResultScore != nil {
				line += fmt.Sprintf("  score=%g", *a.ResultScore)
			}
			if a.NextStepID != "" {
				line += "  -> " + a.NextStepID
			}
			fmt.Fprintln(w, line)
		}
	}
}
