package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/junes231/funnel-editor/internal/templates"
)

// TemplatesCmd lists the built-in templates
func TemplatesCmd() *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List built-in funnel templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := templates.NewLoader()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if show != "" {
				tmpl := loader.Get(show)
				if tmpl == nil {
					return fmt.Errorf("unknown template %q", show)
				}
				fmt.Fprintf(out, "%s - %s\n\n", tmpl.Name, tmpl.Title)
				printQuestions(out, tmpl.Questions)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tQUESTIONS\tTITLE")
			for _, s := range loader.List() {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, s.QuestionCount, s.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "print the questions of one template")
	return cmd
}
