package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/junes231/funnel-editor/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "funnelctl",
		Short: "funnelctl - offline tooling for the funnel editor",
		Long: `funnelctl validates question import files, lists the built-in
templates and seeds demo funnels into MongoDB.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.TemplatesCmd())
	rootCmd.AddCommand(cli.SeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
