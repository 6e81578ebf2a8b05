package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/app"
	"github.com/junes231/funnel-editor/internal/config"
	"github.com/junes231/funnel-editor/internal/logging"
	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/service"
	"github.com/junes231/funnel-editor/internal/templates"
)

// SeedCmd inserts a published demo funnel built from a template
func SeedCmd() *cobra.Command {
	var (
		templateName string
		name         string
		owner        string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a published demo funnel into MongoDB",
		Long: `Builds a funnel from a built-in template and stores it for the configured
editor account (EDITOR_USERNAME). Connection settings come from the same
environment variables as the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()

			loader, err := templates.NewLoader()
			if err != nil {
				return err
			}

			if owner == "" {
				owner = service.EditorIDFor(cfg.Auth.Username)
			}
			funnel, err := demoFunnel(loader, templateName, name)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stores, err := app.Connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer stores.Close(context.Background())

			svc := service.NewFunnelService(stores.FunnelRepo, stores.LeadRepo, stores.FunnelCache, stores.OutcomeStats, loader, logger)
			id, err := svc.Create(ctx, owner, funnel)
			if err != nil {
				return err
			}

			logger.Debug("seeded funnel", zap.String("funnelId", id))
			fmt.Fprintf(cmd.OutOrStdout(), "%s created funnel %s (%s) for %s\n",
				okMark(), color.New(color.Bold).Sprint(funnel.Name), id, owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&templateName, "template", "lead-magnet", "template to build the funnel from")
	cmd.Flags().StringVar(&name, "name", "", "funnel name (defaults to the template title)")
	cmd.Flags().StringVar(&owner, "owner", "", "owner editor id (defaults to the configured editor)")
	return cmd
}

func demoFunnel(loader *templates.Loader, templateName, name string) (*model.Funnel, error) {
	tmpl := loader.Get(templateName)
	if tmpl == nil {
		return nil, fmt.Errorf("unknown template %q", templateName)
	}

	funnel := &model.Funnel{
		Name:     name,
		Settings: model.FunnelSettings{Published: true},
		Styling: model.Styling{
			PrimaryColor:    "#4f46e5",
			ButtonColor:     "#4f46e5",
			BackgroundColor: "#ffffff",
			TextColor:       "#111827",
			FontFamily:      "Inter, sans-serif",
		},
	}
	tmpl.Apply(funnel)
	return funnel, nil
}
