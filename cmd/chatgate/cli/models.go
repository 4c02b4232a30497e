package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/model"
	"github.com/chatgate/chatgate/internal/service"
)

func newModelsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models served by /api/models",
		Long:  "Query the upstream provider for its models and print them merged with the fallback list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runModels(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	_, lister := newProvider(cfg.Provider, logger)
	catalog := service.NewModelCatalog(lister, cfg.Provider.FallbackModels, cfg.Provider.ModelsTimeout, logger)

	models, err := catalog.List(context.Background())
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(model.ModelList{Models: models})
	}
	for _, m := range models {
		fmt.Println(m)
	}
	return nil
}
