package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatgate/chatgate/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage chatgate configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default chatgate.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefaultFile(path, force); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			fmt.Println("Set the provider and an operator password hash, then run 'chatgate serve'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", "chatgate.yaml", "Path of the file to write")

	return cmd
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}
}

func runConfigShow() error {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("# Config file: %s\n", configFile)
	} else {
		fmt.Println("# Config file: (none found, using defaults and environment)")
	}

	// Load applies defaults and env bindings before validating, so the
	// settings below are complete even when validation fails.
	if _, err := config.Load(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: configuration is invalid:\n%v\n\n", err)
	}

	out, err := config.RenderSettings(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("render settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
