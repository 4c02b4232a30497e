package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/service"
	"github.com/chatgate/chatgate/internal/store"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys callers present to /api/chat.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once and cannot be retrieved again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate()
		},
	}
}

func runKeyCreate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare credential store: %w", err)
	}

	logger := config.NewLogger(cfg.Logging, os.Stderr)
	rawKey, err := service.NewAuthService(st, cfg.Auth.KeyPrefix, logger).IssueKey(ctx)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:   %s\n", rawKey)
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issued API keys, newest first",
		Long:    "List issued keys by id, creation time and hash fingerprint. Raw keys are never stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of keys to show")

	return cmd
}

func runKeyList(jsonOutput bool, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	keys, err := st.ListKeys(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	type keyRow struct {
		ID          int64  `json:"id"`
		Fingerprint string `json:"fingerprint"`
		CreatedAt   string `json:"created_at"`
	}

	rows := make([]keyRow, len(keys))
	for i, k := range keys {
		rows[i] = keyRow{
			ID:          k.ID,
			Fingerprint: k.Fingerprint(),
			CreatedAt:   k.CreatedAt.UTC().Format("2006-01-02 15:04:05Z"),
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No API keys issued. Use 'chatgate key create' to create one.")
		return nil
	}

	fmt.Printf("%-8s %-14s %-22s\n", "ID", "FINGERPRINT", "CREATED")
	fmt.Printf("%-8s %-14s %-22s\n", "--", "-----------", "-------")
	for _, k := range rows {
		fmt.Printf("%-8d %-14s %-22s\n", k.ID, k.Fingerprint, k.CreatedAt)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key by its id",
		Long:  "Delete an API key so that further requests using it are rejected with 403.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id %q (see 'chatgate key list')", args[0])
			}
			return runKeyRevoke(id)
		},
	}
}

func runKeyRevoke(id int64) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	key, err := st.GetKey(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no API key with id %d", id)
	}
	if err != nil {
		return fmt.Errorf("look up api key: %w", err)
	}
	if err := st.DeleteKey(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key %d (%s)\n", id, key.Fingerprint())
	return nil
}
