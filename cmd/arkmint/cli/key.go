package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arkmint/arkmint/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys that authorize minting and updating arks.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		naan   int64
		name   string
		legacy bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key for a naan",
		Long: `Generate a new API key bound to a naming authority. The plaintext key is
shown once and cannot be retrieved again; only its hash is stored.`,
		Example: `  arkmint key create --naan 12345 --name "ingest pipeline"
  arkmint key create --naan 12345 --legacy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(naan, name, legacy)
		},
	}

	cmd.Flags().Int64Var(&naan, "naan", 0, "Naming authority number the key mints under (required)")
	cmd.Flags().StringVar(&name, "name", "", "Key name, unique among the naan's active keys")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Issue a raw legacy token instead of a hashed key")
	cmd.MarkFlagRequired("naan")

	return cmd
}

func runKeyCreate(naan int64, name string, legacy bool) error {
	if !legacy && name == "" {
		return fmt.Errorf("--name is required (legacy keys are the only unnamed kind)")
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	authSvc := service.NewAuthService(st)

	var plain string
	if legacy {
		plain, err = authSvc.IssueLegacyKey(ctx, naan)
	} else {
		plain, err = authSvc.IssueKey(ctx, naan, name)
	}
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}

	fmt.Println("API key created:")
	fmt.Println()
	fmt.Printf("  Key:  %s\n", plain)
	fmt.Printf("  Naan: %d\n", naan)
	if name != "" {
		fmt.Printf("  Name: %s\n", name)
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	type keyRow struct {
		Prefix string `json:"prefix"`
		Naan   int64  `json:"naan"`
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}

	rows := make([]keyRow, len(keys))
	for i, k := range keys {
		rows[i] = keyRow{
			Prefix: k.KeyPrefix,
			Naan:   k.Naan,
			Name:   k.Name,
			Active: k.IsActive,
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No API keys configured. Use 'arkmint key create' to create one.")
		return nil
	}

	fmt.Printf("%-10s %-10s %-28s %-8s\n", "PREFIX", "NAAN", "NAME", "ACTIVE")
	fmt.Printf("%-10s %-10s %-28s %-8s\n", "------", "----", "----", "------")
	for _, k := range rows {
		active := "yes"
		if !k.Active {
			active = "no"
		}
		fmt.Printf("%-10s %-10d %-28s %-8s\n", k.Prefix, k.Naan, k.Name, active)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its prefix",
		Long: `Deactivate an API key. The key row is kept for audit; its name becomes
available for a future key under the same naan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}

	return cmd
}

func runKeyRevoke(prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.RevokeAPIKeyByPrefix(context.Background(), prefix); err != nil {
		return fmt.Errorf("revoke api key %q: %w", prefix, err)
	}

	fmt.Printf("Revoked API key with prefix %q\n", prefix)
	return nil
}
