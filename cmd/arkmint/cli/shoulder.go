package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/store"
)

func newShoulderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shoulder",
		Short: "Manage namespace prefixes (shoulders)",
		Long:  "Register and inspect the shoulders arks are minted under.",
	}

	cmd.AddCommand(newShoulderAddCmd())
	cmd.AddCommand(newShoulderListCmd())

	return cmd
}

// ---------- shoulder add ----------

func newShoulderAddCmd() *cobra.Command {
	var (
		naan        int64
		shoulder    string
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Register a shoulder under a naan",
		Example: `  arkmint shoulder add --naan 12345 --shoulder /x7 --name "Digitized maps"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShoulderAdd(naan, shoulder, name, description)
		},
	}

	cmd.Flags().Int64Var(&naan, "naan", 0, "Owning naming authority number (required)")
	cmd.Flags().StringVar(&shoulder, "shoulder", "", "Shoulder string, e.g. /x7 (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.MarkFlagRequired("naan")
	cmd.MarkFlagRequired("shoulder")

	return cmd
}

func runShoulderAdd(naan int64, shoulder, name, description string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if _, err := st.GetNaan(ctx, naan); err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("naan %d is not registered (run 'arkmint naan add' first)", naan)
		}
		return fmt.Errorf("look up naan: %w", err)
	}

	sh := &model.Shoulder{
		Naan:        naan,
		Shoulder:    shoulder,
		Name:        name,
		Description: description,
	}
	if err := st.CreateShoulder(ctx, sh); err != nil {
		if err == store.ErrDuplicate {
			return fmt.Errorf("shoulder %q already exists under naan %d", shoulder, naan)
		}
		return fmt.Errorf("create shoulder: %w", err)
	}

	fmt.Printf("Registered shoulder %d%s\n", naan, shoulder)
	return nil
}

// ---------- shoulder list ----------

func newShoulderListCmd() *cobra.Command {
	var (
		naan       int64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List shoulders under a naan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShoulderList(naan, jsonOutput)
		},
	}

	cmd.Flags().Int64Var(&naan, "naan", 0, "Naming authority number (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("naan")

	return cmd
}

func runShoulderList(naan int64, jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	shoulders, err := st.ListShoulders(context.Background(), naan)
	if err != nil {
		return fmt.Errorf("list shoulders: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shoulders)
	}

	if len(shoulders) == 0 {
		fmt.Printf("No shoulders registered under naan %d.\n", naan)
		return nil
	}

	fmt.Printf("%-12s %-28s %s\n", "SHOULDER", "NAME", "DESCRIPTION")
	fmt.Printf("%-12s %-28s %s\n", "--------", "----", "-----------")
	for _, sh := range shoulders {
		fmt.Printf("%-12s %-28s %s\n", sh.Shoulder, sh.Name, sh.Description)
	}

	return nil
}
