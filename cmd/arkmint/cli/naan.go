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

func newNaanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "naan",
		Aliases: []string{"authority"},
		Short:   "Manage naming authorities",
		Long:    "Register and inspect the naming authorities (NAANs) this instance mints for.",
	}

	cmd.AddCommand(newNaanAddCmd())
	cmd.AddCommand(newNaanListCmd())
	cmd.AddCommand(newNaanImportCmd())

	return cmd
}

// ---------- naan add ----------

func newNaanAddCmd() *cobra.Command {
	var (
		naan        int64
		name        string
		description string
		url         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a naming authority",
		Example: `  arkmint naan add --naan 12345 --name "Example Library" --url https://library.example.org
  arkmint naan add --naan 99999 --name "Test Authority" --description "local testing"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNaanAdd(naan, name, description, url)
		},
	}

	cmd.Flags().Int64Var(&naan, "naan", 0, "Authority number assigned by the ARK registry (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.Flags().StringVar(&url, "url", "", "Base resolution URL for the authority's own resolver")
	cmd.MarkFlagRequired("naan")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runNaanAdd(naan int64, name, description, url string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	n := &model.Naan{
		Naan:        naan,
		Name:        name,
		Description: description,
		URL:         url,
	}
	if err := st.CreateNaan(context.Background(), n); err != nil {
		if err == store.ErrDuplicate {
			return fmt.Errorf("naan %d is already registered", naan)
		}
		return fmt.Errorf("create naan: %w", err)
	}

	fmt.Printf("Registered naan %d (%s)\n", naan, name)
	return nil
}

// ---------- naan list ----------

func newNaanListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered naming authorities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNaanList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runNaanList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	naans, err := st.ListNaans(ctx)
	if err != nil {
		return fmt.Errorf("list naans: %w", err)
	}

	type naanRow struct {
		Naan int64  `json:"naan"`
		Name string `json:"name"`
		URL  string `json:"url"`
		Arks int64  `json:"arks"`
	}

	rows := make([]naanRow, len(naans))
	for i, n := range naans {
		count, err := st.CountArks(ctx, n.Naan)
		if err != nil {
			return fmt.Errorf("count arks for naan %d: %w", n.Naan, err)
		}
		rows[i] = naanRow{Naan: n.Naan, Name: n.Name, URL: n.URL, Arks: count}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No naans registered. Use 'arkmint naan add' to register one.")
		return nil
	}

	fmt.Printf("%-10s %-28s %-32s %-8s\n", "NAAN", "NAME", "URL", "ARKS")
	fmt.Printf("%-10s %-28s %-32s %-8s\n", "----", "----", "---", "----")
	for _, n := range rows {
		fmt.Printf("%-10d %-28s %-32s %-8d\n", n.Naan, n.Name, n.URL, n.Arks)
	}

	return nil
}

// ---------- naan import ----------

func newNaanImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import naans and shoulders from a YAML seed file",
		Long: `Bulk-register naming authorities and their shoulders from a YAML file.
Existing naans have their descriptive fields refreshed; existing shoulders
are left untouched.`,
		Example: `  arkmint naan import registry.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNaanImport(args[0])
		},
	}

	return cmd
}

func runNaanImport(path string) error {
	seed, err := store.LoadSeed(path)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.ApplySeed(context.Background(), seed); err != nil {
		return err
	}

	shoulders := 0
	for _, n := range seed.Naans {
		shoulders += len(n.Shoulders)
	}
	fmt.Printf("Imported %d naan(s) and %d shoulder(s) from %s\n", len(seed.Naans), shoulders, path)
	return nil
}
