// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atelier-commerce/stylesearch/internal/catalog"
	"github.com/atelier-commerce/stylesearch/internal/logging"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local product catalog",
	Long: `Catalog manages the local SQLite product database that participates in
every federated search. Use subcommands to import product seed files or
list the current inventory.`,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import products from a YAML seed file",
	Long: `Import reads a YAML seed file of products and upserts them into the
catalog by product ID. Invalid entries are skipped with a warning. The
result cache is cleared afterwards so stale aggregations never outlive a
catalog change.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := context.Background()
	n, err := eng.Catalog.ImportFile(ctx, args[0])
	if err != nil {
		return err
	}
	if err := eng.Controller.ClearCache(ctx); err != nil {
		return fmt.Errorf("clearing result cache: %w", err)
	}
	fmt.Printf("Imported %d product(s)\n", n)
	return nil
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every product in the catalog",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	env, _ := rootCmd.PersistentFlags().GetString("environment")
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	logger, err := logging.New(logging.Config{Environment: env, Level: level})
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	products, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tBRAND\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n", p.ID, p.Title, p.Category, p.Brand, p.Price)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d product(s)\n", len(products))
	return nil
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)

	rootCmd.AddCommand(catalogCmd)
}
