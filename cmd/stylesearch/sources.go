// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atelier-commerce/stylesearch/internal/catalog"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List and toggle configured search sources",
	Long: `Sources lists the local catalog and every configured retail back-end
with its enabled state. Use --enable or --disable to toggle a back-end in
the config file; disabled sources are skipped during dispatch.`,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	enableID, _ := cmd.Flags().GetString("enable")
	disableID, _ := cmd.Flags().GetString("disable")
	if enableID != "" && disableID != "" {
		return fmt.Errorf("--enable and --disable are mutually exclusive")
	}

	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	if id := enableID + disableID; id != "" {
		if id == catalog.SourceID {
			return fmt.Errorf("the local catalog cannot be toggled")
		}
		found := false
		for i := range cfg.Sources {
			// Keys stay in .secrets/, never in the config file.
			cfg.Sources[i].APIKey = ""
			if cfg.Sources[i].ID == id {
				cfg.Sources[i].Enabled = enableID != ""
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown source %q", id)
		}
		if viper.ConfigFileUsed() == "" {
			return fmt.Errorf("no config file loaded: toggling a source needs one to persist to")
		}
		viper.Set("sources", cfg.Sources)
		if err := viper.WriteConfig(); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Updated %s\n", viper.ConfigFileUsed())
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENABLED\tENDPOINT")
	fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", catalog.SourceID, "Local Catalog", true, cfg.Catalog.Path)
	for _, s := range cfg.Sources {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", s.ID, s.Name, s.Enabled, s.BaseURL)
	}
	return w.Flush()
}

func init() {
	sourcesCmd.Flags().String("enable", "", "enable the source with this ID")
	sourcesCmd.Flags().String("disable", "", "disable the source with this ID")

	rootCmd.AddCommand(sourcesCmd)
}
