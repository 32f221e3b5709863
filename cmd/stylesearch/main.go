// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the stylesearch CLI: federated
// product search across the local catalog and remote retail back-ends.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atelier-commerce/stylesearch/internal/dispatch"
	"github.com/atelier-commerce/stylesearch/internal/secrets"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds retailer API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the stylesearch CLI.
var rootCmd = &cobra.Command{
	Use:   "stylesearch",
	Short: "Federated product search across catalog and retail partners",
	Long: `stylesearch queries the local product catalog and configured retail
partner APIs in parallel, then merges the results into one ranked,
deduplicated list. Failed or slow sources degrade the result instead of
failing the search.

Each concern is a subcommand: search runs a federated query, catalog
manages the local product database, and sources lists or toggles the
configured back-ends.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./stylesearch.yaml or ~/.config/stylesearch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("environment", "production", "logging environment: development or production")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("stylesearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "stylesearch"))
		}
	}

	viper.SetEnvPrefix("STYLESEARCH")
	viper.AutomaticEnv()

	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.source_timeout", dispatch.DefaultSourceTimeout)
	viper.SetDefault("search.min_term_length", 2)
	viper.SetDefault("search.timeout", 10*time.Second)
	viper.SetDefault("search.user_agent", "stylesearch/"+version)
	viper.SetDefault("cache.backend", string(types.CacheMemory))
	viper.SetDefault("cache.ttl", 5*time.Minute)
	viper.SetDefault("catalog.path", "catalog.db")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig materializes the engine configuration from viper and fills
// in retailer API keys from loaded secrets.
func engineConfig() (types.EngineConfig, error) {
	var cfg types.EngineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	for i := range cfg.Sources {
		cfg.Sources[i].APIKey = secretDefault(secrets.APIKeyName(cfg.Sources[i].ID), cfg.Sources[i].APIKey)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
