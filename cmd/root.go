// Package cmd implements the command-line interface for the URL catalog
// service.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	exportcmd "github.com/url-catalog/urlcatalog/cmd/export"
	importcmd "github.com/url-catalog/urlcatalog/cmd/importcmd"
	scancmd "github.com/url-catalog/urlcatalog/cmd/scan"
	servecmd "github.com/url-catalog/urlcatalog/cmd/serve"
)

const version = "1.0.0"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "urlcatalog",
		Short: "A sitemap URL catalog service",
		Long: `urlcatalog ingests XML sitemaps, optionally filters URLs by a scraped
quality signal, and exposes the resulting corpus through a paginated,
filterable API with a streaming backup path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to Viper.
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("urlcatalog version %s\n", version)
		},
	})

	rootCmd.AddCommand(servecmd.Command())
	rootCmd.AddCommand(importcmd.Command())
	rootCmd.AddCommand(scancmd.Command())
	rootCmd.AddCommand(exportcmd.Command())
}

// initConfig reads the config file and environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// The config file is optional; env vars and defaults cover the rest.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := viper.BindEnv("elasticsearch.addresses", "ELASTICSEARCH_HOSTS", "ELASTICSEARCH_ADDRESSES"); err != nil {
		return fmt.Errorf("failed to bind Elasticsearch addresses: %w", err)
	}
	if err := viper.BindEnv("elasticsearch.password", "ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"); err != nil {
		return fmt.Errorf("failed to bind Elasticsearch password: %w", err)
	}
	if err := viper.BindEnv("elasticsearch.api_key", "ELASTICSEARCH_API_KEY"); err != nil {
		return fmt.Errorf("failed to bind Elasticsearch API key: %w", err)
	}
	if err := viper.BindEnv("logger.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}

	if debug || viper.GetBool("app.debug") {
		viper.Set("logger.level", "debug")
	}

	return nil
}

// setDefaults sets production-safe default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "urlcatalog",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "json",
		"output_paths": []string{"stdout"},
	})

	viper.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("elasticsearch", map[string]any{
		"addresses":     []string{"http://127.0.0.1:9200"},
		"url_index":     "catalog_urls",
		"sitemap_index": "catalog_sitemaps",
		"bulk_timeout":  "5m",
	})

	viper.SetDefault("fetcher", map[string]any{
		"timeout":        "10s",
		"max_body_bytes": 10 * 1024 * 1024,
	})

	viper.SetDefault("scanner", map[string]any{
		"rating_selector":  ".rating-value",
		"reviews_selector": ".review-count",
		"min_rating":       4.0,
		"min_reviews":      50,
	})

	viper.SetDefault("pipeline", map[string]any{
		"batch_size": 15,
		"scan_limit": 25,
	})
}
