package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/docparse"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "docparse",
	Short: "Extract typed structures from document elements",
	Long: `Docparse parses document elements - tables, lists, code blocks,
formulas and images - into typed structures with confidence scores.

Elements that no parser accepts degrade to low-confidence fallback
results rather than failing, so a batch always yields one response
per element.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./docparse.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "format", "f", "json", "output format: json or text",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)
}

// newLogger builds the CLI logger. Output goes to stderr so parsed
// results on stdout stay machine-readable.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the effective configuration: defaults, then the
// YAML config file, then environment variables and flags through viper.
func loadConfig() (docparse.Config, error) {
	viper.SetEnvPrefix("DOCPARSE")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docparse")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	config := docparse.DefaultConfig()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return config, err
		}
	} else {
		var err error
		if config, err = docparse.LoadConfig(viper.ConfigFileUsed()); err != nil {
			return config, err
		}
	}

	if d := viper.GetDuration("timeout"); d > 0 {
		config.Manager.DefaultTimeout = d
	}
	if n := viper.GetInt("concurrency"); n > 0 {
		config.Manager.MaxConcurrent = n
	}
	if viper.GetBool("no-cache") {
		config.Manager.CacheEnabled = false
	}
	return config, nil
}
