// Package cmd implements the perf-attribution command line interface.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/perf-attribution/pkg/config"
	"github.com/perf-attribution/pkg/utils"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger utils.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "perf-attribution",
	Short: "Attribute CPU performance samples to system components",
	Long: `perf-attribution classifies CPU performance samples captured during
mobile-system test runs and aggregates them into per-step component,
category, and technology-stack breakdowns.

Classification is driven by a rule table (file, thread, and process
rules) plus an optional project component manifest. Results are
persisted to a relational sink and published as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			level = utils.LevelDebug
		}
		if cfg.Log.OutputPath != "" {
			logger, err = utils.NewFileLogger(level, cfg.Log.OutputPath)
			if err != nil {
				return err
			}
		} else {
			logger = utils.NewDefaultLogger(level, os.Stdout)
		}
		utils.SetGlobalLogger(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Analyze a captured scene
  ` + binName + ` analyze -s ./scene.json

  # Inspect a shared library's symbols and dependencies
  ` + binName + ` inspect ./libace.so

  # Scan a binary for printable strings matching a pattern
  ` + binName + ` inspect ./libapp.so --strings 'https?://'`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
