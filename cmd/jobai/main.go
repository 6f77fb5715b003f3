// Package main provides the entry point for the JobAI assistant CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/config"
	"github.com/jonathan/jobai-assistant/internal/logger"
	"github.com/jonathan/jobai-assistant/internal/orchestrator"
)

var rootCmd = &cobra.Command{
	Use:           "jobai",
	Short:         "JobAI assistant",
	Long:          "JobAI extracts a job description from a posting page, sends it with your resume to the analyze backend, and renders the tailored report and document.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		log, err = logger.New(jsonOutput, debug)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		log.Debug("configuration loaded",
			zap.String("api_base", cfg.APIBase),
			zap.String("analyze_path", cfg.AnalyzePath),
			zap.String("secondary_policy", cfg.SecondaryPolicy))
		return nil
	},
}

var (
	jsonOutput bool
	debug      bool
	configPath string

	log = zap.NewNop()
	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON output and JSON logs")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", orchestrator.UserMessage(err))
		os.Exit(1)
	}
}
