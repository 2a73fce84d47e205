// Command affidavit-ocr extracts identity fields from scanned Hindi
// affidavits, either as an HTTP service or from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/Aashish23092/affidavit-ocr/config"
	"github.com/Aashish23092/affidavit-ocr/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// configPath points at an optional YAML config file
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "affidavit-ocr",
	Short: "Extract identity fields from Hindi affidavits",
	Long: `affidavit-ocr reads a scanned Hindi affidavit, runs OCR on it and extracts
the PAN, declarant name, father or spouse name, age, address and mobile number,
each with a confidence score and a reason.

Configuration comes from an optional YAML file (--config) and AFFIDAVIT_*
environment variables, e.g. AFFIDAVIT_OCR_AZURE_ENDPOINT.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
}

// loadRuntime reads the configuration and builds the logger every command uses.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "affidavit-ocr",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}
