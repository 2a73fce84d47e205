package main

import (
	"fmt"
	"os"

	"github.com/Aashish23092/affidavit-ocr/logging"
	"github.com/Aashish23092/affidavit-ocr/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "affidavits.xlsx", "output XLSX path")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the local SQLite audit log to an XLSX workbook",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logging.Sync(logger) //nolint:errcheck

	st, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	defer st.Close(cmd.Context()) //nolint:errcheck

	rows, err := st.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	data, err := store.ExportXLSX(rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOut, err)
	}

	logger.Info("export.xlsx.ok", zap.String("path", exportOut), zap.Int("rows", len(rows)))
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(rows), exportOut)
	return nil
}
