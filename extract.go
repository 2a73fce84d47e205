package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/Aashish23092/affidavit-ocr/logging"
	"github.com/Aashish23092/affidavit-ocr/service"
	"github.com/Aashish23092/affidavit-ocr/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fromArtifacts string
	ocrOutDir     string
)

func init() {
	extractCmd.Flags().StringVar(&fromArtifacts, "from-artifacts", "", "extract from a directory written by the ocr command instead of a document")
	ocrCmd.Flags().StringVar(&ocrOutDir, "out", "", "artifact directory (defaults to <artifacts.dir>/<run id>)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(ocrCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract fields from one affidavit and print the result",
	Long: `Run the full pipeline on a PDF or image and print a per-field breakdown
followed by the JSON response.

Examples:
  # OCR and extract a scanned affidavit
  affidavit-ocr extract input/affidavit.pdf

  # Re-run extraction on artifacts saved by "affidavit-ocr ocr"
  affidavit-ocr extract --from-artifacts artifacts/2f6c...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Run OCR only and save the text, tables and PAN decision",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

func runExtract(cmd *cobra.Command, args []string) error {
	if fromArtifacts == "" && len(args) == 0 {
		return fmt.Errorf("a document path or --from-artifacts is required")
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logging.Sync(logger) //nolint:errcheck

	ctx := cmd.Context()
	svc, cleanup, err := buildService(ctx, cfg, logger, fromArtifacts == "")
	if err != nil {
		return err
	}
	defer cleanup()

	var resp *dto.ExtractResponse
	if fromArtifacts != "" {
		resp, err = svc.ProcessArtifacts(ctx, fromArtifacts, filepath.Base(fromArtifacts))
	} else {
		resp, err = processFile(ctx, svc, args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBreakdown(out, resp)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

func processFile(ctx context.Context, svc *service.AffidavitService, path string) (*dto.ExtractResponse, error) {
	data, contentType, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return svc.Process(ctx, data, contentType, filepath.Base(path))
}

func readDocument(path string) ([]byte, string, error) {
	contentType := dto.ContentTypeFor(path)
	if contentType == "" {
		return nil, "", fmt.Errorf("%w: %s", dto.ErrUnsupportedFormat, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document: %w", err)
	}
	return data, contentType, nil
}

func runOCR(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logging.Sync(logger) //nolint:errcheck

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	svc := service.NewAffidavitService(analyzer, logger)

	data, contentType, err := readDocument(args[0])
	if err != nil {
		return err
	}
	ev, err := svc.Analyze(cmd.Context(), data, contentType)
	if err != nil {
		return err
	}

	dir := ocrOutDir
	if dir == "" {
		dir = filepath.Join(cfg.Artifacts.Dir, uuid.NewString())
	}
	pan := utils.DecidePAN(ev)
	if err := service.WriteArtifacts(dir, ev, pan); err != nil {
		return err
	}

	logger.Info("ocr.artifacts.written", zap.String("dir", dir), zap.Int("cells", ev.CellCount()))
	fmt.Fprintf(cmd.OutOrStdout(), "%s\nPAN: %s | %s | confidence=%.2f\n", dir, optional(pan.PAN), pan.Reason, pan.Confidence)
	return nil
}

// printBreakdown writes the human-readable per-field summary.
func printBreakdown(w io.Writer, resp *dto.ExtractResponse) {
	rec := resp.Record
	fmt.Fprintln(w, "FINAL EXTRACTED DATA:")
	fmt.Fprintln(w)
	printField(w, "full_name", optional(rec.FullName.Value), rec.FullName.Reason, rec.FullName.Confidence)
	printField(w, "father_or_spouse_name", optional(rec.FatherOrSpouseName.Value), rec.FatherOrSpouseName.Reason, rec.FatherOrSpouseName.Confidence)
	printField(w, "age", optionalInt(rec.Age.Value), rec.Age.Reason, rec.Age.Confidence)
	printField(w, "address", optional(rec.Address.Value), rec.Address.Reason, rec.Address.Confidence)
	printField(w, "pan", optional(rec.PAN.Value), rec.PAN.Reason, rec.PAN.Confidence)
	printField(w, "mobile_number", optional(rec.MobileNumber.Value), rec.MobileNumber.Reason, rec.MobileNumber.Confidence)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "FINAL OVERALL CONFIDENCE: %.2f\n", rec.OverallConfidence)

	if sem := rec.Semantic; sem != nil {
		fmt.Fprintf(w, "SEMANTIC: %s | %s / %s | confidence=%.2f | agrees=%t\n",
			sem.Status, optional(sem.FullName), optional(sem.FatherOrSpouseName), sem.Confidence, sem.Agrees)
	}
	fmt.Fprintf(w, "PERSIST: %s %s\n", resp.Persist.Status, resp.Persist.ID)
	fmt.Fprintln(w)
}

func printField(w io.Writer, name, value, reason string, confidence float64) {
	fmt.Fprintf(w, "%s: %s | %s | confidence=%.2f\n", name, value, reason, confidence)
}

func optional(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

func optionalInt(n *int) string {
	if n == nil {
		return "None"
	}
	return fmt.Sprint(*n)
}
