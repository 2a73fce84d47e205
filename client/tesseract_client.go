package client

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractClient is the local OCR backend. It reads a PDF text layer when
// one exists and otherwise runs Tesseract over the page images. It never
// produces tables.
type TesseractClient struct {
	dataPath  string
	languages []string
	pdf       PDFProcessor
	logger    *zap.Logger
}

func NewTesseractClient(dataPath, languages string, pdf PDFProcessor, logger *zap.Logger) *TesseractClient {
	return &TesseractClient{
		dataPath:  dataPath,
		languages: strings.Split(languages, "+"),
		pdf:       pdf,
		logger:    logger,
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

func (tc *TesseractClient) Analyze(ctx context.Context, data []byte, contentType string) (dto.RawEvidence, error) {
	if contentType != "application/pdf" {
		text, err := tc.extractText(data)
		if err != nil {
			return dto.RawEvidence{}, fmt.Errorf("OCR extraction failed: %w", err)
		}
		return dto.RawEvidence{FullText: text}, nil
	}

	text, err := tc.pdf.ExtractText(data)
	if err != nil {
		tc.logger.Warn("tesseract.pdf_text.failed", zap.Error(err))
	}
	if strings.TrimSpace(text) != "" {
		tc.logger.Debug("tesseract.pdf_text.used", zap.Int("chars", len(text)))
		return dto.RawEvidence{FullText: text}, nil
	}

	images, err := tc.pdf.ExtractImages(data)
	if err != nil {
		return dto.RawEvidence{}, err
	}

	var sb strings.Builder
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return dto.RawEvidence{}, err
		}
		pageText, err := tc.extractImageText(img)
		if err != nil {
			tc.logger.Warn("tesseract.page.failed", zap.Int("image", i), zap.Error(err))
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return dto.RawEvidence{FullText: sb.String()}, nil
}

func (tc *TesseractClient) extractImageText(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}
	return tc.extractText(buf.Bytes())
}

func (tc *TesseractClient) extractText(imageData []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	client.SetTessdataPrefix(tc.dataPath)

	if err := client.SetLanguage(tc.languages...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}
