package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"go.uber.org/zap"
)

const azureAPIVersion = "2023-07-31"

// AzureClient calls the Azure Document Intelligence layout REST API.
type AzureClient struct {
	endpoint     string
	key          string
	model        string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewAzureClient(endpoint, key, model string, pollInterval time.Duration, logger *zap.Logger) *AzureClient {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &AzureClient{
		endpoint:     strings.TrimRight(endpoint, "/"),
		key:          key,
		model:        model,
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

func (a *AzureClient) Name() string { return "azure" }

type azureOperation struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Pages []struct {
			Lines []struct {
				Content string `json:"content"`
			} `json:"lines"`
		} `json:"pages"`
		Tables []struct {
			Cells []struct {
				RowIndex    int    `json:"rowIndex"`
				ColumnIndex int    `json:"columnIndex"`
				Content     string `json:"content"`
			} `json:"cells"`
		} `json:"tables"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze submits the document and polls the operation until it finishes
// or ctx is done.
func (a *AzureClient) Analyze(ctx context.Context, data []byte, contentType string) (dto.RawEvidence, error) {
	opURL, err := a.submit(ctx, data, contentType)
	if err != nil {
		return dto.RawEvidence{}, err
	}
	a.logger.Debug("azure.analyze.submitted", zap.String("operation", opURL))

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		op, err := a.poll(ctx, opURL)
		if err != nil {
			return dto.RawEvidence{}, err
		}
		switch op.Status {
		case "succeeded":
			return op.evidence(), nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = op.Error.Code + ": " + op.Error.Message
			}
			return dto.RawEvidence{}, fmt.Errorf("azure analysis %s", msg)
		}

		select {
		case <-ctx.Done():
			return dto.RawEvidence{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *AzureClient) submit(ctx context.Context, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s", a.endpoint, a.model, azureAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build analyze request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("analyze request returned status %d: %s", resp.StatusCode, string(body))
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze response has no Operation-Location header")
	}
	return opURL, nil
}

func (a *AzureClient) poll(ctx context.Context, opURL string) (*azureOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("poll request returned status %d: %s", resp.StatusCode, string(body))
	}

	var op azureOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to decode analyze result: %w", err)
	}
	return &op, nil
}

// evidence flattens page lines into newline-terminated text and keeps
// table cells in the order Azure returns them.
func (op *azureOperation) evidence() dto.RawEvidence {
	var ev dto.RawEvidence
	if op.AnalyzeResult == nil {
		return ev
	}

	var sb strings.Builder
	for _, page := range op.AnalyzeResult.Pages {
		for _, line := range page.Lines {
			content := strings.TrimSpace(line.Content)
			if content == "" {
				continue
			}
			sb.WriteString(content)
			sb.WriteString("\n")
		}
	}
	ev.FullText = sb.String()

	for _, t := range op.AnalyzeResult.Tables {
		table := make(dto.Table, 0, len(t.Cells))
		for _, c := range t.Cells {
			table = append(table, dto.Cell{Row: c.RowIndex, Col: c.ColumnIndex, Text: strings.TrimSpace(c.Content)})
		}
		ev.Tables = append(ev.Tables, table)
	}
	return ev
}
