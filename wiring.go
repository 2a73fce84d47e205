package main

import (
	"context"
	"fmt"

	"github.com/Aashish23092/affidavit-ocr/client"
	"github.com/Aashish23092/affidavit-ocr/config"
	"github.com/Aashish23092/affidavit-ocr/service"
	"github.com/Aashish23092/affidavit-ocr/store"
	"go.uber.org/zap"
)

func buildAnalyzer(cfg *config.Config, logger *zap.Logger) (client.DocumentAnalyzer, error) {
	if err := cfg.ValidateOCR(); err != nil {
		return nil, err
	}
	switch cfg.OCR.Backend {
	case config.OCRBackendTesseract:
		return client.NewTesseractClient(cfg.OCR.TessdataPrefix, cfg.OCR.Languages, client.NewPDFProcessor(), logger), nil
	default:
		return client.NewAzureClient(cfg.OCR.AzureEndpoint, cfg.OCR.AzureKey.Value(), cfg.OCR.AzureModel, cfg.OCR.PollInterval, logger), nil
	}
}

// buildSemantic returns nil when the semantic step is disabled.
func buildSemantic(cfg *config.Config, logger *zap.Logger) (*service.SemanticExtractor, error) {
	var model client.SemanticModel
	switch cfg.Semantic.Backend {
	case config.SemanticBackendDisabled:
		return nil, nil
	case config.SemanticBackendOllama:
		m, err := client.NewOllamaModel(cfg.Semantic.URL, cfg.Semantic.Model)
		if err != nil {
			return nil, err
		}
		model = m
	default:
		model = client.NewExecModel(cfg.Semantic.Binary, cfg.Semantic.Model, logger)
	}
	return service.NewSemanticExtractor(model, cfg.Semantic.Timeout, cfg.Semantic.RatePerMinute, cfg.Semantic.Burst, logger)
}

// buildStore returns nil when persistence is disabled.
func buildStore(ctx context.Context, cfg *config.Config) (store.RecordStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendNone:
		return nil, nil
	case config.StoreBackendSQLite:
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	default:
		return store.NewMongoStore(ctx, cfg.Store.URI.Value(), cfg.Store.Database, cfg.Store.Collection)
	}
}

// buildService wires the pipeline. withOCR is false for runs that start
// from saved artifacts. The returned cleanup closes the store.
func buildService(ctx context.Context, cfg *config.Config, logger *zap.Logger, withOCR bool) (*service.AffidavitService, func(), error) {
	var analyzer client.DocumentAnalyzer
	if withOCR {
		a, err := buildAnalyzer(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		analyzer = a
	}

	semantic, err := buildSemantic(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create semantic extractor: %w", err)
	}

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open record store: %w", err)
	}

	opts := []service.Option{service.WithOCRTimeout(cfg.OCR.Timeout)}
	if semantic != nil {
		opts = append(opts, service.WithSemantic(semantic))
	}
	if st != nil {
		opts = append(opts, service.WithStore(st))
	}
	if cfg.Artifacts.Enabled {
		opts = append(opts, service.WithArtifacts(cfg.Artifacts.Dir))
	}

	cleanup := func() {
		if st != nil {
			if err := st.Close(context.Background()); err != nil {
				logger.Warn("store.close.failed", zap.Error(err))
			}
		}
	}
	return service.NewAffidavitService(analyzer, logger, opts...), cleanup, nil
}
