package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Aashish23092/affidavit-ocr/client"
	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/Aashish23092/affidavit-ocr/store"
	"github.com/Aashish23092/affidavit-ocr/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoEvidence means OCR produced neither text nor table cells.
	ErrNoEvidence = errors.New("no OCR evidence to extract from")
	// ErrOCRFailed wraps any failure of the OCR collaborator.
	ErrOCRFailed = errors.New("OCR failed")
)

// AffidavitService runs the extraction pipeline: OCR, the field
// extractors in a fixed order, the optional semantic corroboration,
// assembly and persistence.
type AffidavitService struct {
	analyzer     client.DocumentAnalyzer
	semantic     *SemanticExtractor
	store        store.RecordStore
	artifactsDir string
	ocrTimeout   time.Duration
	logger       *zap.Logger
	now          func() time.Time
	newRunID     func() string
}

type Option func(*AffidavitService)

// WithSemantic enables the language-model corroboration step.
func WithSemantic(s *SemanticExtractor) Option {
	return func(svc *AffidavitService) { svc.semantic = s }
}

// WithStore persists every assembled record.
func WithStore(s store.RecordStore) Option {
	return func(svc *AffidavitService) { svc.store = s }
}

// WithArtifacts writes the OCR hand-off files under dir/<run id>.
func WithArtifacts(dir string) Option {
	return func(svc *AffidavitService) { svc.artifactsDir = dir }
}

// WithOCRTimeout bounds each OCR call, polling included. Zero leaves the
// caller's context as the only limit.
func WithOCRTimeout(d time.Duration) Option {
	return func(svc *AffidavitService) { svc.ocrTimeout = d }
}

// WithClock overrides the time source used for extracted_at.
func WithClock(now func() time.Time) Option {
	return func(svc *AffidavitService) { svc.now = now }
}

func NewAffidavitService(analyzer client.DocumentAnalyzer, logger *zap.Logger, opts ...Option) *AffidavitService {
	svc := &AffidavitService{
		analyzer: analyzer,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Analyze runs only the OCR collaborator.
func (s *AffidavitService) Analyze(ctx context.Context, data []byte, contentType string) (dto.RawEvidence, error) {
	if s.analyzer == nil {
		return dto.RawEvidence{}, fmt.Errorf("%w: no OCR backend configured", ErrOCRFailed)
	}
	if s.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ocrTimeout)
		defer cancel()
	}
	ev, err := s.analyzer.Analyze(ctx, data, contentType)
	if err != nil {
		return dto.RawEvidence{}, fmt.Errorf("%w: %s: %w", ErrOCRFailed, s.analyzer.Name(), err)
	}
	s.logger.Info("pipeline.ocr.done",
		zap.String("backend", s.analyzer.Name()),
		zap.Int("chars", len(ev.FullText)),
		zap.Int("tables", len(ev.Tables)),
		zap.Int("cells", ev.CellCount()),
	)
	return ev, nil
}

// Process runs the whole pipeline on an uploaded document.
func (s *AffidavitService) Process(ctx context.Context, data []byte, contentType, source string) (*dto.ExtractResponse, error) {
	start := time.Now()
	ev, err := s.Analyze(ctx, data, contentType)
	if err != nil {
		ExtractionsTotal.WithLabelValues("ocr_failed").Inc()
		s.logger.Error("pipeline.ocr.failed", zap.String("source", source), zap.Error(err))
		return nil, err
	}

	runID := s.newRunID()
	if s.artifactsDir != "" && !ev.IsEmpty() {
		dir := filepath.Join(s.artifactsDir, runID)
		if err := WriteArtifacts(dir, ev, utils.DecidePAN(ev)); err != nil {
			s.logger.Warn("pipeline.artifacts.write_failed", zap.String("dir", dir), zap.Error(err))
		}
	}

	resp, err := s.extract(ctx, runID, source, ev, nil)
	ExtractionDuration.Observe(time.Since(start).Seconds())
	return resp, err
}

// ProcessArtifacts extracts from a run directory written earlier, skipping OCR.
func (s *AffidavitService) ProcessArtifacts(ctx context.Context, dir, source string) (*dto.ExtractResponse, error) {
	start := time.Now()
	ev, pan, err := LoadArtifacts(dir, s.logger)
	if err != nil {
		ExtractionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	resp, err := s.extract(ctx, s.newRunID(), source, ev, pan)
	ExtractionDuration.Observe(time.Since(start).Seconds())
	return resp, err
}

// Extract runs the field extractors over evidence that is already available.
func (s *AffidavitService) Extract(ctx context.Context, source string, ev dto.RawEvidence) (*dto.ExtractResponse, error) {
	return s.extract(ctx, s.newRunID(), source, ev, nil)
}

func (s *AffidavitService) extract(ctx context.Context, runID, source string, ev dto.RawEvidence, pan *dto.PANDecision) (*dto.ExtractResponse, error) {
	logger := s.logger.With(zap.String("run_id", runID))

	if ev.IsEmpty() {
		ExtractionsTotal.WithLabelValues("no_evidence").Inc()
		logger.Warn("pipeline.evidence.empty", zap.String("source", source))
		return nil, ErrNoEvidence
	}

	var fields FieldResults
	if pan != nil {
		fields.PAN = pan.Extraction()
		logger.Debug("pipeline.pan.from_artifact")
	} else {
		fields.PAN = utils.ExtractPAN(ev)
	}
	logger.Info("pipeline.pan.extracted", zap.Float64("confidence", fields.PAN.Confidence), zap.String("reason", fields.PAN.Reason))

	fields.Name, fields.Parent = utils.ExtractNameAndParent(ev.FullText)
	logger.Info("pipeline.name.extracted", zap.Float64("confidence", fields.Name.Confidence), zap.String("reason", fields.Name.Reason))

	fields.Age = utils.ExtractAge(ev.FullText)
	fields.Address = utils.ExtractAddress(ev.FullText)
	fields.Mobile = utils.ExtractMobile(ev.FullText)
	logger.Debug("pipeline.details.extracted",
		zap.Bool("age", fields.Age.Present()),
		zap.Bool("address", fields.Address.Present()),
		zap.Bool("mobile", fields.Mobile.Present()),
	)

	var guess *dto.SemanticGuess
	if s.semantic != nil {
		g := s.semantic.Extract(ctx, ev.FullText)
		guess = &g
		logger.Info("pipeline.semantic.done", zap.String("status", g.Status), zap.Float64("confidence", g.Confidence))
	}

	rec := Assemble(runID, source, fields, guess, s.semantic.ModelName())
	recordFields(fields)

	resp := &dto.ExtractResponse{
		Record:      rec,
		Persist:     s.persist(ctx, logger, rec),
		ProcessedAt: s.now().UTC().Format(time.RFC3339),
	}
	ExtractionsTotal.WithLabelValues("ok").Inc()
	logger.Info("pipeline.done",
		zap.Float64("overall_confidence", rec.OverallConfidence),
		zap.String("persist", resp.Persist.Status),
	)
	return resp, nil
}

// persist never fails the run; audit of partial records is expected.
func (s *AffidavitService) persist(ctx context.Context, logger *zap.Logger, rec dto.FinalRecord) dto.PersistResult {
	if s.store == nil {
		return dto.PersistResult{Status: dto.PersistSkipped}
	}
	res, err := s.store.Insert(ctx, rec, s.now())
	if err != nil {
		logger.Error("pipeline.persist.failed", zap.Error(err))
		return dto.PersistResult{Status: dto.PersistFailed, Error: err.Error()}
	}
	logger.Info("pipeline.persist.inserted", zap.String("id", res.ID))
	return dto.PersistResult{ID: res.ID, Status: res.Status}
}

func recordFields(f FieldResults) {
	recordField("pan", f.PAN.Present())
	recordField("full_name", f.Name.Present())
	recordField("father_or_spouse_name", f.Parent.Present())
	recordField("age", f.Age.Present())
	recordField("address", f.Address.Present())
	recordField("mobile_number", f.Mobile.Present())
}
