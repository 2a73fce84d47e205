package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Aashish23092/affidavit-ocr/client"
	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/Aashish23092/affidavit-ocr/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newService(ev dto.RawEvidence, opts ...Option) *AffidavitService {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewAffidavitService(&fakeAnalyzer{ev: ev}, zap.NewNop(), opts...)
}

func TestProcessTablePANWins(t *testing.T) {
	ev := dto.RawEvidence{
		FullText: "स्थायी खाता संख्या AB1DE12F4F\n" + declaration,
		Tables:   []dto.Table{{{Row: 0, Col: 1, Text: "ABCDE1234F"}}},
	}

	resp, err := newService(ev).Process(context.Background(), []byte("pdf"), "application/pdf", "a.pdf")
	require.NoError(t, err)

	assert.Equal(t, "ABCDE1234F", resp.Record.PAN.Get())
	assert.Equal(t, 0.85, resp.Record.PAN.Confidence)
	assert.Equal(t, "extracted from table cell", resp.Record.PAN.Reason)
	assert.Equal(t, "a.pdf", resp.Record.SourceDocument)
	assert.NotEmpty(t, resp.Record.RunID)
}

func TestProcessTextPANFallback(t *testing.T) {
	ev := dto.RawEvidence{FullText: "pan: abcde1234f"}

	resp, err := newService(ev).Process(context.Background(), nil, "image/png", "")
	require.NoError(t, err)

	assert.Equal(t, "ABCDE1234F", resp.Record.PAN.Get())
	assert.Equal(t, 0.70, resp.Record.PAN.Confidence)
	assert.Equal(t, 0.7, resp.Record.OverallConfidence)
}

func TestProcessNameAndParent(t *testing.T) {
	ev := dto.RawEvidence{FullText: "मैं रवि कुमार पुत्र मोहन लाल, आयु 35 वर्ष, निवासी ग्राम रामपुर जिला आगरा हूँ।"}

	resp, err := newService(ev).Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	rec := resp.Record
	assert.Equal(t, "रवि कुमार", rec.FullName.Get())
	assert.Equal(t, "मोहन लाल", rec.FatherOrSpouseName.Get())
	assert.Equal(t, 0.75, rec.FullName.Confidence)
	assert.Equal(t, 35, rec.Age.Get())
	assert.Equal(t, "ग्राम रामपुर जिला आगरा", rec.Address.Get())
	assert.False(t, rec.PAN.Present())
	assert.Equal(t, 0.85, rec.OverallConfidence)
}

func TestProcessAddressDominates(t *testing.T) {
	ev := dto.RawEvidence{FullText: "निवासी ग्राम रामपुर, मोबाइल 9876543210"}

	resp, err := newService(ev).Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	rec := resp.Record
	assert.False(t, rec.PAN.Present())
	assert.False(t, rec.FullName.Present())
	assert.True(t, rec.MobileNumber.Present())
	assert.Equal(t, rec.Address.Confidence, rec.OverallConfidence)
	assert.Equal(t, 0.8, rec.OverallConfidence)
}

func TestProcessEveryFieldConsistent(t *testing.T) {
	for _, text := range []string{declaration, "", "कुछ नहीं", "ABCDE1234F"} {
		resp, err := newService(dto.RawEvidence{FullText: text, Tables: []dto.Table{{{Text: "x"}}}}).
			Process(context.Background(), nil, "application/pdf", "")
		require.NoError(t, err)
		rec := resp.Record
		assert.True(t, rec.FullName.Consistent())
		assert.True(t, rec.FatherOrSpouseName.Consistent())
		assert.True(t, rec.Age.Consistent())
		assert.True(t, rec.Address.Consistent())
		assert.True(t, rec.PAN.Consistent())
		assert.True(t, rec.MobileNumber.Consistent())
		assert.NotEmpty(t, rec.FullName.Reason)
		assert.NotEmpty(t, rec.PAN.Reason)
	}
}

func TestProcessNoEvidence(t *testing.T) {
	st := &fakeStore{}
	_, err := newService(dto.RawEvidence{FullText: "  \n"}, WithStore(st)).
		Process(context.Background(), nil, "application/pdf", "")

	assert.ErrorIs(t, err, ErrNoEvidence)
	assert.Empty(t, st.records)
}

func TestProcessOCRFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	svc := NewAffidavitService(&fakeAnalyzer{err: cause}, zap.NewNop())

	_, err := svc.Process(context.Background(), nil, "application/pdf", "")

	assert.ErrorIs(t, err, ErrOCRFailed)
	assert.ErrorIs(t, err, cause)
}

func TestProcessPersists(t *testing.T) {
	st := &fakeStore{}
	resp, err := newService(dto.RawEvidence{FullText: declaration}, WithStore(st)).
		Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	assert.Equal(t, dto.PersistResult{ID: "doc-1", Status: dto.PersistInserted}, resp.Persist)
	require.Len(t, st.records, 1)
	assert.Equal(t, resp.Record, st.records[0])
	assert.Equal(t, fixedNow, st.times[0])
}

func TestProcessPersistsLowConfidenceRecord(t *testing.T) {
	st := &fakeStore{}
	_, err := newService(dto.RawEvidence{FullText: "अस्पष्ट पाठ"}, WithStore(st)).
		Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	require.Len(t, st.records, 1)
	assert.Equal(t, 0.0, st.records[0].OverallConfidence)
}

func TestProcessStoreFailureStillReturnsRecord(t *testing.T) {
	st := &fakeStore{err: errStoreDown}
	resp, err := newService(dto.RawEvidence{FullText: declaration}, WithStore(st)).
		Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	assert.Equal(t, dto.PersistFailed, resp.Persist.Status)
	assert.Contains(t, resp.Persist.Error, "store down")
	assert.Equal(t, "रवि कुमार", resp.Record.FullName.Get())
}

func TestProcessWithoutStoreSkipsPersist(t *testing.T) {
	resp, err := newService(dto.RawEvidence{FullText: declaration}).
		Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	assert.Equal(t, dto.PersistSkipped, resp.Persist.Status)
	assert.Equal(t, "2026-05-04T09:00:00Z", resp.ProcessedAt)
}

func TestProcessSemanticCorroborates(t *testing.T) {
	m := &fakeModel{reply: `{"full_name": "रवि कुमार", "father_or_spouse_name": "मोहन लाल", "confidence": 0.95}`}
	sem, err := NewSemanticExtractor(m, time.Second, 0, 0, zap.NewNop())
	require.NoError(t, err)

	resp, err := newService(dto.RawEvidence{FullText: declaration}, WithSemantic(sem)).
		Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	rec := resp.Record
	require.NotNil(t, rec.Semantic)
	assert.True(t, rec.Semantic.Agrees)
	assert.Equal(t, 0.6, rec.Semantic.Confidence)
	assert.Equal(t, "fake-model", rec.Semantic.Model)
	assert.Equal(t, 0.75, rec.FullName.Confidence)
	assert.Equal(t, 0.85, rec.OverallConfidence)
}

func TestProcessSemanticFailureDoesNotFailRun(t *testing.T) {
	sem, err := NewSemanticExtractor(&fakeModel{block: true}, 10*time.Millisecond, 0, 0, zap.NewNop())
	require.NoError(t, err)

	resp, err := newService(dto.RawEvidence{FullText: declaration}, WithSemantic(sem)).
		Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	require.NotNil(t, resp.Record.Semantic)
	assert.Equal(t, dto.SemanticModelError, resp.Record.Semantic.Status)
	assert.Equal(t, "रवि कुमार", resp.Record.FullName.Get())
}

func TestProcessWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	ev := dto.RawEvidence{
		FullText: declaration,
		Tables:   []dto.Table{{{Row: 2, Col: 0, Text: "ABCDE1234F"}}},
	}
	svc := newService(ev, WithArtifacts(dir))
	svc.newRunID = func() string { return "run-42" }

	_, err := svc.Process(context.Background(), nil, "application/pdf", "")
	require.NoError(t, err)

	text, err := os.ReadFile(filepath.Join(dir, "run-42", TextArtifact))
	require.NoError(t, err)
	assert.Equal(t, declaration, string(text))
	assert.FileExists(t, filepath.Join(dir, "run-42", TablesArtifact))
	assert.FileExists(t, filepath.Join(dir, "run-42", PANArtifact))
}

func TestProcessArtifacts(t *testing.T) {
	dir := t.TempDir()
	ev := dto.RawEvidence{
		FullText: declaration,
		Tables:   []dto.Table{{{Row: 0, Col: 0, Text: "ABCDE1234F"}}},
	}
	require.NoError(t, WriteArtifacts(dir, ev, utils.DecidePAN(ev)))

	svc := NewAffidavitService(nil, zap.NewNop())
	resp, err := svc.ProcessArtifacts(context.Background(), dir, "a.pdf")
	require.NoError(t, err)

	assert.Equal(t, "ABCDE1234F", resp.Record.PAN.Get())
	assert.Equal(t, 0.85, resp.Record.PAN.Confidence)
	assert.Equal(t, "रवि कुमार", resp.Record.FullName.Get())
}

func TestProcessArtifactsMissingText(t *testing.T) {
	svc := NewAffidavitService(nil, zap.NewNop())

	_, err := svc.ProcessArtifacts(context.Background(), t.TempDir(), "")
	assert.Error(t, err)
}

func TestAnalyzeWithoutBackend(t *testing.T) {
	svc := NewAffidavitService(nil, zap.NewNop())

	_, err := svc.Analyze(context.Background(), nil, "application/pdf")
	assert.ErrorIs(t, err, ErrOCRFailed)
}

func TestProcessOCRTimeout(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"status": "running"}`))
	}))
	defer srv.Close()

	st := &fakeStore{}
	analyzer := client.NewAzureClient(srv.URL, "k", "prebuilt-document", time.Millisecond, zap.NewNop())
	svc := NewAffidavitService(analyzer, zap.NewNop(), WithOCRTimeout(50*time.Millisecond), WithStore(st))

	start := time.Now()
	_, err := svc.Process(context.Background(), []byte("x"), "application/pdf", "stuck.pdf")

	assert.ErrorIs(t, err, ErrOCRFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, st.records)
}
