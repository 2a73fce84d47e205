package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/Aashish23092/affidavit-ocr/store"
)

const declaration = "मैं रवि कुमार पुत्र मोहन लाल, आयु 35 वर्ष, निवासी ग्राम रामपुर जिला आगरा हूँ। " +
	"मेरा मोबाइल नंबर 9876543210 है तथा मैं शपथपूर्वक कथन करता हूँ।"

type fakeAnalyzer struct {
	ev  dto.RawEvidence
	err error
}

func (f *fakeAnalyzer) Analyze(context.Context, []byte, string) (dto.RawEvidence, error) {
	return f.ev, f.err
}

func (f *fakeAnalyzer) Name() string { return "fake" }

type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	panics  bool
	prompts []string
}

func (m *fakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.panics {
		panic("model exploded")
	}
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.reply, m.err
}

func (m *fakeModel) Name() string { return "fake-model" }

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type fakeStore struct {
	records []dto.FinalRecord
	times   []time.Time
	err     error
}

func (s *fakeStore) Insert(_ context.Context, rec dto.FinalRecord, at time.Time) (store.InsertResult, error) {
	if s.err != nil {
		return store.InsertResult{}, s.err
	}
	s.records = append(s.records, rec)
	s.times = append(s.times, at)
	return store.InsertResult{ID: "doc-1", Status: dto.PersistInserted}, nil
}

func (s *fakeStore) Close(context.Context) error { return nil }

var errStoreDown = errors.New("store down")
