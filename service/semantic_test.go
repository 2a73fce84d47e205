package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExtractor(t *testing.T, m *fakeModel, timeout time.Duration) *SemanticExtractor {
	t.Helper()
	s, err := NewSemanticExtractor(m, timeout, 0, 0, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNameSnippet(t *testing.T) {
	snippet, ok := NameSnippet("शपथ पत्र\n" + declaration)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(snippet, "मैं रवि कुमार"))

	_, ok = NameSnippet("मैं रवि कुमार")
	assert.False(t, ok, "fewer than 80 characters after the marker")

	_, ok = NameSnippet(strings.Repeat("क", 200))
	assert.False(t, ok)

	long, ok := NameSnippet("मैं " + strings.Repeat("क", 500))
	require.True(t, ok)
	assert.Equal(t, len([]rune("मैं"))+350, len([]rune(long)))
}

func TestBuildNamePrompt(t *testing.T) {
	p := BuildNamePrompt("मैं रवि")

	assert.Contains(t, p, "DO NOT guess or invent information")
	assert.Contains(t, p, "DO NOT infer PAN, age, address, or phone")
	assert.Contains(t, p, `"father_or_spouse_name": null`)
	assert.True(t, strings.HasSuffix(p, "TEXT:\nमैं रवि"))
}

func TestSemanticExtractClamp(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantName   string
		wantParent string
		wantConf   float64
	}{
		{
			name:       "name and parent capped at 0.6",
			reply:      `{"full_name": "X", "father_or_spouse_name": "Y", "confidence": 0.95}`,
			wantName:   "X",
			wantParent: "Y",
			wantConf:   0.6,
		},
		{
			name:     "name only capped at 0.5",
			reply:    `{"full_name": "X", "father_or_spouse_name": null, "confidence": 0.9}`,
			wantName: "X",
			wantConf: 0.5,
		},
		{
			name:       "no name forces zero",
			reply:      `{"full_name": null, "father_or_spouse_name": "Y", "confidence": 0.9}`,
			wantParent: "Y",
			wantConf:   0,
		},
		{
			name:     "empty strings are absent",
			reply:    `{"full_name": "  ", "father_or_spouse_name": "", "confidence": 0.4}`,
			wantConf: 0,
		},
		{
			name:       "low confidence kept",
			reply:      `{"full_name": "X", "father_or_spouse_name": "Y", "confidence": 0.3}`,
			wantName:   "X",
			wantParent: "Y",
			wantConf:   0.3,
		},
		{
			name:     "numeric string confidence",
			reply:    `{"full_name": "X", "confidence": "0.45"}`,
			wantName: "X",
			wantConf: 0.45,
		},
		{
			name:       "over-range confidence is clamped",
			reply:      `{"full_name": "X", "father_or_spouse_name": "Y", "confidence": 1.5}`,
			wantName:   "X",
			wantParent: "Y",
			wantConf:   0.6,
		},
		{
			name:       "percentage confidence is clamped",
			reply:      `{"full_name": "X", "father_or_spouse_name": "Y", "confidence": 95}`,
			wantName:   "X",
			wantParent: "Y",
			wantConf:   0.6,
		},
		{
			name:     "negative confidence floors at zero",
			reply:    `{"full_name": "X", "confidence": -0.2}`,
			wantName: "X",
			wantConf: 0,
		},
		{
			name:     "missing confidence is zero",
			reply:    `{"full_name": "X"}`,
			wantName: "X",
			wantConf: 0,
		},
		{
			name:       "surrounded by chatter with braces in strings",
			reply:      "Sure! Here it is:\n```json\n{\"full_name\": \"A {B}\", \"father_or_spouse_name\": \"C\", \"confidence\": 0.5}\n```\n{ignored}",
			wantName:   "A {B}",
			wantParent: "C",
			wantConf:   0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{reply: tt.reply}
			g := newExtractor(t, m, time.Second).Extract(context.Background(), declaration)

			assert.Equal(t, dto.SemanticOK, g.Status)
			assert.InDelta(t, tt.wantConf, g.Confidence, 1e-9)
			if tt.wantName == "" {
				assert.Nil(t, g.FullName)
			} else {
				require.NotNil(t, g.FullName)
				assert.Equal(t, tt.wantName, *g.FullName)
			}
			if tt.wantParent == "" {
				assert.Nil(t, g.FatherOrSpouseName)
			} else {
				require.NotNil(t, g.FatherOrSpouseName)
				assert.Equal(t, tt.wantParent, *g.FatherOrSpouseName)
			}
			assert.Equal(t, 1, m.calls())
		})
	}
}

func TestSemanticExtractFailures(t *testing.T) {
	tests := []struct {
		name       string
		model      *fakeModel
		text       string
		wantStatus string
		wantCalls  int
	}{
		{"no snippet skips the model", &fakeModel{reply: `{}`}, "कोई घोषणा नहीं", dto.SemanticNoSnippet, 0},
		{"model error", &fakeModel{err: errors.New("boom")}, declaration, dto.SemanticModelError, 1},
		{"timeout", &fakeModel{block: true}, declaration, dto.SemanticModelError, 1},
		{"panic", &fakeModel{panics: true}, declaration, dto.SemanticModelError, 1},
		{"no json", &fakeModel{reply: "I cannot help with that."}, declaration, dto.SemanticUnparsable, 1},
		{"broken json", &fakeModel{reply: `{"full_name": "X",}`}, declaration, dto.SemanticUnparsable, 1},
		{"schema mismatch", &fakeModel{reply: `{"full_name": 42, "confidence": 0.5}`}, declaration, dto.SemanticUnparsable, 1},
		{"unbalanced", &fakeModel{reply: `{"full_name": "X"`}, declaration, dto.SemanticUnparsable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newExtractor(t, tt.model, 20*time.Millisecond).Extract(context.Background(), tt.text)

			assert.Equal(t, tt.wantStatus, g.Status)
			assert.Nil(t, g.FullName)
			assert.Nil(t, g.FatherOrSpouseName)
			assert.Equal(t, 0.0, g.Confidence)
			assert.Equal(t, tt.wantCalls, tt.model.calls())
		})
	}
}

func TestSemanticExtractDisabled(t *testing.T) {
	var s *SemanticExtractor
	assert.Equal(t, dto.SemanticDisabled, s.Extract(context.Background(), declaration).Status)
	assert.Equal(t, "", s.ModelName())
}

func TestSemanticRateLimiterHonoursContext(t *testing.T) {
	m := &fakeModel{reply: `{"full_name": "X", "confidence": 0.4}`}
	s, err := NewSemanticExtractor(m, time.Second, 1, 1, zap.NewNop())
	require.NoError(t, err)

	first := s.Extract(context.Background(), declaration)
	assert.Equal(t, dto.SemanticOK, first.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	second := s.Extract(ctx, declaration)
	assert.Equal(t, dto.SemanticModelError, second.Status)
	assert.Equal(t, 1, m.calls())
}

func TestFirstJSONObject(t *testing.T) {
	obj, ok := firstJSONObject(`noise {"a": "}{", "b": {"c": "\"}"}} tail }`)
	require.True(t, ok)
	assert.Equal(t, `{"a": "}{", "b": {"c": "\"}"}}`, obj)

	_, ok = firstJSONObject("no braces")
	assert.False(t, ok)

	obj, ok = firstJSONObject(`{"open" {"x": 1}`)
	require.True(t, ok)
	assert.Equal(t, `{"x": 1}`, obj)
}
