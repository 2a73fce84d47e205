package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Aashish23092/affidavit-ocr/client"
	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Confidence caps for the semantic guess.
const (
	SemanticCapNameAndParent = 0.6
	SemanticCapNameOnly      = 0.5
)

var snippetRegex = regexp.MustCompile(`(?s)मैं.{80,350}`)

const namePromptTemplate = `You are an expert system for interpreting Hindi legal affidavits.

STRICT RULES:
- OCR text may be noisy, unordered, or partially incorrect
- Names may be handwritten
- DO NOT guess or invent information
- DO NOT output explanations
- DO NOT infer PAN, age, address, or phone
- If uncertain, return null

LEGAL STRUCTURE:
मैं <व्यक्ति का नाम> पुत्र / पत्नी / पुत्री <अभिभावक का नाम>

TASK:
Extract ONLY:
1. full_name
2. father_or_spouse_name

OUTPUT FORMAT (STRICT JSON ONLY):
{
  "full_name": null,
  "father_or_spouse_name": null,
  "confidence": 0.0
}

TEXT:
`

const replySchema = `{
  "type": "object",
  "properties": {
    "full_name": {"type": ["string", "null"]},
    "father_or_spouse_name": {"type": ["string", "null"]},
    "confidence": {
      "anyOf": [
        {"type": "number"},
        {"type": "string", "pattern": "^\\s*[0-9]*\\.?[0-9]+\\s*$"},
        {"type": "null"}
      ]
    }
  }
}`

var errNoJSONObject = errors.New("no JSON object found in reply")

// NameSnippet returns the 80 to 350 characters following the first "मैं".
func NameSnippet(text string) (string, bool) {
	m := snippetRegex.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

// BuildNamePrompt renders the fixed instruction followed by the snippet.
func BuildNamePrompt(snippet string) string {
	return namePromptTemplate + snippet
}

// SemanticExtractor asks a language model for the declarant and guardian
// names. Its result only ever corroborates the pattern-based extraction.
type SemanticExtractor struct {
	model   client.SemanticModel
	timeout time.Duration
	limiter *rate.Limiter
	schema  *jsonschema.Schema
	logger  *zap.Logger
}

// NewSemanticExtractor wires a model with a per-call timeout. A
// ratePerMinute of zero leaves calls unthrottled.
func NewSemanticExtractor(model client.SemanticModel, timeout time.Duration, ratePerMinute float64, burst int, logger *zap.Logger) (*SemanticExtractor, error) {
	schema, err := jsonschema.CompileString("semantic_reply.json", replySchema)
	if err != nil {
		return nil, fmt.Errorf("compile reply schema: %w", err)
	}
	var limiter *rate.Limiter
	if ratePerMinute > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ratePerMinute/60), burst)
	}
	return &SemanticExtractor{
		model:   model,
		timeout: timeout,
		limiter: limiter,
		schema:  schema,
		logger:  logger,
	}, nil
}

// ModelName reports the configured model, or "" when disabled.
func (s *SemanticExtractor) ModelName() string {
	if s == nil || s.model == nil {
		return ""
	}
	return s.model.Name()
}

// Extract never fails: every problem degrades to an absent guess with a
// status describing what went wrong.
func (s *SemanticExtractor) Extract(ctx context.Context, text string) (guess dto.SemanticGuess) {
	if s == nil || s.model == nil {
		return dto.SemanticGuess{Status: dto.SemanticDisabled}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("semantic.panic", zap.Any("panic", r))
			guess = dto.SemanticGuess{Status: dto.SemanticModelError}
		}
		SemanticCallsTotal.WithLabelValues(guess.Status).Inc()
	}()

	snippet, ok := NameSnippet(text)
	if !ok {
		s.logger.Debug("semantic.snippet.missing")
		return dto.SemanticGuess{Status: dto.SemanticNoSnippet}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("semantic.rate_limit", zap.Error(err))
			return dto.SemanticGuess{Status: dto.SemanticModelError}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.model.Complete(callCtx, BuildNamePrompt(snippet))
	if err != nil {
		s.logger.Warn("semantic.model.failed",
			zap.String("model", s.model.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return dto.SemanticGuess{Status: dto.SemanticModelError}
	}

	guess, err = s.parseReply(raw)
	if err != nil {
		s.logger.Warn("semantic.reply.unparsable", zap.Error(err))
		return dto.SemanticGuess{Status: dto.SemanticUnparsable}
	}
	s.logger.Debug("semantic.reply.parsed",
		zap.Bool("name", guess.FullName != nil),
		zap.Bool("parent", guess.FatherOrSpouseName != nil),
		zap.Float64("confidence", guess.Confidence),
	)
	return guess
}

func (s *SemanticExtractor) parseReply(raw string) (dto.SemanticGuess, error) {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return dto.SemanticGuess{}, errNoJSONObject
	}

	var v any
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return dto.SemanticGuess{}, fmt.Errorf("decode reply: %w", err)
	}
	if err := s.schema.Validate(v); err != nil {
		return dto.SemanticGuess{}, fmt.Errorf("reply does not match schema: %w", err)
	}

	m := v.(map[string]any)
	name := optionalString(m["full_name"])
	parent := optionalString(m["father_or_spouse_name"])

	conf, err := confidenceValue(m["confidence"])
	if err != nil {
		return dto.SemanticGuess{}, err
	}

	return dto.SemanticGuess{
		FullName:           name,
		FatherOrSpouseName: parent,
		Confidence:         clampSemantic(conf, name != nil, parent != nil),
		Status:             dto.SemanticOK,
	}, nil
}

// clampSemantic bounds the model's self-reported confidence. Without a
// name the guess is worthless whatever the model claims.
func clampSemantic(conf float64, hasName, hasParent bool) float64 {
	if conf < 0 {
		conf = 0
	}
	switch {
	case hasName && hasParent:
		return min(conf, SemanticCapNameAndParent)
	case hasName:
		return min(conf, SemanticCapNameOnly)
	default:
		return 0
	}
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	return &s
}

func confidenceValue(v any) (float64, error) {
	switch c := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return c, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0, fmt.Errorf("confidence %q is not numeric: %w", c, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("confidence has unexpected type %T", v)
}

// firstJSONObject returns the first balanced {...} in s, ignoring braces
// inside JSON strings.
func firstJSONObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
