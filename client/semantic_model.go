package client

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// SemanticModel completes a single prompt with a language model.
type SemanticModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// CommandRunner lets us stub external commands in tests.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *zap.Logger
}

func (r execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.logger.Error("exec.failed",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.String("stderr", truncate(errb.String(), 8<<10)),
			zap.Error(err),
		)
	} else {
		r.logger.Debug("exec.ok",
			zap.String("cmd", name),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Int("stdout_bytes", out.Len()),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// ExecModel runs `<binary> run <model>` with the prompt on stdin and
// returns whatever the process prints.
type ExecModel struct {
	binary string
	model  string
	runner CommandRunner
}

func NewExecModel(binary, model string, logger *zap.Logger) *ExecModel {
	return &ExecModel{binary: binary, model: model, runner: execRunner{logger: logger}}
}

// NewExecModelWithRunner is NewExecModel with an injected runner.
func NewExecModelWithRunner(binary, model string, runner CommandRunner) *ExecModel {
	return &ExecModel{binary: binary, model: model, runner: runner}
}

func (m *ExecModel) Name() string { return m.model }

func (m *ExecModel) Complete(ctx context.Context, prompt string) (string, error) {
	stdout, stderr, err := m.runner.Run(ctx, []byte(prompt), m.binary, "run", m.model)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%s run %s: %w: %s", m.binary, m.model, err, truncate(strings.TrimSpace(string(stderr)), 512))
	}
	return string(stdout), nil
}

// OllamaModel talks to an Ollama server over HTTP.
type OllamaModel struct {
	model string
	llm   llms.Model
}

func NewOllamaModel(serverURL, model string) (*OllamaModel, error) {
	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaModel{model: model, llm: llm}, nil
}

func (m *OllamaModel) Name() string { return m.model }

func (m *OllamaModel) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out, nil
}
