package client

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	stdin  []byte
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	f.stdin, f.name, f.args = stdin, name, args
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestExecModelComplete(t *testing.T) {
	runner := &fakeRunner{stdout: `{"full_name": "रवि"}`}
	m := NewExecModelWithRunner("ollama", "llama3:8b", runner)

	out, err := m.Complete(context.Background(), "prompt text")
	require.NoError(t, err)

	assert.Equal(t, `{"full_name": "रवि"}`, out)
	assert.Equal(t, "ollama", runner.name)
	assert.Equal(t, []string{"run", "llama3:8b"}, runner.args)
	assert.Equal(t, "prompt text", string(runner.stdin))
	assert.Equal(t, "llama3:8b", m.Name())
}

func TestExecModelError(t *testing.T) {
	runner := &fakeRunner{stderr: "model not found", err: errors.New("exit status 1")}
	m := NewExecModelWithRunner("ollama", "missing", runner)

	_, err := m.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestExecModelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &fakeRunner{err: errors.New("signal: killed")}
	m := NewExecModelWithRunner("ollama", "llama3:8b", runner)

	_, err := m.Complete(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecRunnerRealProcess(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	r := execRunner{logger: zap.NewNop()}

	out, _, err := r.Run(context.Background(), []byte("hello"), "cat")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}
