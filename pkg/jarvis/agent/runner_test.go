package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jholhewres/jarvis/pkg/jarvis/memory"
	"github.com/jholhewres/jarvis/pkg/jarvis/provider"
	"github.com/jholhewres/jarvis/pkg/jarvis/security"
	"github.com/jholhewres/jarvis/pkg/jarvis/tools"
)

// capturingProvider records the messages it is called with and answers with
// fixed text.
type capturingProvider struct {
	seen [][]provider.ChatMessage
	text string
}

func (c *capturingProvider) Name() string { return "capturing" }

func (c *capturingProvider) ChatWithSystem(ctx context.Context, system, message, model string, temperature float64) (string, error) {
	return c.text, nil
}

func (c *capturingProvider) ChatWithTools(ctx context.Context, messages []provider.ChatMessage, defs []provider.ToolDefinition, model string, temperature float64) (*provider.ChatResponse, error) {
	copied := make([]provider.ChatMessage, len(messages))
	copy(copied, messages)
	c.seen = append(c.seen, copied)
	return &provider.ChatResponse{Text: c.text}, nil
}

func (c *capturingProvider) Warmup(ctx context.Context) error { return nil }

func newTestRunner(t *testing.T, p provider.Provider, mem memory.Memory, autoSave bool) *Runner {
	t.Helper()
	reg := tools.NewRegistry()
	loop := NewLoop(LoopOptions{
		Provider:      p,
		Registry:      reg,
		Model:         "m",
		MaxIterations: 5,
		Security:      security.FromConfig(security.AutonomySettings{}, t.TempDir()),
		Quiet:         true,
		Logger:        testLogger(),
	})
	return NewRunner(RunnerOptions{
		Loop:         loop,
		Memory:       mem,
		SystemPrompt: "you are jarvis",
		MaxTurns:     2,
		AutoSave:     autoSave,
		Logger:       testLogger(),
	})
}

func TestRunOnceInjectsMemoryContext(t *testing.T) {
	mem, err := memory.OpenSQLite(filepath.Join(t.TempDir(), "m.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()
	ctx := context.Background()
	mem.Store(ctx, "coffee", "takes it black", memory.CategoryCore)

	p := &capturingProvider{text: "noted"}
	r := newTestRunner(t, p, mem, false)

	if _, err := r.RunOnce(ctx, "test", "how do I take my coffee?"); err != nil {
		t.Fatal(err)
	}

	user := p.seen[0][1]
	if !strings.HasPrefix(user.Text(), "[Memory context]\n") {
		t.Errorf("user message missing memory preamble: %q", user.Text())
	}
	if !strings.Contains(user.Text(), "- coffee: takes it black") {
		t.Errorf("user message missing recalled entry: %q", user.Text())
	}
	if !strings.HasSuffix(user.Text(), "how do I take my coffee?") {
		t.Errorf("original text must follow the preamble: %q", user.Text())
	}
}

func TestRunOnceNoRecallNoPreamble(t *testing.T) {
	p := &capturingProvider{text: "hi"}
	r := newTestRunner(t, p, memory.Noop{}, false)

	if _, err := r.RunOnce(context.Background(), "test", "hello"); err != nil {
		t.Fatal(err)
	}
	if got := p.seen[0][1].Text(); got != "hello" {
		t.Errorf("user message = %q, want no preamble", got)
	}
}

func TestRunOnceFreshHistory(t *testing.T) {
	p := &capturingProvider{text: "answer"}
	r := newTestRunner(t, p, memory.Noop{}, false)
	ctx := context.Background()

	r.RunOnce(ctx, "s", "first")
	r.RunOnce(ctx, "s", "second")

	// Each one-shot turn starts over: system + user only.
	if len(p.seen[1]) != 2 {
		t.Errorf("second call saw %d messages, want 2", len(p.seen[1]))
	}
}

func TestTurnPersistsAndTrims(t *testing.T) {
	p := &capturingProvider{text: "reply"}
	r := newTestRunner(t, p, memory.Noop{}, false) // MaxTurns = 2
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		if _, err := r.Turn(ctx, "s", msg); err != nil {
			t.Fatal(err)
		}
	}

	// After three turns with MaxTurns=2, the oldest turn is gone.
	last := p.seen[len(p.seen)-1]
	var users []string
	for _, m := range last {
		if m.Role == provider.RoleUser {
			users = append(users, m.Text())
		}
	}
	if len(users) != 2 || users[0] != "two" || users[1] != "three" {
		t.Errorf("surviving user turns = %v, want [two three]", users)
	}
	if last[0].Role != provider.RoleSystem {
		t.Error("system message must survive trimming")
	}
}

func TestAutoSaveStoresConversation(t *testing.T) {
	mem, err := memory.OpenSQLite(filepath.Join(t.TempDir(), "m.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()

	p := &capturingProvider{text: "the answer is 42"}
	r := newTestRunner(t, p, mem, true)
	ctx := context.Background()

	if _, err := r.RunOnce(ctx, "s", "what is the answer?"); err != nil {
		t.Fatal(err)
	}

	entries, err := mem.Recall(ctx, "the answer is 42", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("auto-save should have stored the exchange")
	}
	if entries[0].Category != memory.CategoryConversation {
		t.Errorf("category = %q", entries[0].Category)
	}
}
