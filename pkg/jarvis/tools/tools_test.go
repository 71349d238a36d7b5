package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/memory"
	"github.com/jholhewres/jarvis/pkg/jarvis/runtime"
	"github.com/jholhewres/jarvis/pkg/jarvis/security"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy(t *testing.T) *security.Policy {
	t.Helper()
	return security.FromConfig(security.AutonomySettings{WorkspaceOnly: true}, t.TempDir())
}

func TestRegistryUniqueNames(t *testing.T) {
	reg := NewRegistry()
	sec := testPolicy(t)

	if err := reg.Register(NewFileReadTool(sec)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(NewFileReadTool(sec)); err == nil {
		t.Error("duplicate name should be rejected")
	}
}

func TestRegistryDefinitions(t *testing.T) {
	reg := NewRegistry()
	sec := testPolicy(t)
	reg.Register(NewFileReadTool(sec))
	reg.Register(NewFileWriteTool(sec))

	defs := reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("got %d definitions", len(defs))
	}
	if defs[0].Type != "function" || defs[0].Function.Name != "file_read" {
		t.Errorf("defs[0] = %+v", defs[0])
	}
	if defs[0].Function.Parameters["type"] != "object" {
		t.Errorf("parameters schema missing type: %v", defs[0].Function.Parameters)
	}
}

func TestShellTool(t *testing.T) {
	sec := testPolicy(t)
	tool := NewShellTool(runtime.Native{}, sec, testLogger())

	res, err := tool.Execute(context.Background(), map[string]any{"command": "echo hi"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || strings.TrimSpace(res.Output) != "hi" {
		t.Errorf("result = %+v", res)
	}
}

func TestShellToolCommandGate(t *testing.T) {
	sec := security.FromConfig(security.AutonomySettings{AllowedCommands: []string{"ls"}}, t.TempDir())
	tool := NewShellTool(runtime.Native{}, sec, testLogger())

	res, err := tool.Execute(context.Background(), map[string]any{"command": "rm -rf /tmp/x"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("disallowed command should fail")
	}
	if !strings.Contains(res.Error, "allowed") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestShellToolMissingArgument(t *testing.T) {
	tool := NewShellTool(runtime.Native{}, testPolicy(t), testLogger())
	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("missing command should return an error")
	}
}

func TestFileWriteThenRead(t *testing.T) {
	sec := testPolicy(t)
	write := NewFileWriteTool(sec)
	read := NewFileReadTool(sec)
	ctx := context.Background()

	res, err := write.Execute(ctx, map[string]any{"path": "notes/todo.md", "content": "buy milk"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("write failed: %+v", res)
	}

	res, err = read.Execute(ctx, map[string]any{"path": "notes/todo.md"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Output != "buy milk" {
		t.Errorf("read = %+v", res)
	}
}

func TestFileToolsRejectEscapes(t *testing.T) {
	sec := testPolicy(t)
	ctx := context.Background()

	for _, path := range []string{"../escape.txt", "/etc/passwd"} {
		res, err := NewFileReadTool(sec).Execute(ctx, map[string]any{"path": path})
		if err != nil {
			t.Fatal(err)
		}
		if res.Success {
			t.Errorf("read of %q should fail", path)
		}

		res, err = NewFileWriteTool(sec).Execute(ctx, map[string]any{"path": path, "content": "x"})
		if err != nil {
			t.Fatal(err)
		}
		if res.Success {
			t.Errorf("write to %q should fail", path)
		}
	}
}

func TestFileReadMissing(t *testing.T) {
	res, err := NewFileReadTool(testPolicy(t)).Execute(context.Background(), map[string]any{"path": "absent.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("reading a missing file should fail")
	}
}

func TestMemoryTools(t *testing.T) {
	store, err := memory.OpenSQLite(filepath.Join(t.TempDir(), "m.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	res, err := NewMemoryStoreTool(store).Execute(ctx, map[string]any{
		"key": "coffee", "content": "takes it black", "category": "core",
	})
	if err != nil || !res.Success {
		t.Fatalf("store: %v %+v", err, res)
	}

	res, err = NewMemoryRecallTool(store).Execute(ctx, map[string]any{"query": "coffee"})
	if err != nil || !res.Success {
		t.Fatalf("recall: %v %+v", err, res)
	}
	if !strings.Contains(res.Output, "takes it black") {
		t.Errorf("recall output = %q", res.Output)
	}

	res, err = NewMemoryForgetTool(store).Execute(ctx, map[string]any{"key": "coffee"})
	if err != nil || !res.Success {
		t.Fatalf("forget: %v %+v", err, res)
	}

	res, err = NewMemoryRecallTool(store).Execute(ctx, map[string]any{"query": "coffee"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != "no matching memories" {
		t.Errorf("after forget = %q", res.Output)
	}
}

func TestBrowserOpenValidation(t *testing.T) {
	tool := NewBrowserOpenTool([]string{"https://docs.example.com/"})
	var opened []string
	tool.open = func(ctx context.Context, url string) error {
		opened = append(opened, url)
		return nil
	}
	ctx := context.Background()

	res, _ := tool.Execute(ctx, map[string]any{"url": "https://docs.example.com/page"})
	if !res.Success {
		t.Errorf("allowed URL should open: %+v", res)
	}
	res, _ = tool.Execute(ctx, map[string]any{"url": "https://evil.example.com/"})
	if res.Success {
		t.Error("URL outside the allow-list should fail")
	}
	res, _ = tool.Execute(ctx, map[string]any{"url": "file:///etc/passwd"})
	if res.Success {
		t.Error("non-http scheme should fail")
	}

	if len(opened) != 1 || opened[0] != "https://docs.example.com/page" {
		t.Errorf("opened = %v", opened)
	}
}

func TestBuiltinRegistry(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tools.Browser.Enabled = true
	sec := testPolicy(t)

	reg, err := Builtin(cfg, sec, runtime.Native{}, memory.Noop{}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"shell", "file_read", "file_write", "memory_store", "memory_recall", "memory_forget", "browser_open"}
	for _, name := range want {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("tool %q missing from built-in registry", name)
		}
	}
	if _, ok := reg.Get("web_search"); ok {
		t.Error("web_search should not be registered when disabled")
	}
}

func TestBuiltinWebSearchNeedsKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tools.WebSearch.Enabled = true

	_, err := Builtin(cfg, testPolicy(t), runtime.Native{}, memory.Noop{}, testLogger())
	if err == nil {
		t.Error("web_search without a key should error")
	}
}

// echoTool is a minimal in-test tool used by harness-adjacent tests.
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echo text back" }
func (echoTool) ParametersSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{"text": map[string]any{"type": "string"}}}
}
func (echoTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	text, ok := args["text"].(string)
	if !ok {
		return Result{}, fmt.Errorf("missing text")
	}
	return Result{Success: true, Output: text}, nil
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool{})

	if _, ok := reg.Get("echo"); !ok {
		t.Error("echo should be registered")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Error("unknown tool should not resolve")
	}
}
