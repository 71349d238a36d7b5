package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChatMessageRoundTrip(t *testing.T) {
	preamble := "checking the weather"
	cases := []struct {
		name string
		msg  ChatMessage
	}{
		{"system", SystemMessage("you are a helpful assistant")},
		{"user", UserMessage("hello")},
		{"assistant text", AssistantMessage(ptr("hi there"), nil)},
		{"assistant tool calls", AssistantMessage(&preamble, []ToolCall{
			{ID: "call_1", Type: "function", Function: FunctionCall{Name: "shell", Arguments: `{"command":"date"}`}},
		})},
		{"tool", ToolMessage("call_1", "Mon Jan 1")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.msg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got ChatMessage
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tc.msg) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tc.msg)
			}
		})
	}
}

func TestChatMessageOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(UserMessage("hi"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"tool_calls", "tool_call_id"} {
		if _, ok := raw[field]; ok {
			t.Errorf("user message should omit %q, got %s", field, data)
		}
	}
}

func TestFunctionCallArgumentsStringOrObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"string form", `{"name":"echo","arguments":"{\"text\":\"hi\"}"}`, `{"text":"hi"}`},
		{"object form", `{"name":"echo","arguments":{"text":"hi"}}`, `{"text":"hi"}`},
		{"missing", `{"name":"echo"}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fc FunctionCall
			if err := json.Unmarshal([]byte(tc.in), &fc); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if fc.Name != "echo" {
				t.Errorf("name = %q, want echo", fc.Name)
			}
			if fc.Arguments != tc.want {
				t.Errorf("arguments = %q, want %q", fc.Arguments, tc.want)
			}
		})
	}
}

func TestObjectArgumentsSemanticallyEqual(t *testing.T) {
	in := `{"name":"f","arguments":{"b":2,"a":"x"}}`
	var fc FunctionCall
	if err := json.Unmarshal([]byte(in), &fc); err != nil {
		t.Fatal(err)
	}
	var got, want map[string]any
	if err := json.Unmarshal([]byte(fc.Arguments), &got); err != nil {
		t.Fatalf("re-parsing normalized arguments: %v", err)
	}
	json.Unmarshal([]byte(`{"a":"x","b":2}`), &want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalized arguments = %v, want %v", got, want)
	}
}

func TestChatCompletionsURLDetection(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://example.com/custom/chat/completions", "https://example.com/custom/chat/completions"},
	}
	for _, tc := range cases {
		p := NewOpenAICompatible(CompatibleOptions{BaseURL: tc.base, APIKey: "k"}, testLogger())
		if got := p.chatCompletionsURL(); got != tc.want {
			t.Errorf("chatCompletionsURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestAuthStyles(t *testing.T) {
	cases := []struct {
		name   string
		opts   CompatibleOptions
		header string
		want   string
	}{
		{"bearer", CompatibleOptions{APIKey: "sk-1"}, "Authorization", "Bearer sk-1"},
		{"x-api-key", CompatibleOptions{APIKey: "sk-2", AuthStyle: AuthXAPIKey}, "X-Api-Key", "sk-2"},
		{"custom", CompatibleOptions{APIKey: "sk-3", AuthStyle: AuthCustom, AuthHeader: "X-Token"}, "X-Token", "sk-3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tc.header)
				fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
			}))
			defer srv.Close()

			opts := tc.opts
			opts.BaseURL = srv.URL
			p := NewOpenAICompatible(opts, testLogger())
			if _, err := p.ChatWithTools(context.Background(), []ChatMessage{UserMessage("hi")}, nil, "m", 0.7); err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("auth header = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestChatWithToolsParsesToolUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Tools) != 1 {
			t.Errorf("tools = %d, want 1", len(req.Tools))
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"let me check","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"shell","arguments":{"command":"ls"}}}
		]}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAICompatible(CompatibleOptions{BaseURL: srv.URL, APIKey: "k"}, testLogger())
	defs := []ToolDefinition{{Type: "function", Function: FunctionDef{Name: "shell", Description: "run", Parameters: map[string]any{"type": "object"}}}}

	resp, err := p.ChatWithTools(context.Background(), []ChatMessage{UserMessage("list files")}, defs, "test-model", 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsToolUse() {
		t.Fatal("expected tool use")
	}
	if resp.Text != "let me check" {
		t.Errorf("preamble = %q", resp.Text)
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "shell" {
		t.Errorf("unexpected call %+v", call)
	}
	if call.Function.Arguments != `{"command":"ls"}` {
		t.Errorf("arguments = %q", call.Function.Arguments)
	}
}

func TestChatWithSystemFallsBackToResponsesOn404(t *testing.T) {
	var completionsHits, responsesHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/completions":
			completionsHits++
			http.Error(w, "not found", http.StatusNotFound)
		case "/v1/responses":
			responsesHits++
			fmt.Fprint(w, `{"output":[{"type":"message","content":[{"type":"output_text","text":"from responses"}]}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewOpenAICompatible(CompatibleOptions{BaseURL: srv.URL, APIKey: "k"}, testLogger())
	text, err := p.ChatWithSystem(context.Background(), "sys", "hello", "m", 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if text != "from responses" {
		t.Errorf("text = %q", text)
	}
	if completionsHits != 1 || responsesHits != 1 {
		t.Errorf("hits = %d/%d, want 1/1", completionsHits, responsesHits)
	}
}

func TestChatWithToolsDoesNotFallBackOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOpenAICompatible(CompatibleOptions{BaseURL: srv.URL, APIKey: "k"}, testLogger())
	_, err := p.ChatWithTools(context.Background(), []ChatMessage{UserMessage("hi")}, nil, "m", 0.7)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractResponsesTextPrefersOutputText(t *testing.T) {
	text, err := extractResponsesText([]byte(`{"output_text":"direct"}`))
	if err != nil {
		t.Fatal(err)
	}
	if text != "direct" {
		t.Errorf("text = %q", text)
	}
}

// scriptedProvider returns canned results, one per call.
type scriptedProvider struct {
	calls   int
	results []func() (*ChatResponse, error)
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) ChatWithSystem(ctx context.Context, system, message, model string, temperature float64) (string, error) {
	resp, err := s.next()
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (s *scriptedProvider) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, model string, temperature float64) (*ChatResponse, error) {
	return s.next()
}

func (s *scriptedProvider) Warmup(ctx context.Context) error { return nil }

func (s *scriptedProvider) next() (*ChatResponse, error) {
	if s.calls >= len(s.results) {
		return nil, fmt.Errorf("scripted provider exhausted after %d calls", s.calls)
	}
	r := s.results[s.calls]
	s.calls++
	return r()
}

func TestResilientRetriesTransientErrors(t *testing.T) {
	inner := &scriptedProvider{results: []func() (*ChatResponse, error){
		func() (*ChatResponse, error) { return nil, &APIError{Status: 503, Body: "overloaded"} },
		func() (*ChatResponse, error) { return nil, &APIError{Status: 500, Body: "boom"} },
		func() (*ChatResponse, error) { return &ChatResponse{Text: "ok"}, nil },
	}}
	r := NewResilient(inner, 3, time.Millisecond, testLogger())
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	resp, err := r.ChatWithTools(context.Background(), []ChatMessage{UserMessage("hi")}, nil, "m", 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "ok" {
		t.Errorf("text = %q", resp.Text)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestResilientDoesNotRetryPermanentErrors(t *testing.T) {
	inner := &scriptedProvider{results: []func() (*ChatResponse, error){
		func() (*ChatResponse, error) { return nil, &APIError{Status: 401, Body: "bad key"} },
	}}
	r := NewResilient(inner, 3, time.Millisecond, testLogger())
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	if _, err := r.ChatWithTools(context.Background(), []ChatMessage{UserMessage("hi")}, nil, "m", 0.7); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestResilientBackoffDoubles(t *testing.T) {
	inner := &scriptedProvider{results: []func() (*ChatResponse, error){
		func() (*ChatResponse, error) { return nil, &APIError{Status: 500} },
		func() (*ChatResponse, error) { return nil, &APIError{Status: 500} },
		func() (*ChatResponse, error) { return nil, &APIError{Status: 500} },
	}}
	r := NewResilient(inner, 3, 100*time.Millisecond, testLogger())
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := r.ChatWithTools(context.Background(), []ChatMessage{UserMessage("hi")}, nil, "m", 0.7); err == nil {
		t.Fatal("expected error")
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if !reflect.DeepEqual(slept, want) {
		t.Errorf("sleeps = %v, want %v", slept, want)
	}
}

func TestRegistryLookup(t *testing.T) {
	ep, ok := Lookup("openrouter")
	if !ok {
		t.Fatal("openrouter should be in the catalog")
	}
	if ep.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("base URL = %q", ep.BaseURL)
	}

	if _, err := Create(Settings{Provider: "nope"}, testLogger()); err == nil {
		t.Error("unknown provider without base_url should error")
	}
	if _, err := Create(Settings{Provider: "nope", BaseURL: "https://example.com/v1"}, testLogger()); err != nil {
		t.Errorf("custom base_url should succeed: %v", err)
	}
}

func ptr(s string) *string { return &s }
