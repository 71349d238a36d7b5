package runtime

import (
	"context"
	"strings"
	"testing"
)

func TestCreate(t *testing.T) {
	cases := []struct {
		kind    string
		wantErr bool
	}{
		{"native", false},
		{"docker", true},
		{"cloudflare", true},
		{"", true},
		{"warp", true},
	}
	for _, tc := range cases {
		_, err := Create(tc.kind)
		if (err != nil) != tc.wantErr {
			t.Errorf("Create(%q) error = %v, wantErr %v", tc.kind, err, tc.wantErr)
		}
	}
}

func TestNativeExec(t *testing.T) {
	r := Native{}
	out, err := r.Exec(context.Background(), t.TempDir(), "echo hello")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("output = %q", out)
	}
}

func TestNativeExecFailureKeepsOutput(t *testing.T) {
	r := Native{}
	out, err := r.Exec(context.Background(), t.TempDir(), "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "oops") {
		t.Errorf("stderr should be captured, got %q", out)
	}
}

func TestNativeExecShellSemantics(t *testing.T) {
	r := Native{}
	out, err := r.Exec(context.Background(), t.TempDir(), "echo a && echo b | tr b c")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "a\nc" {
		t.Errorf("output = %q", out)
	}
}
