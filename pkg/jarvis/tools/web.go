// Package tools – web.go implements the optional web tools: web_search via
// the Brave Search API and browser_open behind a URL prefix allow-list.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// WebSearchTool queries the Brave Search API.
type WebSearchTool struct {
	apiKey     string
	httpClient *http.Client
}

// NewWebSearchTool creates the web_search tool.
func NewWebSearchTool(apiKey string) *WebSearchTool {
	return &WebSearchTool{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web and return the top results with titles, URLs, and snippets."
}

func (t *WebSearchTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
			"count": map[string]any{
				"type":        "integer",
				"description": "Number of results to return (default 5, max 10).",
			},
		},
		"required": []string{"query"},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return Result{}, err
	}
	count := optionalIntArg(args, "count", 5)
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}

	endpoint := fmt.Sprintf("%s?q=%s&count=%d", braveSearchURL, url.QueryEscape(query), count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("search request failed: %v", err)}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Success: false, Error: fmt.Sprintf("search API returned %d", resp.StatusCode)}, nil
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("parsing search results: %v", err)}, nil
	}
	if len(parsed.Web.Results) == 0 {
		return Result{Success: true, Output: "no results"}, nil
	}

	var b strings.Builder
	for i, r := range parsed.Web.Results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Description)
	}
	return Result{Success: true, Output: strings.TrimRight(b.String(), "\n")}, nil
}

// BrowserOpenTool opens a URL in the user's default browser, restricted to
// http(s) and an optional prefix allow-list.
type BrowserOpenTool struct {
	allowedPrefixes []string
	// open is swappable in tests.
	open func(ctx context.Context, url string) error
}

// NewBrowserOpenTool creates the browser_open tool.
func NewBrowserOpenTool(allowedPrefixes []string) *BrowserOpenTool {
	return &BrowserOpenTool{
		allowedPrefixes: allowedPrefixes,
		open:            openInBrowser,
	}
}

func (t *BrowserOpenTool) Name() string { return "browser_open" }

func (t *BrowserOpenTool) Description() string {
	return "Open a URL in the user's default browser."
}

func (t *BrowserOpenTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The http(s) URL to open.",
			},
		},
		"required": []string{"url"},
	}
}

func (t *BrowserOpenTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	raw, err := stringArg(args, "url")
	if err != nil {
		return Result{}, err
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Result{Success: false, Error: fmt.Sprintf("invalid URL %q (want http or https)", raw)}, nil
	}
	if len(t.allowedPrefixes) > 0 {
		allowed := false
		for _, prefix := range t.allowedPrefixes {
			if strings.HasPrefix(raw, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Result{Success: false, Error: fmt.Sprintf("URL %q is not in the allowed list", raw)}, nil
		}
	}

	if err := t.open(ctx, raw); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Output: "opened " + raw}, nil
}

func openInBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	return cmd.Start()
}
