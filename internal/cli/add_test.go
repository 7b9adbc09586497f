package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/readlater/internal/ingest"
)

type fakeFetcher struct {
	page *ingest.Page
	err  error
	got  string
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*ingest.Page, error) {
	f.got = rawURL
	return f.page, f.err
}

func TestAdd_WithInlineBody(t *testing.T) {
	store, _, _ := openTestStore(t)
	cmd := &AddCommand{URL: "https://example.com/a", Title: "Inline", Body: "<p>hello</p>", globals: &GlobalFlags{}}

	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, out, "Added article ")
	assert.Contains(t, out, "  URL: https://example.com/a")
	assert.Contains(t, out, "  Title: Inline")
	assert.Contains(t, out, "  Content: yes")

	articles, err := store.ListArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "example.com", articles[0].Domain)
	assert.False(t, articles[0].IsRead)

	full, err := store.GetArticle(context.Background(), articles[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", full.Content)
}

func TestAdd_WithBodyFile(t *testing.T) {
	store, _, _ := openTestStore(t)
	path := filepath.Join(t.TempDir(), "body.html")
	require.NoError(t, os.WriteFile(path, []byte("<article>from file</article>"), 0644))

	cmd := &AddCommand{URL: "https://example.com/f", Title: "File", BodyFile: path, globals: &GlobalFlags{JSON: true}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["content"])

	full, err := store.GetArticle(context.Background(), result["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "<article>from file</article>", full.Content)
}

func TestAdd_NoBody(t *testing.T) {
	store, _, _ := openTestStore(t)
	cmd := &AddCommand{URL: "https://example.com/bare", Title: "Bare", globals: &GlobalFlags{}}

	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, out, "  Content: no")
}

func TestAdd_Fetch(t *testing.T) {
	store, _, _ := openTestStore(t)
	f := &fakeFetcher{page: &ingest.Page{
		URL:     "https://example.com/final",
		Title:   "Fetched Title",
		Content: "<p>extracted</p>",
	}}
	cmd := &AddCommand{URL: "https://example.com/start", Fetch: true, fetcher: f, globals: &GlobalFlags{}}

	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Equal(t, "https://example.com/start", f.got)
	assert.Contains(t, out, "  URL: https://example.com/final")
	assert.Contains(t, out, "  Title: Fetched Title")
}

func TestAdd_FetchKeepsExplicitTitle(t *testing.T) {
	store, _, _ := openTestStore(t)
	f := &fakeFetcher{page: &ingest.Page{URL: "https://example.com/p", Title: "Page Title", Content: "<p>x</p>"}}
	cmd := &AddCommand{URL: "https://example.com/p", Title: "Mine", Fetch: true, fetcher: f, globals: &GlobalFlags{}}

	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, out, "  Title: Mine")
}

func TestAdd_FetchUntitledFallsBackToURL(t *testing.T) {
	store, _, _ := openTestStore(t)
	f := &fakeFetcher{page: &ingest.Page{URL: "https://example.com/p", Content: "<p>x</p>"}}
	cmd := &AddCommand{URL: "https://example.com/p", Fetch: true, fetcher: f, globals: &GlobalFlags{}}

	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, out, "  Title: https://example.com/p")
}

func TestAdd_FetchErrorStoresNothing(t *testing.T) {
	store, _, _ := openTestStore(t)
	f := &fakeFetcher{err: errors.New("unexpected status 404")}
	cmd := &AddCommand{URL: "https://example.com/gone", Fetch: true, fetcher: f, globals: &GlobalFlags{}}

	err := cmd.executeWithStore(store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	articles, err := store.ListArticles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestAdd_Validation(t *testing.T) {
	store, _, _ := openTestStore(t)

	tests := []struct {
		name    string
		cmd     AddCommand
		wantErr string
	}{
		{"bad url", AddCommand{URL: "not a url", Title: "x"}, "invalid URL"},
		{"body and file", AddCommand{URL: "https://a.com", Title: "x", Body: "b", BodyFile: "f"}, "mutually exclusive"},
		{"fetch and body", AddCommand{URL: "https://a.com", Fetch: true, Body: "b"}, "--fetch cannot be combined"},
		{"missing file", AddCommand{URL: "https://a.com", Title: "x", BodyFile: "/nonexistent/body.html"}, "reading body file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd
			cmd.globals = &GlobalFlags{}
			err := cmd.executeWithStore(store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAdd_RequiredFlags(t *testing.T) {
	err := (&AddCommand{globals: &GlobalFlags{}}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url")

	err = (&AddCommand{URL: "https://a.com", globals: &GlobalFlags{}}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--title")
}
