package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openBody = `<h1>Heading</h1><p>First paragraph.</p><script>alert(1)</script><p>Second <a href="https://x.test" onclick="steal()">link</a>.</p>`

func TestOpen_Full(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/post", "A Post", openBody, fixedNow)

	cmd := &OpenCommand{ID: a.ID, Format: "full", globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, time.UTC))
	})

	assert.True(t, strings.HasPrefix(out, a.ID+"\n"))
	assert.Contains(t, out, "Title:     A Post")
	assert.Contains(t, out, "Domain:    example.com")
	assert.Contains(t, out, "Saved:     Jun 15, 2024 12:00 PM")
	assert.Contains(t, out, "Read:      no")
	assert.Contains(t, out, "--- Content ---")
	assert.Contains(t, out, "First paragraph.")
	assert.NotContains(t, out, "alert(1)")
}

func TestOpen_Text(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/post", "A Post", openBody, fixedNow)

	cmd := &OpenCommand{ID: a.ID, Format: "text", globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, time.UTC))
	})
	assert.Equal(t, "Heading First paragraph. Second link.\n", out)
}

func TestOpen_HTMLIsSanitized(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/post", "A Post", openBody, fixedNow)

	cmd := &OpenCommand{ID: a.ID, Format: "html", globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, time.UTC))
	})
	assert.Contains(t, out, "<h1>Heading</h1>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onclick")
}

func TestOpen_Markdown(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/post", "A Post", openBody, fixedNow)

	cmd := &OpenCommand{ID: a.ID, Format: "md", globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, time.UTC))
	})
	assert.True(t, strings.HasPrefix(out, "---\nid: "+a.ID+"\n"))
	assert.Contains(t, out, "saved: 2024-06-15T12:00:00Z")
	assert.Contains(t, out, "read: false")
}

func TestOpen_JSON(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/post", "A Post", openBody, fixedNow)

	for _, cmd := range []*OpenCommand{
		{ID: a.ID, Format: "json", globals: &GlobalFlags{}},
		{ID: a.ID, Format: "full", globals: &GlobalFlags{JSON: true}},
	} {
		out := captureOutput(t, func() {
			require.NoError(t, cmd.executeWithStore(store, time.UTC))
		})
		var result map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, a.ID, result["id"])
		assert.Equal(t, "A Post", result["title"])
		assert.Equal(t, openBody, result["content"])
		assert.Equal(t, "2024-06-15T12:00:00Z", result["created_at"])
		assert.NotEmpty(t, result["content_hash"])
	}
}

func TestOpen_NoContent(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/empty", "Empty", "", fixedNow)

	cmd := &OpenCommand{ID: a.ID, Format: "text", globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, time.UTC))
	})
	assert.Equal(t, "No content saved\n", out)
}

func TestOpen_NotFound(t *testing.T) {
	store, _, _ := openTestStore(t)
	cmd := &OpenCommand{ID: "missing", Format: "full", globals: &GlobalFlags{}}
	err := cmd.executeWithStore(store, time.UTC)
	require.Error(t, err)
	assert.Equal(t, "article not found: missing", err.Error())
}

func TestOpen_UnknownFormat(t *testing.T) {
	store, _, _ := openTestStore(t)
	a := addArticle(t, store, "https://example.com/post", "A Post", openBody, fixedNow)

	cmd := &OpenCommand{ID: a.ID, Format: "pdf", globals: &GlobalFlags{}}
	err := cmd.executeWithStore(store, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestOpen_RequiresID(t *testing.T) {
	cmd := &OpenCommand{globals: &GlobalFlags{}}
	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id")
}
