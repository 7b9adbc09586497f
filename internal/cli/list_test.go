package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/readlater/internal/recency"
	"github.com/runnerr0/readlater/internal/source"
	"github.com/runnerr0/readlater/internal/storage"
)

func sampleArticles() []storage.Article {
	return []storage.Article{
		{ID: "a1", URL: "https://go.dev/blog", Title: "Go Blog", Domain: "go.dev", CreatedAt: fixedNow.Add(-2 * time.Hour)},
		{ID: "a2", URL: "https://example.com/y", Title: "Yesterday Post", Domain: "example.com", CreatedAt: fixedNow.Add(-24 * time.Hour), IsRead: true},
		{ID: "a3", URL: "https://example.com/w", Title: "", Domain: "example.com", CreatedAt: fixedNow.Add(-4 * 24 * time.Hour)},
		{ID: "a4", URL: "https://old.org/", Title: "Old One", Domain: "old.org", CreatedAt: fixedNow.Add(-30 * 24 * time.Hour)},
	}
}

func staticSource(articles []storage.Article, err error) source.Source {
	return source.Func(func(ctx context.Context) ([]storage.Article, error) {
		return articles, err
	})
}

func TestList_GroupsInBucketOrder(t *testing.T) {
	cmd := &ListCommand{globals: &GlobalFlags{}, clock: fixedClock}

	var err error
	out := captureOutput(t, func() {
		err = cmd.executeWithSource(context.Background(), staticSource(sampleArticles(), nil), time.UTC)
	})
	require.NoError(t, err)

	today := strings.Index(out, "Today")
	yesterday := strings.Index(out, "Yesterday\n")
	week := strings.Index(out, "Earlier this Week")
	earlier := strings.Index(out, "Earlier\n")
	require.True(t, today >= 0 && yesterday > today && week > yesterday && earlier > week, out)

	assert.Contains(t, out, "Go Blog  New")
	assert.NotContains(t, out, "Yesterday Post  New")
	// Untitled articles fall back to the URL.
	assert.Contains(t, out, "  https://example.com/w  New")
	assert.Contains(t, out, "Jun 15, 2024 10:00 AM · go.dev · a1")
}

func TestList_Empty(t *testing.T) {
	cmd := &ListCommand{globals: &GlobalFlags{}, clock: fixedClock}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSource(context.Background(), staticSource(nil, nil), time.UTC))
	})
	assert.Equal(t, "No saved articles yet.\n", out)
}

func TestList_FetchErrorVerbatim(t *testing.T) {
	cmd := &ListCommand{globals: &GlobalFlags{}, clock: fixedClock}
	fetchErr := errors.New("connection refused: library offline")

	var err error
	out := captureOutput(t, func() {
		err = cmd.executeWithSource(context.Background(), staticSource(nil, fetchErr), time.UTC)
	})
	require.Error(t, err)
	assert.Equal(t, "connection refused: library offline", err.Error())
	assert.Empty(t, out)
}

func TestList_InvalidTimestampFails(t *testing.T) {
	cmd := &ListCommand{globals: &GlobalFlags{}, clock: fixedClock}
	articles := sampleArticles()
	articles[1].CreatedAt = time.Time{}

	var err error
	out := captureOutput(t, func() {
		err = cmd.executeWithSource(context.Background(), staticSource(articles, nil), time.UTC)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, recency.ErrInvalidTimestamp)
	assert.Empty(t, out)
}

func TestList_UnreadOnly(t *testing.T) {
	cmd := &ListCommand{Unread: true, globals: &GlobalFlags{}, clock: fixedClock}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSource(context.Background(), staticSource(sampleArticles(), nil), time.UTC))
	})
	assert.NotContains(t, out, "Yesterday Post")
	assert.NotContains(t, out, "Yesterday\n")
	assert.Contains(t, out, "Go Blog")
}

func TestList_JSON(t *testing.T) {
	cmd := &ListCommand{globals: &GlobalFlags{JSON: true}, clock: fixedClock}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSource(context.Background(), staticSource(sampleArticles(), nil), time.UTC))
	})

	var result struct {
		Groups []struct {
			Bucket   string `json:"bucket"`
			Articles []struct {
				ID     string `json:"id"`
				IsRead bool   `json:"is_read"`
			} `json:"articles"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Groups, 4)
	assert.Equal(t, "Today", result.Groups[0].Bucket)
	assert.Equal(t, "a1", result.Groups[0].Articles[0].ID)
	assert.Equal(t, "Yesterday", result.Groups[1].Bucket)
	assert.True(t, result.Groups[1].Articles[0].IsRead)
	assert.Equal(t, "Earlier this Week", result.Groups[2].Bucket)
	assert.Equal(t, "Earlier", result.Groups[3].Bucket)
}

func TestList_FromStore(t *testing.T) {
	store, _, _ := openTestStore(t)
	addArticle(t, store, "https://go.dev/doc", "Docs", "", fixedNow.Add(-time.Hour))
	addArticle(t, store, "https://go.dev/old", "Old Docs", "", fixedNow.Add(-10*24*time.Hour))

	cmd := &ListCommand{globals: &GlobalFlags{}, clock: fixedClock}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSource(context.Background(), store, time.UTC))
	})
	assert.Contains(t, out, "Today\n  Docs  New")
	assert.Contains(t, out, "Earlier\n  Old Docs  New")
}

func TestList_LocationShiftsBuckets(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in Tokyo.
	articles := []storage.Article{{ID: "t", Title: "Late", CreatedAt: time.Date(2024, 6, 14, 23, 30, 0, 0, time.UTC)}}
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	cmd := &ListCommand{globals: &GlobalFlags{}, clock: fixedClock}

	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSource(context.Background(), staticSource(articles, nil), time.UTC))
	})
	assert.True(t, strings.HasPrefix(out, "Yesterday"), out)

	out = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSource(context.Background(), staticSource(articles, nil), tokyo))
	})
	assert.True(t, strings.HasPrefix(out, "Today"), out)
}
