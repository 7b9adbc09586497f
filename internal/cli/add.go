package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/runnerr0/readlater/internal/config"
	"github.com/runnerr0/readlater/internal/ingest"
	"github.com/runnerr0/readlater/internal/storage"
)

// pageFetcher downloads and extracts an article.
type pageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*ingest.Page, error)
}

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}
	if c.Title == "" && !c.Fetch {
		return fmt.Errorf("--title is required for add command unless --fetch is set")
	}

	cfg, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeStore()

	if c.fetcher == nil {
		c.fetcher = newFetcher(cfg)
	}
	return c.executeWithStore(store)
}

func newFetcher(cfg *config.Config) *ingest.Fetcher {
	return ingest.NewFetcher(ingest.Options{
		Timeout:      time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second,
		MaxBodyBytes: cfg.Ingest.MaxBodyBytes,
		UserAgent:    cfg.Ingest.UserAgent,
	})
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(store storage.Store) error {
	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}

	if c.Body != "" && c.BodyFile != "" {
		return fmt.Errorf("--body and --body-file are mutually exclusive")
	}
	if c.Fetch && (c.Body != "" || c.BodyFile != "") {
		return fmt.Errorf("--fetch cannot be combined with --body or --body-file")
	}

	body := c.Body
	if c.BodyFile != "" {
		data, err := os.ReadFile(c.BodyFile)
		if err != nil {
			return fmt.Errorf("reading body file: %w", err)
		}
		body = string(data)
	}

	ctx := context.Background()

	article := &storage.Article{URL: c.URL, Title: c.Title, Content: body}

	if c.Fetch {
		if c.fetcher == nil {
			return fmt.Errorf("no fetcher configured")
		}
		page, err := c.fetcher.Fetch(ctx, c.URL)
		if err != nil {
			return err
		}
		article.URL = page.URL
		article.Content = page.Content
		if article.Title == "" {
			article.Title = page.Title
		}
		if article.Title == "" {
			article.Title = page.URL
		}
	}

	if err := store.AddArticle(ctx, article); err != nil {
		return fmt.Errorf("storing article: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"id":         article.ID,
			"url":        article.URL,
			"title":      article.Title,
			"created_at": article.CreatedAt.UTC().Format(time.RFC3339),
			"content":    article.Content != "",
		})
	}

	fmt.Printf("Added article %s (%s)\n", article.ID, article.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  URL: %s\n", article.URL)
	fmt.Printf("  Title: %s\n", article.Title)
	fmt.Printf("  Content: %s\n", yesNo(article.Content != ""))

	return nil
}
