package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/readlater/internal/render"
	"github.com/runnerr0/readlater/internal/storage"
)

// Execute implements the go-flags Commander interface for OpenCommand.
func (c *OpenCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for open command")
	}

	cfg, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	return c.executeWithStore(store, loc)
}

// executeWithStore prints the article from a provided store (used by tests).
func (c *OpenCommand) executeWithStore(store storage.Store, loc *time.Location) error {
	article, err := store.GetArticle(context.Background(), c.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("article not found: %s", c.ID)
		}
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return c.outputJSON(article)
	}

	switch c.Format {
	case "text":
		c.outputText(article)
	case "html":
		fmt.Println(render.NewHTMLRenderer().Render(article.Content))
	case "md":
		c.outputMarkdown(article)
	case "json":
		return c.outputJSON(article)
	case "full", "":
		c.outputFull(article, loc)
	default:
		return fmt.Errorf("unknown format %q (use full, text, html, md or json)", c.Format)
	}
	return nil
}

func (c *OpenCommand) outputFull(a *storage.Article, loc *time.Location) {
	fmt.Println(a.ID)
	fmt.Printf("Title:     %s\n", a.Title)
	fmt.Printf("URL:       %s\n", a.URL)
	fmt.Printf("Domain:    %s\n", a.Domain)
	fmt.Printf("Saved:     %s\n", a.CreatedAt.In(loc).Format("Jan 2, 2006 3:04 PM"))
	fmt.Printf("Read:      %s\n", yesNo(a.IsRead))
	fmt.Println()
	fmt.Println("--- Content ---")
	c.outputText(a)
}

func (c *OpenCommand) outputText(a *storage.Article) {
	text := render.PlainText(a.Content)
	if text == "" {
		fmt.Println("No content saved")
		return
	}
	fmt.Println(text)
}

func (c *OpenCommand) outputMarkdown(a *storage.Article) {
	fmt.Println("---")
	fmt.Printf("id: %s\n", a.ID)
	fmt.Printf("title: %s\n", a.Title)
	fmt.Printf("url: %s\n", a.URL)
	fmt.Printf("domain: %s\n", a.Domain)
	fmt.Printf("saved: %s\n", a.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Printf("read: %t\n", a.IsRead)
	fmt.Println("---")
	fmt.Println()
	c.outputText(a)
}

func (c *OpenCommand) outputJSON(a *storage.Article) error {
	result := map[string]interface{}{
		"id":         a.ID,
		"title":      a.Title,
		"url":        a.URL,
		"domain":     a.Domain,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339),
		"is_read":    a.IsRead,
		"content":    a.Content,
	}
	if !a.ReadAt.IsZero() {
		result["read_at"] = a.ReadAt.UTC().Format(time.RFC3339)
	}
	if a.ContentHash != "" {
		result["content_hash"] = a.ContentHash
	}
	return printJSON(result)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
