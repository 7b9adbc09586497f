package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/runnerr0/readlater/internal/recency"
	"github.com/runnerr0/readlater/internal/source"
	"github.com/runnerr0/readlater/internal/storage"
)

const listDateLayout = "Jan 2, 2006 3:04 PM"

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	cfg, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	if c.Owner != "" {
		ctx = source.WithOwner(ctx, c.Owner)
	}

	src, closeSrc, err := openSource(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeSrc()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	return c.executeWithSource(ctx, src, loc)
}

// executeWithSource fetches once and prints the grouped library. A fetch
// error is returned unchanged so its message reaches the user verbatim.
func (c *ListCommand) executeWithSource(ctx context.Context, src source.Source, loc *time.Location) error {
	articles, err := src.ListArticles(ctx)
	if err != nil {
		return err
	}

	if c.Unread {
		unread := articles[:0:0]
		for _, a := range articles {
			if !a.IsRead {
				unread = append(unread, a)
			}
		}
		articles = unread
	}

	groups, err := recency.Classify(articles, nowFrom(c.clock).In(loc))
	if err != nil {
		return err
	}
	return printGroups(groups, loc, c.globals != nil && c.globals.JSON)
}

type articleJSON struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Domain    string `json:"domain,omitempty"`
	CreatedAt string `json:"created_at"`
	IsRead    bool   `json:"is_read"`
}

type groupJSON struct {
	Bucket   recency.Bucket `json:"bucket"`
	Articles []articleJSON  `json:"articles"`
}

func toArticleJSON(a storage.Article) articleJSON {
	return articleJSON{
		ID:        a.ID,
		URL:       a.URL,
		Title:     a.Title,
		Domain:    a.Domain,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		IsRead:    a.IsRead,
	}
}

// printGroups writes recency groups as text or JSON.
func printGroups(groups []recency.Group[storage.Article], loc *time.Location, asJSON bool) error {
	if asJSON {
		out := make([]groupJSON, 0, len(groups))
		for _, g := range groups {
			gj := groupJSON{Bucket: g.Bucket, Articles: make([]articleJSON, 0, len(g.Items))}
			for _, a := range g.Items {
				gj.Articles = append(gj.Articles, toArticleJSON(a))
			}
			out = append(out, gj)
		}
		return printJSON(map[string]any{"groups": out})
	}

	if len(groups) == 0 {
		fmt.Println("No saved articles yet.")
		return nil
	}

	heading := color.New(color.Bold)
	badge := color.New(color.FgGreen, color.Bold)
	faint := color.New(color.Faint)

	for i, g := range groups {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(heading.Sprint(g.Bucket))
		for _, a := range g.Items {
			title := a.Title
			if title == "" {
				title = a.URL
			}
			line := "  " + title
			if !a.IsRead {
				line += "  " + badge.Sprint("New")
			}
			fmt.Println(line)

			meta := a.CreatedAt.In(loc).Format(listDateLayout)
			if a.Domain != "" {
				meta += " · " + a.Domain
			}
			fmt.Println("  " + faint.Sprint(meta+" · "+a.ID))
		}
	}
	return nil
}
