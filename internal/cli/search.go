package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/runnerr0/readlater/internal/recency"
	"github.com/runnerr0/readlater/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
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

// executeWithStore runs the search against a provided store (used by tests).
func (c *SearchCommand) executeWithStore(store storage.Store, loc *time.Location) error {
	now := nowFrom(c.clock)

	q := storage.SearchQuery{
		Query:      strings.Join(c.Args.Query, " "),
		UnreadOnly: c.Unread,
		Limit:      c.Limit,
		Offset:     c.Offset,
	}

	if c.Since != "" {
		d, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		q.Since = now.Add(-d)
	}
	if c.Until != "" {
		d, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("--until: %w", err)
		}
		q.Until = now.Add(-d)
	}

	ctx := context.Background()

	// One query per domain; the store filters on a single domain.
	var results []storage.Article
	if len(c.Domain) == 0 {
		found, err := store.SearchArticles(ctx, q)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		results = found
	} else {
		seen := map[string]bool{}
		for _, d := range c.Domain {
			q.Domain = d
			found, err := store.SearchArticles(ctx, q)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			for _, a := range found {
				if !seen[a.ID] {
					seen[a.ID] = true
					results = append(results, a)
				}
			}
		}
		sortNewestFirst(results)
	}

	groups, err := recency.Classify(results, now.In(loc))
	if err != nil {
		return err
	}

	asJSON := c.globals != nil && c.globals.JSON
	if !asJSON && len(groups) == 0 {
		fmt.Println("No matching articles.")
		return nil
	}
	return printGroups(groups, loc, asJSON)
}

func sortNewestFirst(articles []storage.Article) {
	slices.SortStableFunc(articles, func(a, b storage.Article) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
