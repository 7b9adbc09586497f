package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/readlater/internal/storage"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	cfg, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	return c.executeWithStore(store, cfg.Retention.Days)
}

// executeWithStore prunes a provided store (used by tests). retentionDays
// applies when --older-than is not given; zero disables pruning.
func (c *PruneCommand) executeWithStore(store storage.Store, retentionDays int) error {
	var olderThan time.Duration
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return err
		}
		olderThan = d
	} else {
		if retentionDays <= 0 {
			fmt.Println("Retention is disabled (retention.days is 0); nothing to prune.")
			return nil
		}
		olderThan = time.Duration(retentionDays) * 24 * time.Hour
	}

	ctx := context.Background()
	cutoff := nowFrom(c.clock).Add(-olderThan)
	asJSON := c.globals != nil && c.globals.JSON

	count, err := store.CountOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if c.DryRun {
		if asJSON {
			return c.printResult(count, true, olderThan)
		}
		fmt.Printf("[DRY RUN] Would prune %d articles older than %s.\n", count, formatDurationHuman(olderThan))
		return nil
	}

	if count == 0 {
		if asJSON {
			return c.printResult(0, false, olderThan)
		}
		fmt.Println("No articles to prune.")
		return nil
	}

	if !c.Force && !asJSON {
		fmt.Printf("This will delete %d articles older than %s. Proceed? [y/N] ", count, formatDurationHuman(olderThan))
		if !c.confirm() {
			fmt.Println("Aborted.")
			return nil
		}
	}

	pruned, err := store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if asJSON {
		return c.printResult(pruned, false, olderThan)
	}
	fmt.Printf("Pruned %d articles older than %s.\n", pruned, formatDurationHuman(olderThan))
	return nil
}

func (c *PruneCommand) confirm() bool {
	in := c.stdin
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func (c *PruneCommand) printResult(n int64, dryRun bool, olderThan time.Duration) error {
	return printJSON(map[string]interface{}{
		"pruned":     n,
		"dry_run":    dryRun,
		"older_than": formatDurationHuman(olderThan),
	})
}
