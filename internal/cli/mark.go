package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/runnerr0/readlater/internal/storage"
)

// Execute implements the go-flags Commander interface for MarkCommand.
func (c *MarkCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for mark command")
	}

	_, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	return c.executeWithStore(store)
}

func (c *MarkCommand) executeWithStore(store storage.Store) error {
	read := !c.Unread
	if err := store.MarkRead(context.Background(), c.ID, read); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("article not found: %s", c.ID)
		}
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{"id": c.ID, "is_read": read})
	}

	state := "read"
	if !read {
		state = "unread"
	}
	fmt.Printf("Marked %s as %s.\n", c.ID, state)
	return nil
}

// Execute implements the go-flags Commander interface for RemoveCommand.
func (c *RemoveCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for remove command")
	}

	_, store, closeStore, err := openLibrary(c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	return c.executeWithStore(store)
}

func (c *RemoveCommand) executeWithStore(store storage.Store) error {
	if err := store.DeleteArticle(context.Background(), c.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("article not found: %s", c.ID)
		}
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{"id": c.ID, "removed": true})
	}
	fmt.Printf("Removed %s.\n", c.ID)
	return nil
}
