package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/runnerr0/readlater/internal/config"
	"github.com/runnerr0/readlater/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalArticles     int64             `json:"total_articles"`
	UnreadArticles    int64             `json:"unread_articles"`
	WithContent       int64             `json:"with_content"`
	OldestArticle     string            `json:"oldest_article,omitempty"`
	NewestArticle     string            `json:"newest_article,omitempty"`
	RetentionDays     int               `json:"retention_days"`
	Source            string            `json:"source"`
	TopDomains        []domainCountJSON `json:"top_domains"`
	ServerAddr        string            `json:"server_addr"`
	ServerRunning     bool              `json:"server_running"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	store, db, err := openStore(dbPath, cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, db, dbPath, cfg)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(store storage.Store, db *sql.DB, dbPath string, cfg *config.Config) error {
	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	stats.DatabaseSizeBytes = getDatabaseSize(db, dbPath)

	running := checkServer(c.client, "http://"+cfg.Addr()+"/healthz")

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, dbPath, cfg, running)
	}
	return c.printStatusHuman(stats, dbPath, cfg, running)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, dbPath string, cfg *config.Config, running bool) error {
	fmt.Println("readlater Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(stats.DatabaseSizeBytes))
	fmt.Printf("Articles:      %s\n", formatNumber(stats.TotalArticles))
	fmt.Printf("Unread:        %s\n", formatNumber(stats.UnreadArticles))

	if stats.TotalArticles > 0 {
		pct := float64(stats.WithContent) / float64(stats.TotalArticles) * 100
		fmt.Printf("Content:       %s (%.1f%%)\n", formatNumber(stats.WithContent), pct)
		fmt.Printf("Oldest:        %s\n", stats.OldestArticle.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestArticle.Local().Format("2006-01-02"))
	} else {
		fmt.Printf("Content:       %s\n", formatNumber(stats.WithContent))
	}

	fmt.Printf("Retention:     %d days\n", cfg.Retention.Days)
	fmt.Printf("Source:        %s\n", cfg.Source.Kind)

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithConfig(tablewriter.Config{
				Row: tw.CellConfig{
					Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				},
			}),
			tablewriter.WithRendition(tw.Rendition{Borders: tw.BorderNone}),
		)
		rows := make([][]string, 0, len(stats.TopDomains))
		for _, d := range stats.TopDomains {
			rows = append(rows, []string{d.Domain, formatNumber(d.Count)})
		}
		table.Header([]string{"Domain", "Articles"})
		table.Bulk(rows)
		table.Render()
	}

	fmt.Println()
	state := color.New(color.FgRed).Sprint("not running")
	if running {
		state = color.New(color.FgGreen).Sprint("running")
	}
	fmt.Printf("Server:        %s (%s)\n", state, cfg.Addr())

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, dbPath string, cfg *config.Config, running bool) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
		TotalArticles:     stats.TotalArticles,
		UnreadArticles:    stats.UnreadArticles,
		WithContent:       stats.WithContent,
		RetentionDays:     cfg.Retention.Days,
		Source:            cfg.Source.Kind,
		TopDomains:        make([]domainCountJSON, len(stats.TopDomains)),
		ServerAddr:        cfg.Addr(),
		ServerRunning:     running,
	}

	if stats.TotalArticles > 0 {
		out.OldestArticle = stats.OldestArticle.UTC().Format(time.RFC3339)
		out.NewestArticle = stats.NewestArticle.UTC().Format(time.RFC3339)
	}

	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}
	if db == nil {
		return 0
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkServer reports whether the web reader answers its health endpoint
// within a second.
func checkServer(client *http.Client, url string) bool {
	if client == nil {
		client = &http.Client{Timeout: 1 * time.Second}
	}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
