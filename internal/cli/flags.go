package cli

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/runnerr0/readlater/internal/ingest"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db-path" description:"Override the library database path"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand runs the web reader.
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`

	globals *GlobalFlags
	version string
	listen  func(addr string) (net.Listener, error)
}

// ListCommand prints the library grouped by recency.
type ListCommand struct {
	Unread bool   `long:"unread" description:"Only unread articles"`
	Owner  string `long:"owner" description:"Session owner for owner-scoped sources"`

	globals *GlobalFlags
	version string
	clock   func() time.Time
}

// SearchCommand searches the local library by keyword with filters.
type SearchCommand struct {
	Since  string   `long:"since" description:"Only articles newer than duration (e.g., 7d, 24h, 2w)"`
	Until  string   `long:"until" description:"Only articles older than duration"`
	Domain []string `long:"domain" description:"Filter by domain (repeatable)"`
	Unread bool     `long:"unread" description:"Only unread articles"`
	Limit  int      `long:"limit" description:"Maximum results" default:"20"`
	Offset int      `long:"offset" description:"Skip first N results" default:"0"`

	Args struct {
		Query []string `positional-arg-name:"query"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
	clock   func() time.Time
}

// OpenCommand prints one stored article.
type OpenCommand struct {
	ID     string `long:"id" description:"Article ID (required)"`
	Format string `long:"format" description:"Output format: full | text | html | md | json" default:"full"`

	globals *GlobalFlags
	version string
}

// AddCommand saves a URL, optionally downloading its article.
type AddCommand struct {
	URL      string `long:"url" description:"URL to save (required)"`
	Title    string `long:"title" description:"Article title (required unless --fetch)"`
	BodyFile string `long:"body-file" description:"Path to file containing article HTML"`
	Body     string `long:"body" description:"Inline article HTML"`
	Fetch    bool   `long:"fetch" description:"Download the page and extract the article"`

	globals *GlobalFlags
	version string
	fetcher pageFetcher
}

// MarkCommand sets the read flag of an article.
type MarkCommand struct {
	ID     string `long:"id" description:"Article ID (required)"`
	Unread bool   `long:"unread" description:"Mark as unread instead of read"`

	globals *GlobalFlags
	version string
}

// RemoveCommand deletes one article.
type RemoveCommand struct {
	ID string `long:"id" description:"Article ID (required)"`

	globals *GlobalFlags
	version string
}

// PruneCommand deletes articles older than the retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`
	Force     bool   `long:"force" description:"Skip confirmation prompt"`

	globals *GlobalFlags
	version string
	clock   func() time.Time
	stdin   io.Reader
}

// PurgeCommand deletes the whole library with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	in      io.Reader
}

// StatusCommand shows library statistics and whether the reader answers.
type StatusCommand struct {
	globals *GlobalFlags
	version string
	client  *http.Client
}

var _ pageFetcher = (*ingest.Fetcher)(nil)
