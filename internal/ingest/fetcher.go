// Package ingest downloads a web page and extracts its readable article so
// it can be saved to the library.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/runnerr0/readlater/internal/logger"
)

// ErrTooLarge is returned when a page body exceeds the configured limit.
var ErrTooLarge = errors.New("page body too large")

// Options configures a Fetcher.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Client       *http.Client // optional; Timeout is ignored when set
}

// Page is an extracted article ready to be stored.
type Page struct {
	URL     string // final URL after redirects
	Title   string
	Content string // article HTML, unsanitized
}

// Fetcher downloads pages and runs readability extraction on them.
type Fetcher struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

// NewFetcher builds a Fetcher from opt.
func NewFetcher(opt Options) *Fetcher {
	client := opt.Client
	if client == nil {
		client = &http.Client{Timeout: opt.Timeout}
	}
	return &Fetcher{client: client, maxBody: opt.MaxBodyBytes, userAgent: opt.UserAgent}
}

// Fetch downloads rawURL and extracts its title and article body. When
// readability finds no article the whole <body> is kept.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	log := logger.Named("ingest")
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", u, resp.StatusCode)
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}

	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}

	page := &Page{URL: final.String()}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	page.Title = pageTitle(doc)
	page.Content = extract(body, final)
	if page.Content == "" {
		page.Content, _ = doc.Find("body").Html()
		page.Content = strings.TrimSpace(page.Content)
	}

	log.Debug().
		Str("url", page.URL).
		Int("bytes", len(body)).
		Int("content_bytes", len(page.Content)).
		Dur("took", time.Since(start)).
		Msg("page fetched")

	return page, nil
}

func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	if f.maxBody <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, f.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBody)
	}
	return body, nil
}

func extract(body []byte, base *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	var buf strings.Builder
	if err := article.RenderHTML(&buf); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

// pageTitle prefers og:title over <title>.
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
