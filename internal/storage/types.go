package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an article ID does not exist.
var ErrNotFound = errors.New("article not found")

// Article is a saved read-it-later entry.
type Article struct {
	ID          string
	URL         string
	Title       string
	Domain      string
	CreatedAt   time.Time
	Content     string // stored HTML; rendering and sanitizing happen elsewhere
	IsRead      bool
	ReadAt      time.Time // zero while unread
	ContentHash string
}

// CreatedTime lets articles be grouped by the recency classifier.
func (a Article) CreatedTime() time.Time { return a.CreatedAt }

// SearchQuery defines filters for searching articles.
type SearchQuery struct {
	Query      string
	Domain     string
	UnreadOnly bool
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// Stats holds aggregate statistics about the library.
type Stats struct {
	TotalArticles     int64
	UnreadArticles    int64
	WithContent       int64
	OldestArticle     time.Time
	NewestArticle     time.Time
	DatabaseSizeBytes int64
	TopDomains        []DomainCount
}

// DomainCount pairs a domain with its article count.
type DomainCount struct {
	Domain string
	Count  int64
}
