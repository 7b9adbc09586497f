package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for library data operations.
type Store interface {
	AddArticle(ctx context.Context, article *Article) error
	GetArticle(ctx context.Context, id string) (*Article, error)
	ListArticles(ctx context.Context) ([]Article, error)
	SearchArticles(ctx context.Context, query SearchQuery) ([]Article, error)
	MarkRead(ctx context.Context, id string, read bool) error
	DeleteArticle(ctx context.Context, id string) error
	CountOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
	PruneOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertArticle *sql.Stmt
	insertContent *sql.Stmt
	getArticle    *sql.Stmt
	deleteArticle *sql.Stmt
	markRead      *sql.Stmt

	now func() time.Time
}

const articleColumns = `
	a.id, a.created_at, a.url, a.title, a.domain, a.is_read, a.read_at,
	a.content_hash, COALESCE(c.body, '')
`

const articleFrom = `
	FROM articles a
	LEFT JOIN content c ON c.article_id = a.id
`

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

// WithClock replaces the clock used for defaulted created/read times.
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertArticle, err = s.db.Prepare(`
		INSERT INTO articles (id, created_at, url, title, domain, is_read, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertContent, err = s.db.Prepare(`
		INSERT INTO content (article_id, body, byte_size)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getArticle, err = s.db.Prepare(`SELECT ` + articleColumns + articleFrom + ` WHERE a.id = ?`)
	if err != nil {
		return err
	}

	s.deleteArticle, err = s.db.Prepare(`DELETE FROM articles WHERE id = ?`)
	if err != nil {
		return err
	}

	s.markRead, err = s.db.Prepare(`
		UPDATE articles SET is_read = ?, read_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// generateID creates an article ID.
func generateID() string {
	return uuid.NewString()
}

// likePattern escapes a user search term for a LIKE ... ESCAPE '\' clause.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %q", s)
}

// extractDomain pulls the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// HashContent returns the hex SHA-256 of a stored body.
func HashContent(body string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(body)))
}

// AddArticle inserts a new article and, when Content is non-empty, its body
// in a single transaction. ID and Domain are populated automatically; a zero
// CreatedAt is set to the store's clock.
func (s *SQLiteStore) AddArticle(ctx context.Context, article *Article) error {
	article.ID = generateID()
	article.Domain = extractDomain(article.URL)

	if article.CreatedAt.IsZero() {
		article.CreatedAt = s.now()
	}
	if article.Content != "" && article.ContentHash == "" {
		article.ContentHash = HashContent(article.Content)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var contentHash any
	if article.ContentHash != "" {
		contentHash = article.ContentHash
	}

	tsFormatted := article.CreatedAt.UTC().Format(time.RFC3339)
	_, err = tx.StmtContext(ctx, s.insertArticle).ExecContext(ctx,
		article.ID, tsFormatted, article.URL, article.Title, article.Domain,
		article.IsRead, contentHash,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	if article.Content != "" {
		_, err = tx.StmtContext(ctx, s.insertContent).ExecContext(ctx,
			article.ID, article.Content, len(article.Content),
		)
		if err != nil {
			return fmt.Errorf("insert content: %w", err)
		}
	}

	return tx.Commit()
}

// GetArticle retrieves a single article, with its body, by ID.
func (s *SQLiteStore) GetArticle(ctx context.Context, id string) (*Article, error) {
	a, err := scanArticle(s.getArticle.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// ListArticles returns the whole library, newest first.
func (s *SQLiteStore) ListArticles(ctx context.Context) ([]Article, error) {
	return s.scanArticles(ctx, `SELECT `+articleColumns+articleFrom+` ORDER BY a.created_at DESC, a.id`)
}

// SearchArticles queries articles with optional filters. The text query
// matches title or URL, case-insensitively.
func (s *SQLiteStore) SearchArticles(ctx context.Context, q SearchQuery) ([]Article, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []interface{}

	for _, word := range strings.Fields(q.Query) {
		clauses = append(clauses, `(a.title LIKE ? ESCAPE '\' OR a.url LIKE ? ESCAPE '\')`)
		p := likePattern(word)
		args = append(args, p, p)
	}
	if q.Domain != "" {
		clauses = append(clauses, "a.domain = ?")
		args = append(args, q.Domain)
	}
	if q.UnreadOnly {
		clauses = append(clauses, "a.is_read = 0")
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "a.created_at >= ?")
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "a.created_at <= ?")
		args = append(args, q.Until.UTC().Format(time.RFC3339))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	fullQuery := `SELECT ` + articleColumns + articleFrom + where +
		" ORDER BY a.created_at DESC, a.id LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	return s.scanArticles(ctx, fullQuery, args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var tsStr string
	var readAt, contentHash sql.NullString

	if err := row.Scan(
		&a.ID, &tsStr, &a.URL, &a.Title, &a.Domain, &a.IsRead, &readAt,
		&contentHash, &a.Content,
	); err != nil {
		return nil, err
	}

	created, err := parseTimestamp(tsStr)
	if err != nil {
		return nil, fmt.Errorf("article %s created_at: %w", a.ID, err)
	}
	a.CreatedAt = created

	if readAt.Valid && readAt.String != "" {
		if t, err := parseTimestamp(readAt.String); err == nil {
			a.ReadAt = t
		}
	}
	if contentHash.Valid {
		a.ContentHash = contentHash.String
	}
	return &a, nil
}

// scanArticles executes a query and scans results into an Article slice.
func (s *SQLiteStore) scanArticles(ctx context.Context, query string, args ...interface{}) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

// MarkRead sets or clears the read flag of an article.
func (s *SQLiteStore) MarkRead(ctx context.Context, id string, read bool) error {
	var readAt any
	if read {
		readAt = s.now().UTC().Format(time.RFC3339)
	}

	res, err := s.markRead.ExecContext(ctx, read, readAt, id)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return expectOneRow(res, id)
}

// DeleteArticle removes an article by ID. Content is cascade-deleted by the schema.
func (s *SQLiteStore) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.deleteArticle.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountOlderThan reports how many articles PruneOlderThan would delete.
func (s *SQLiteStore) CountOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE created_at < ?",
		olderThan.UTC().Format(time.RFC3339),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count old articles: %w", err)
	}
	return n, nil
}

// PruneOlderThan deletes articles created before olderThan.
func (s *SQLiteStore) PruneOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM articles WHERE created_at < ?",
		olderThan.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("prune articles: %w", err)
	}
	return res.RowsAffected()
}

// PurgeAll deletes all articles and content.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM content",
		"DELETE FROM articles",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the library.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0) FROM articles",
	).Scan(&stats.TotalArticles, &stats.UnreadArticles)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&stats.WithContent)
	if err != nil {
		return nil, fmt.Errorf("count content: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalArticles > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(created_at) FROM articles").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("article time range: %w", err)
		}
		stats.OldestArticle, _ = parseTimestamp(oldestStr)
		stats.NewestArticle, _ = parseTimestamp(newestStr)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) AS cnt FROM articles GROUP BY domain ORDER BY cnt DESC, domain LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertArticle, s.insertContent, s.getArticle,
		s.deleteArticle, s.markRead,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
