package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/runnerr0/readlater/internal/storage"
)

// Querier is the slice of pgxpool.Pool the Postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource lists articles from the hosted backend's table. Expected
// columns: id, url, title, created_at, content, is_read. When an owner
// column is configured every query is scoped to the session subject.
type PostgresSource struct {
	db          Querier
	query       string
	ownerScoped bool
}

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewPostgresSource validates the table and owner column names and builds
// the list query once.
func NewPostgresSource(db Querier, table, ownerColumn string) (*PostgresSource, error) {
	tableIdent, err := parseIdentifier(table)
	if err != nil {
		return nil, fmt.Errorf("source table: %w", err)
	}

	q := `SELECT id::text, COALESCE(url, ''), COALESCE(title, ''), created_at,
		COALESCE(content, ''), is_read
		FROM ` + tableIdent.Sanitize()

	scoped := ownerColumn != ""
	if scoped {
		ownerIdent, err := parseIdentifier(ownerColumn)
		if err != nil {
			return nil, fmt.Errorf("owner column: %w", err)
		}
		if len(ownerIdent) != 1 {
			return nil, fmt.Errorf("owner column %q must not be qualified", ownerColumn)
		}
		q += ` WHERE ` + ownerIdent.Sanitize() + ` = $1`
	}
	q += ` ORDER BY created_at DESC, id`

	return &PostgresSource{db: db, query: q, ownerScoped: scoped}, nil
}

func parseIdentifier(name string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid identifier %q", name)
	}
	for _, p := range parts {
		if !identPart.MatchString(p) {
			return nil, fmt.Errorf("invalid identifier %q", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// ListArticles runs one query. Any failure is returned whole; no partial
// result is produced.
func (s *PostgresSource) ListArticles(ctx context.Context) ([]storage.Article, error) {
	var args []any
	if s.ownerScoped {
		owner, ok := OwnerFrom(ctx)
		if !ok {
			return nil, ErrNoOwner
		}
		args = append(args, owner)
	}

	rows, err := s.db.Query(ctx, s.query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []storage.Article{}
	for rows.Next() {
		var a storage.Article
		var created sql.NullTime
		var isRead sql.NullBool
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &created, &a.Content, &isRead); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		// A NULL created_at stays zero and is rejected by the classifier.
		if created.Valid {
			a.CreatedAt = created.Time
		}
		a.IsRead = isRead.Valid && isRead.Bool
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// OpenPostgres connects a pool and verifies it answers.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
