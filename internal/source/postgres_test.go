package source

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var articleCols = []string{"id", "url", "title", "created_at", "content", "is_read"}

func TestPostgresSource_ListArticles(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "articles", "")
	require.NoError(t, err)

	created := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(articleCols).
		AddRow("a-1", "https://example.com/1", "First", created, "<p>one</p>", true).
		AddRow("a-2", "https://example.com/2", "Second", created.Add(-time.Hour), "", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "articles" ORDER BY created_at DESC, id`)).
		WillReturnRows(rows)

	articles, err := src.ListArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "a-1", articles[0].ID)
	assert.Equal(t, "First", articles[0].Title)
	assert.True(t, articles[0].CreatedAt.Equal(created))
	assert.Equal(t, "<p>one</p>", articles[0].Content)
	assert.True(t, articles[0].IsRead)

	// NULL is_read reads as unread.
	assert.False(t, articles[1].IsRead)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_NullCreatedAtStaysZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "articles", "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id::text").
		WillReturnRows(pgxmock.NewRows(articleCols).AddRow("a-1", "u", "t", nil, "", false))

	articles, err := src.ListArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.True(t, articles[0].CreatedAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "articles", "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id::text").WillReturnRows(pgxmock.NewRows(articleCols))

	articles, err := src.ListArticles(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, articles)
	assert.Empty(t, articles)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_OwnerScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "public.saved_articles", "user_id")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "public"."saved_articles" WHERE "user_id" = $1`)).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(articleCols).
			AddRow("a-1", "u", "t", time.Now(), "", false))

	articles, err := src.ListArticles(WithOwner(context.Background(), "alice"))
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_OwnerScopedWithoutOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "articles", "user_id")
	require.NoError(t, err)

	_, err = src.ListArticles(context.Background())
	assert.ErrorIs(t, err, ErrNoOwner)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "articles", "")
	require.NoError(t, err)

	boom := errors.New("connection refused")
	mock.ExpectQuery("SELECT id::text").WillReturnError(boom)

	articles, err := src.ListArticles(context.Background())
	assert.Nil(t, articles)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "connection refused")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_RowErrorDropsPartialResult(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewPostgresSource(mock, "articles", "")
	require.NoError(t, err)

	boom := errors.New("stream broken")
	rows := pgxmock.NewRows(articleCols).
		AddRow("a-1", "u", "t", time.Now(), "", false).
		AddRow("a-2", "u", "t", time.Now(), "", false).
		RowError(1, boom)
	mock.ExpectQuery("SELECT id::text").WillReturnRows(rows)

	articles, err := src.ListArticles(context.Background())
	assert.Nil(t, articles)
	assert.ErrorIs(t, err, boom)
}

func TestNewPostgresSource_RejectsBadIdentifiers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	bad := []struct{ table, owner string }{
		{"", ""},
		{"articles; DROP TABLE users", ""},
		{"a.b.c", ""},
		{"1articles", ""},
		{"articles", "user id"},
		{"articles", "s.user_id"},
	}
	for _, b := range bad {
		_, err := NewPostgresSource(mock, b.table, b.owner)
		assert.Error(t, err, "table=%q owner=%q", b.table, b.owner)
	}
}
