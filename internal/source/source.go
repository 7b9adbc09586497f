// Package source provides the record sources the reader lists articles from.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/runnerr0/readlater/internal/storage"
)

// Source returns the whole article collection, newest first.
type Source interface {
	ListArticles(ctx context.Context) ([]storage.Article, error)
}

// ErrNoOwner is returned by owner-scoped sources when the request carries
// no session subject.
var ErrNoOwner = errors.New("no session owner for scoped source")

type ownerKey struct{}

// WithOwner attaches the session subject that scoped sources filter on.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom returns the session subject set by WithOwner.
func OwnerFrom(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

type timeoutSource struct {
	src Source
	d   time.Duration
}

// WithTimeout bounds every ListArticles call on src by d. A non-positive d
// returns src unchanged.
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return &timeoutSource{src: src, d: d}
}

func (t *timeoutSource) ListArticles(ctx context.Context) ([]storage.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.src.ListArticles(ctx)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context) ([]storage.Article, error)

func (f Func) ListArticles(ctx context.Context) ([]storage.Article, error) { return f(ctx) }
