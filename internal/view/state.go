// Package view holds the reader's two-screen navigation as an immutable value.
package view

import (
	"net/url"

	"github.com/runnerr0/readlater/internal/storage"
)

// Mode is the screen currently shown.
type Mode int

const (
	List Mode = iota
	Reader
)

func (m Mode) String() string {
	if m == Reader {
		return "reader"
	}
	return "list"
}

// State is the navigation state. Transitions return a new State and never
// modify the receiver.
type State struct {
	mode     Mode
	articles []storage.Article
	selected *storage.Article
	err      error
}

// Loaded is the list screen over a successfully fetched collection.
func Loaded(articles []storage.Article) State {
	return State{mode: List, articles: articles}
}

// Failed is the list screen after a fetch error.
func Failed(err error) State {
	return State{mode: List, err: err}
}

func (s State) Mode() Mode                  { return s.mode }
func (s State) Articles() []storage.Article { return s.articles }
func (s State) Err() error                  { return s.err }

// Selected returns the article shown by the reader.
func (s State) Selected() (storage.Article, bool) {
	if s.selected == nil {
		return storage.Article{}, false
	}
	return *s.selected, true
}

// Select opens a in the reader. Only valid from the list; otherwise s is
// returned unchanged.
func (s State) Select(a storage.Article) State {
	if s.mode != List {
		return s
	}
	next := s
	next.mode = Reader
	next.selected = &a
	return next
}

// Back returns to the list. Only valid from the reader.
func (s State) Back() State {
	if s.mode != Reader {
		return s
	}
	next := s
	next.mode = List
	next.selected = nil
	return next
}

// Path is the reader URL path for the current screen.
func (s State) Path() string {
	if s.mode == Reader && s.selected != nil {
		return "/articles/" + url.PathEscape(s.selected.ID)
	}
	return "/"
}

// Find looks an article up by ID in the loaded collection.
func (s State) Find(id string) (storage.Article, bool) {
	for _, a := range s.articles {
		if a.ID == id {
			return a, true
		}
	}
	return storage.Article{}, false
}
