package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/runnerr0/readlater/internal/logger"
	"github.com/runnerr0/readlater/internal/recency"
	"github.com/runnerr0/readlater/internal/render"
	"github.com/runnerr0/readlater/internal/source"
	"github.com/runnerr0/readlater/internal/storage"
	"github.com/runnerr0/readlater/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	listDateLayout   = "Jan 2, 2006 3:04 PM"
	readerDateLayout = "Jan 2, 2006"
	excerptRunes     = 200
)

// Deps are the collaborators the reader is built from.
type Deps struct {
	Source   source.Source
	Renderer render.Renderer
	Clock    func() time.Time
	Location *time.Location
	Auth     *Auth    // nil serves without session checks
	Metrics  *Metrics // nil gets a private registry
	Slow     time.Duration
}

type handlers struct {
	Deps
	tmpl *template.Template
}

// NewRouter builds the reader's routes.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Source == nil {
		return nil, errors.New("web: nil source")
	}
	if d.Renderer == nil {
		d.Renderer = render.NewHTMLRenderer()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	h := &handlers{Deps: d, tmpl: tmpl}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(AccessLogOptions{Slow: d.Slow}))
	r.Use(d.Metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		if d.Auth != nil {
			r.Use(d.Auth.Require)
		}
		r.Get("/", h.list)
		r.Get("/articles/{id}", h.reader)
		r.Get("/api/articles", h.apiList)
		r.Get("/api/articles/{id}", h.apiArticle)
	})

	return r, nil
}

func (h *handlers) now() time.Time { return h.Clock().In(h.Location) }

// fetch is the single source request made per page view.
func (h *handlers) fetch(ctx context.Context) view.State {
	articles, err := h.Source.ListArticles(ctx)
	h.Metrics.fetchResult(err)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("source fetch failed")
		return view.Failed(err)
	}
	return view.Loaded(articles)
}

type listPage struct {
	PageTitle string
	Error     string
	Groups    []groupView
}

type groupView struct {
	Bucket string
	Items  []itemView
}

type itemView struct {
	ID     string
	Title  string
	URL    string
	Unread bool
	When   string
	ISO    string
}

type readerPage struct {
	PageTitle string
	Article   itemView
	Content   template.HTML
	BackHref  string
}

func (h *handlers) item(a storage.Article, layout string) itemView {
	local := a.CreatedAt.In(h.Location)
	return itemView{
		ID:     a.ID,
		Title:  displayTitle(a),
		URL:    a.URL,
		Unread: !a.IsRead,
		When:   local.Format(layout),
		ISO:    local.Format(time.RFC3339),
	}
}

func displayTitle(a storage.Article) string {
	if a.Title != "" {
		return a.Title
	}
	if a.URL != "" {
		return a.URL
	}
	return "Untitled"
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	page := listPage{PageTitle: "Read It Later"}

	state := h.fetch(r.Context())
	if err := state.Err(); err != nil {
		page.Error = err.Error()
		h.page(w, r, http.StatusBadGateway, "list", page)
		return
	}

	groups, err := recency.Classify(state.Articles(), h.now())
	if err != nil {
		logger.C(r.Context()).Error().Err(err).Msg("classify articles")
		page.Error = err.Error()
		h.page(w, r, http.StatusInternalServerError, "list", page)
		return
	}

	for _, g := range groups {
		gv := groupView{Bucket: string(g.Bucket)}
		for _, a := range g.Items {
			gv.Items = append(gv.Items, h.item(a, listDateLayout))
		}
		page.Groups = append(page.Groups, gv)
	}
	h.page(w, r, http.StatusOK, "list", page)
}

func (h *handlers) reader(w http.ResponseWriter, r *http.Request) {
	state := h.fetch(r.Context())
	if err := state.Err(); err != nil {
		h.page(w, r, http.StatusBadGateway, "list", listPage{PageTitle: "Read It Later", Error: err.Error()})
		return
	}

	a, ok := state.Find(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, storage.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	state = state.Select(a)
	selected, _ := state.Selected()

	h.page(w, r, http.StatusOK, "reader", readerPage{
		PageTitle: displayTitle(selected),
		Article:   h.item(selected, readerDateLayout),
		Content:   h.Renderer.Render(selected.Content),
		BackHref:  state.Back().Path(),
	})
}

// page renders into a buffer first so template errors become a clean 500.
func (h *handlers) page(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.C(r.Context()).Error().Err(err).Str("template", name).Msg("render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type apiArticle struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
	Excerpt   string    `json:"excerpt,omitempty"`
	HTML      string    `json:"html,omitempty"`
}

type apiGroup struct {
	Bucket   recency.Bucket `json:"bucket"`
	Articles []apiArticle   `json:"articles"`
}

type apiError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func toAPI(a storage.Article) apiArticle {
	return apiArticle{
		ID:        a.ID,
		URL:       a.URL,
		Title:     a.Title,
		CreatedAt: a.CreatedAt,
		IsRead:    a.IsRead,
	}
}

func (h *handlers) apiList(w http.ResponseWriter, r *http.Request) {
	state := h.fetch(r.Context())
	if err := state.Err(); err != nil {
		h.jsonError(w, r, http.StatusBadGateway, err)
		return
	}

	groups, err := recency.Classify(state.Articles(), h.now())
	if err != nil {
		h.jsonError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]apiGroup, 0, len(groups))
	for _, g := range groups {
		ag := apiGroup{Bucket: g.Bucket, Articles: make([]apiArticle, 0, len(g.Items))}
		for _, a := range g.Items {
			item := toAPI(a)
			item.Excerpt = render.Excerpt(a.Content, excerptRunes)
			ag.Articles = append(ag.Articles, item)
		}
		out = append(out, ag)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (h *handlers) apiArticle(w http.ResponseWriter, r *http.Request) {
	state := h.fetch(r.Context())
	if err := state.Err(); err != nil {
		h.jsonError(w, r, http.StatusBadGateway, err)
		return
	}

	a, ok := state.Find(chi.URLParam(r, "id"))
	if !ok {
		h.jsonError(w, r, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	item := toAPI(a)
	item.HTML = string(h.Renderer.Render(a.Content))
	writeJSON(w, http.StatusOK, item)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) jsonError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, apiError{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())})
}

// writeJSON writes v as application/json with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
