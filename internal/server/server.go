package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/internal/telemetry"
	"github.com/mithrel/inkpad/pkg/api"
)

// Server serves the editor page, the document API and the live preview socket.
type Server struct {
	cfg      *viper.Viper
	store    *db.Store
	renderer *render.Renderer
	hub      *Hub
	log      *log.Logger

	// watchFile, when set, puts the page into read-only follow mode: the
	// editor pane is disabled and previews come from the watched file.
	watchFile string

	page *template.Template
}

func New(cfg *viper.Viper, store *db.Store, renderer *render.Renderer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "inkpad ", log.LstdFlags)
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		renderer: renderer,
		log:      logger,
		page:     template.Must(template.ParseFS(assetsFS, "assets/index.html.tmpl")),
	}
	s.hub = newHub(s)
	return s
}

// SetWatchFile switches the page into read-only follow mode for path.
func (s *Server) SetWatchFile(path string) { s.watchFile = path }

// Hub exposes the live connection hub, mainly so watch mode can broadcast.
func (s *Server) Hub() *Hub { return s.hub }

// Router returns the http.Handler with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS())))
	r.Get("/live", s.hub.handleWebSocket)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Route("/docs", func(r chi.Router) {
			r.Get("/", s.handleListDocs)
			r.Get("/{id}", s.handleGetDoc)
			r.Group(func(r chi.Router) {
				r.Use(s.auth)
				r.Post("/", s.handleCreateDoc)
				r.Put("/{id}", s.handleUpdateDoc)
				r.Delete("/{id}", s.handleDeleteDoc)
			})
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := strings.TrimSpace(s.cfg.GetString("http_addr"))
	if addr == "" {
		addr = ":10101"
	}
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Printf("listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		return srv.Shutdown(shutCtx)
	}
}

// accessLog is a small request logger in place of a full logging middleware.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Printf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}

// auth requires the configured bearer token; with no token configured the
// server stays open, matching local demo usage.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimSpace(s.cfg.GetString("auth.token"))
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get("Authorization")
		if !strings.HasPrefix(got, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(got, "Bearer ")) != tok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pageData is the bootstrap payload embedded in the editor page.
type pageData struct {
	DocID    string
	Title    string
	Content  string
	ReadOnly bool
	Watch    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	if s.watchFile != "" {
		data.ReadOnly = true
		data.Watch = s.watchFile
		data.Title = s.watchFile
		if b, err := os.ReadFile(s.watchFile); err == nil {
			data.Content = string(b)
		}
	} else if id := strings.TrimSpace(r.URL.Query().Get("doc")); id != "" {
		d, err := s.store.Docs.GetDoc(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				http.Error(w, "document not found", http.StatusNotFound)
				return
			}
			http.Error(w, "load failed", http.StatusInternalServerError)
			return
		}
		data.DocID = d.ID
		data.Title = d.Title
		data.Content = d.Body
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Printf("render page: %v", err)
	}
}

type renderRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	res, err := s.renderer.Render(req.Content)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	telemetry.RendersTotal.WithLabelValues("api").Inc()
	telemetry.RenderDuration.Observe(res.Duration.Seconds())
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := db.Filter{
		Any:   splitCSV(q.Get("tags_any")),
		All:   splitCSV(q.Get("tags_all")),
		Query: strings.TrimSpace(q.Get("q")),
	}
	if ls := strings.TrimSpace(q.Get("limit")); ls != "" {
		if n, err := strconv.Atoi(ls); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if f.Limit == 0 {
		f.Limit = s.cfg.GetInt("export.page_size")
	}
	var docs []api.Document
	var err error
	if f.Query != "" {
		docs, err = s.store.Docs.SearchDocs(r.Context(), f)
	} else {
		docs, err = s.store.Docs.ListDocs(r.Context(), f)
	}
	if err != nil {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []api.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.store.Docs.GetDoc(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "get failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type docRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

func (s *Server) handleCreateDoc(w http.ResponseWriter, r *http.Request) {
	var req docRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()
	d := api.Document{
		ID:        api.NewID(),
		Version:   1,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Title == "" {
		d.Title = firstLine(d.Body)
	}
	created, err := s.store.Docs.CreateDoc(r.Context(), d)
	if err != nil {
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	telemetry.DocumentsSaved.Inc()
	s.log.Printf("created doc id=%s title=%q", created.ID, created.Title)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req docRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	cur, err := s.store.Docs.GetDoc(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "get failed", http.StatusInternalServerError)
		return
	}
	ifVersion := cur.Version
	if iv := strings.TrimSpace(r.Header.Get("If-Version")); iv != "" {
		n, err := strconv.ParseInt(iv, 10, 64)
		if err != nil {
			http.Error(w, "bad If-Version", http.StatusBadRequest)
			return
		}
		ifVersion = n
	}
	if req.Title != "" {
		cur.Title = strings.TrimSpace(req.Title)
	}
	cur.Body = req.Body
	if req.Tags != nil {
		cur.Tags = req.Tags
	}
	cur.Version = ifVersion + 1
	cur.UpdatedAt = time.Now().UTC()

	updated, err := s.store.Docs.UpdateDocCAS(r.Context(), cur, ifVersion)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			latest, gerr := s.store.Docs.GetDoc(r.Context(), id)
			if gerr == nil {
				writeJSON(w, http.StatusConflict, latest)
				return
			}
			http.Error(w, "conflict", http.StatusConflict)
			return
		}
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	telemetry.DocumentsSaved.Inc()
	s.log.Printf("updated doc id=%s version=%d", updated.ID, updated.Version)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Docs.DeleteDoc(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Too late for a status change; the connection is likely gone.
		_ = err
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return fmt.Sprintf("Untitled %s", time.Now().UTC().Format("2006-01-02"))
}
