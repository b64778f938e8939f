package web

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server is the web front-end: an HTML chat page with a history sidebar and a
// JSON API over the same session.
type Server struct {
	Session *session.Session
	Store   history.Store
	Model   string
	// Metadata is shown on the page, e.g. the model settings.
	Metadata map[string]interface{}

	registry  *prometheus.Registry
	router    *mux.Router
	templates *template.Template
	markdown  *MarkdownRenderer
	metrics   *metrics
}

type Option func(*Server)

func WithMetadata(metadata map[string]interface{}) Option {
	return func(s *Server) {
		s.Metadata = metadata
	}
}

// WithRegistry exports metrics to reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

func NewServer(s *session.Session, store history.Store, model string, options ...Option) (*Server, error) {
	if s == nil {
		return nil, session.ErrSessionNil
	}
	if store == nil {
		return nil, session.ErrSessionNoStore
	}
	ret := &Server{
		Session:  s,
		Store:    store,
		Model:    model,
		markdown: NewMarkdownRenderer(),
	}
	for _, o := range options {
		o(ret)
	}
	if ret.registry == nil {
		ret.registry = prometheus.NewRegistry()
	}

	funcs := sprig.FuncMap()
	funcs["markdown"] = ret.markdown.renderOrEscape
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "could not parse templates")
	}
	ret.templates = tmpl
	ret.metrics = newMetrics(ret.registry, store)
	ret.router = ret.routes()
	return ret, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.htmlIndex).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.htmlChat).Methods(http.MethodPost)
	r.HandleFunc("/new", s.htmlNewChat).Methods(http.MethodPost)
	r.HandleFunc("/save", s.htmlSave).Methods(http.MethodPost)
	r.HandleFunc("/select", s.htmlSelectForm).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/select", s.htmlSelect).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/context", s.htmlUseAsContext).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/delete", s.htmlDelete).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", s.jsonSession).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.jsonChat).Methods(http.MethodPost)
	api.HandleFunc("/new", s.jsonNewChat).Methods(http.MethodPost)
	api.HandleFunc("/save", s.jsonSave).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.jsonListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}", s.jsonGetConversation).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}", s.jsonDeleteConversation).Methods(http.MethodDelete)
	api.HandleFunc("/conversations/{id}/select", s.jsonSelect).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/context", s.jsonUseAsContext).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("model", s.Model).Msg("Starting web server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down web server")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
