// Package server is the web front end of the policy wizard: one wizard
// controller per browser session, server-rendered step panels, the country
// picker fragment, and the export routes for the generated document.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-policyforge/internal/logging"
	"github.com/goliatone/go-policyforge/internal/metrics"
	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/render/template/gotemplate"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

//go:embed views/*.tpl
var viewsFS embed.FS

// Server wires the wizard routes onto a chi router.
type Server struct {
	definition   wizard.Definition
	countries    countries.Source
	assembler    wizard.Assembler
	delay        time.Duration
	metrics      *metrics.Metrics
	logger       logrus.FieldLogger
	templatesDir string
	sessionTTL   time.Duration
	cookieName   string
	brand        string
	now          func() time.Time

	views    *gotemplate.Engine
	sessions *sessionStore
	router   chi.Router
}

// New builds a server. Without WithDefinition the built-in privacy policy
// wizard is used.
func New(options ...Option) (*Server, error) {
	s := &Server{
		delay:      wizard.DefaultGenerationDelay,
		logger:     logging.Discard(),
		sessionTTL: defaultSessionTTL,
		cookieName: defaultCookieName,
		brand:      defaultBrand,
		countries:  countries.NewStaticCatalog(nil),
		now:        time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	if len(s.definition.Steps) == 0 {
		def, err := wizard.DefaultDefinition()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.definition = def
	}
	if s.assembler == nil {
		assembler, err := policy.NewAssembler(policy.WithBrand(s.brand))
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.assembler = assembler
	}

	views, err := s.loadViews()
	if err != nil {
		return nil, err
	}
	s.views = views

	s.sessions = &sessionStore{
		sessions: make(map[uuid.UUID]*session),
		ttl:      s.sessionTTL,
		now:      s.now,
		create:   s.newWizard,
		entries:  s.countries.Entries,
		onChange: s.metrics.SetActiveSessions,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) loadViews() (*gotemplate.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("server: views: %w", err)
	}
	opts := []gotemplate.Option{
		gotemplate.WithName("views"),
		gotemplate.WithFS(sub),
		gotemplate.WithGlobalData(map[string]any{"brand": s.brand}),
	}
	if s.templatesDir != "" {
		opts = append(opts, gotemplate.WithBaseDir(s.templatesDir))
	}
	views, err := gotemplate.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("server: views: %w", err)
	}
	return views, nil
}

func (s *Server) newWizard() (*wizard.Controller, error) {
	return wizard.New(s.definition,
		wizard.WithCountries(s.countries),
		wizard.WithAssembler(s.assembler),
		wizard.WithGenerationDelay(s.delay),
		wizard.WithLogger(s.logger),
		wizard.WithValidationHook(func(step string, _ []string) {
			s.metrics.IncrementValidationFailure(step)
		}),
		wizard.WithGenerateHook(func(state policy.FormState) {
			s.metrics.IncrementGenerated(string(state.Type))
		}),
	)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/", s.handleIndex)
	r.Route("/wizard", func(wr chi.Router) {
		wr.Get("/", s.handleWizard)
		wr.Post("/next", s.handleNext)
		wr.Post("/prev", s.handlePrev)
		wr.Post("/generate", s.handleGenerate)
	})
	r.Route("/result", func(rr chi.Router) {
		rr.Get("/", s.handleResult)
		rr.Get("/download", s.handleDownload)
		rr.Get("/print", s.handlePrint)
	})
	r.Get("/countries/picker", s.handlePicker)
	if _, err := countries.NewAPI(s.countries).Register(r, ""); err != nil {
		s.logger.WithError(err).Error("register country search")
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the number of live wizard sessions.
func (s *Server) Sessions() int { return s.sessions.len() }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("policyforge listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// observe logs each request and records its latency by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := s.now().Sub(start)
		s.metrics.ObserveRequest(route, strconv.Itoa(status), elapsed)
		s.logger.WithFields(logrus.Fields{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
		}).Debug("request")
	})
}
