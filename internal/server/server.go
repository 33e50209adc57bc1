// Package server exposes scenes over HTTP.
//
// The server holds one profile set and any number of views. Each view is a
// [scene.Scene] with its own camera, driven by gesture events posted by a
// thin client. Frames come back as JSON visible sets or PNG snapshots.
//
// Routes:
//
//	GET    /healthz
//	GET    /version
//	GET    /metrics
//	GET    /layout                       layout document
//	GET    /layout.dot                   spanning tree as Graphviz DOT
//	PUT    /profiles                     replace profiles; views swap on next frame
//	POST   /views                        create a view
//	DELETE /views/{id}                   close a view, persisting its camera
//	GET    /views/{id}/frame             visible set
//	GET    /views/{id}/snapshot.png      visible set painted to PNG
//	POST   /views/{id}/events            gesture records
//	PUT    /views/{id}/viewport
//	GET    /views/{id}/hit?x=&y=
//	POST   /views/{id}/focus             {"node_id": ...}
//	POST   /views/{id}/fit
//	POST   /views/{id}/highlights
//	DELETE /views/{id}/highlights/{hid}
package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/metrics"
	"github.com/matzehuels/lineage/pkg/profile"
	"github.com/matzehuels/lineage/pkg/scene"
)

const (
	maxBodyBytes = 16 << 20
	viewTTL      = 24 * time.Hour
)

// Options configures a Server.
type Options struct {
	Config config.Config
	Logger *log.Logger

	// Layouts caches layout passes. Nil computes every time.
	Layouts *cache.LayoutStore
	// Views persists closed view cameras. Nil disables persistence.
	Views cache.Cache
	Keyer cache.Keyer

	// Metrics serves /metrics and records request timings. Nil disables both.
	Metrics *metrics.Registry

	// Scheduler drives camera animation. Nil uses wall-clock timers.
	Scheduler camera.Scheduler
	// Clock anchors gesture record timestamps. Nil uses time.Now.
	Clock func() time.Time
}

// Server is the HTTP front end. Create it with [New].
type Server struct {
	opts   Options
	cfg    config.Config
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	profiles []profile.Profile
	res      *layout.Result
	views    map[string]*view
}

// view serializes access to one scene. Scenes are single-owner.
type view struct {
	mu    sync.Mutex
	id    string
	scene *scene.Scene
	base  time.Time
}

// New lays out profiles and returns a server ready to serve.
func New(ctx context.Context, profiles []profile.Profile, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	s := &Server{
		opts:   opts,
		cfg:    opts.Config,
		logger: opts.Logger,
		views:  make(map[string]*view),
	}
	res, err := s.compute(ctx, profiles)
	if err != nil {
		return nil, err
	}
	s.profiles, s.res = profiles, res
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return s, nil
}

func (s *Server) compute(ctx context.Context, profiles []profile.Profile) (*layout.Result, error) {
	opts := layout.Options{Logger: s.logger}
	if s.opts.Layouts != nil {
		res, _, err := s.opts.Layouts.Compute(ctx, profiles, s.cfg, opts)
		return res, err
	}
	return layout.Compute(ctx, profiles, s.cfg, opts)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}
	r.Get("/layout", s.handleLayout)
	r.Get("/layout.dot", s.handleLayoutDOT)
	r.Put("/profiles", s.handlePutProfiles)

	r.Route("/views", func(r chi.Router) {
		r.Post("/", s.handleCreateView)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteView)
			r.Get("/frame", s.withView(s.handleFrame))
			r.Get("/snapshot.png", s.withView(s.handleSnapshot))
			r.Post("/events", s.withView(s.handleEvents))
			r.Put("/viewport", s.withView(s.handleViewport))
			r.Get("/hit", s.withView(s.handleHit))
			r.Post("/focus", s.withView(s.handleFocus))
			r.Post("/fit", s.withView(s.handleFit))
			r.Post("/highlights", s.withView(s.handleAddHighlight))
			r.Delete("/highlights/{hid}", s.withView(s.handleRemoveHighlight))
		})
	})
	return r
}

// instrument logs each request and records it in the metrics registry.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		elapsed := time.Since(start)
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), elapsed)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "nodes", s.layout().Len())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdown)
	s.Close()
	return err
}

// Close closes every view and cancels background rebuilds.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*view)
	s.mu.Unlock()
	for _, v := range views {
		v.mu.Lock()
		v.scene.Close()
		v.mu.Unlock()
	}
}

func (s *Server) layout() *layout.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res
}

// Views returns the number of open views.
func (s *Server) Views() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}
