// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/SimonPop/lanterns/internal/config"
	"github.com/SimonPop/lanterns/internal/events"
	"github.com/SimonPop/lanterns/internal/export"
	"github.com/SimonPop/lanterns/internal/layout"
	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/SimonPop/lanterns/internal/metrics"
	"github.com/SimonPop/lanterns/internal/watch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// FingerprintHeader carries the fingerprint of the settings a response was
// built from.
const FingerprintHeader = "X-Lanterns-Fingerprint"

// Options configures a preview server.
type Options struct {
	// Root is the project root the settings paths are relative to.
	Root       string
	ConfigPath string
	Overlays   []string
	Loader     *config.Loader
	Addr       string

	Publisher events.Publisher
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
	// Debounce for the file watcher; zero means watch.DefaultDebounce.
	Debounce time.Duration
}

// Server previews a site: it serves the generated output with live reload
// and keeps the settings loaded, reloading them whenever the files change.
type Server struct {
	opts   Options
	store  Store
	hub    *Hub
	log    *slog.Logger
	router chi.Router
}

// New loads the settings once and builds the router. The initial load must
// succeed; later failed reloads keep the previous snapshot.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Loader == nil {
		opts.Loader = &config.Loader{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Root == "" {
		opts.Root = filepath.Dir(opts.ConfigPath)
	}
	s := &Server{
		opts: opts,
		hub:  newHub(opts.Metrics, opts.Logger),
		log:  opts.Logger,
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, fmt.Errorf("initial settings load failed: %w", err)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.opts.Metrics.Handler())
	r.Route("/_lanterns", func(r chi.Router) {
		r.Get("/", s.handleSummary)
		r.Get("/settings.json", s.handleSettings)
		r.Get("/ws", s.hub.serveWs)
	})
	r.With(noCache, injectLiveReload).Handle("/*", http.HandlerFunc(s.handleOutput))
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Snapshot returns the settings currently served.
func (s *Server) Snapshot() *Snapshot { return s.store.Current() }

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Reload reads the settings files again. It reports whether a new snapshot
// was installed: a load that yields the same fingerprint keeps the current
// snapshot and notifies nobody. On error the current snapshot stays.
func (s *Server) Reload(ctx context.Context) (bool, error) {
	start := time.Now()
	cfg, err := s.opts.Loader.Load(s.opts.ConfigPath, s.opts.Overlays...)
	elapsed := time.Since(start)
	s.opts.Metrics.ObserveLoadDuration(elapsed)
	if err != nil {
		s.opts.Metrics.IncReload(metrics.ReloadFailed)
		s.log.Error("Failed to load settings", logfields.Sources(s.sources()), logfields.Error(err))
		return false, err
	}

	fp := cfg.Fingerprint()
	prev := s.store.Current()
	if prev != nil && prev.Fingerprint == fp {
		s.opts.Metrics.IncReload(metrics.ReloadUnchanged)
		s.log.Debug("Settings unchanged", logfields.Fingerprint(fp))
		return false, nil
	}

	snap := &Snapshot{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		Sources:     s.sources(),
		LoadedAt:    time.Now().UTC(),
		Config:      cfg,
	}
	s.store.swap(snap)
	s.opts.Metrics.IncReload(metrics.ReloadApplied)
	s.log.Info("Settings loaded",
		logfields.Snapshot(snap.ID),
		logfields.Fingerprint(fp),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))

	if prev != nil {
		s.hub.Broadcast(reloadMessage, "settings")
	}
	if err := s.publish(ctx, snap); err != nil {
		s.log.Warn("Failed to publish settings event", logfields.Snapshot(snap.ID), logfields.Error(err))
	}
	return true, nil
}

func (s *Server) publish(ctx context.Context, snap *Snapshot) error {
	settings, err := export.JSON(snap.Config)
	if err != nil {
		return err
	}
	return s.opts.Publisher.Publish(ctx, events.SettingsChanged{
		ID:          snap.ID,
		Fingerprint: snap.Fingerprint,
		Sources:     snap.Sources,
		LoadedAt:    snap.LoadedAt,
		Settings:    settings,
	})
}

func (s *Server) sources() []string {
	return append([]string{s.opts.ConfigPath}, s.opts.Overlays...)
}

// outputDir resolves OUTPUT_PATH of the current snapshot.
func (s *Server) outputDir() (string, error) {
	l, err := layout.Resolve(s.opts.Root, s.Snapshot().Config)
	if err != nil {
		return "", err
	}
	return l.Output, nil
}

// Run serves HTTP on opts.Addr and watches the settings files and the output
// directory until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	w, err := s.watcher()
	if err != nil {
		ln.Close()
		return err
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := w.Run(ctx, func(changed []string) { s.onChange(ctx, changed) }); err != nil {
			s.log.Error("Watcher stopped", logfields.Error(err))
		}
	}()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("Serving site", logfields.Addr("http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.log.Info("Server stopped")
	return nil
}

func (s *Server) watcher() (*watch.Watcher, error) {
	w, err := watch.New(s.opts.Debounce, s.log)
	if err != nil {
		return nil, err
	}
	for _, p := range s.sources() {
		if err := w.AddFile(p); err != nil {
			w.Close()
			return nil, err
		}
	}
	out, err := s.outputDir()
	if err == nil {
		err = w.AddTree(out)
	}
	if err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// onChange reloads settings when one of the settings files changed and
// otherwise reloads the browser for the regenerated output.
func (s *Server) onChange(ctx context.Context, changed []string) {
	settings := make([]string, 0, len(s.opts.Overlays)+1)
	for _, p := range s.sources() {
		if abs, err := filepath.Abs(p); err == nil {
			settings = append(settings, abs)
		}
	}
	for _, p := range changed {
		if slices.Contains(settings, p) {
			s.log.Info("Settings file changed", logfields.File(p))
			_, _ = s.Reload(ctx)
			return
		}
	}
	s.hub.Broadcast(reloadMessage, "output")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	data, err := export.JSON(snap.Config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(FingerprintHeader, snap.Fingerprint)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// handleOutput serves files from OUTPUT_PATH. Until the site has been
// generated, the root redirects to the settings summary.
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	dir, err := s.outputDir()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/_lanterns/", http.StatusTemporaryRedirect)
			return
		}
		http.NotFound(w, r)
		return
	}
	w.Header().Set(FingerprintHeader, s.Snapshot().Fingerprint)
	http.FileServer(http.Dir(dir)).ServeHTTP(w, r)
}
