package dev

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chen-dev/chen/internal/config"
	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/router"
	"github.com/chen-dev/chen/pkg/virtual"
)

// Endpoints served by the development server besides ReloadPath.
const (
	ModulePathPrefix = "/@id/"
	RoutesPath       = "/_chen/routes"
	EntryPath        = "/_chen/entry.js"
	MetricsPath      = "/metrics"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger receives server diagnostics. Nil disables logging.
	Logger *zap.Logger

	// OnReload is called after browsers were asked to reload.
	OnReload func(clients int)

	// OnError is called when route generation fails.
	OnError func(err error)
}

// Server is one development session. It owns the module graph, the live
// channel, the invalidation watcher and the metrics registry; Stop tears
// all of them down.
type Server struct {
	config  *config.Config
	options ServerOptions
	logger  *zap.Logger

	service      *virtual.Service
	graph        *ModuleGraph
	reloadServer *ReloadServer
	watcher      *Watcher
	metrics      *Metrics
	handler      http.Handler

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
	hotReload  bool
	showsError bool
}

// NewServer creates a development session for the configured project.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := NewMetrics()
	compiler := router.NewCompiler(router.Options{
		Root:       cfg.PagesPath(),
		Extensions: cfg.Pages.Extensions,
		Logger:     logger,
	})

	s := &Server{
		config:       cfg,
		options:      options,
		logger:       logger.Named("dev"),
		service:      virtual.NewService(compiler, logger),
		graph:        NewModuleGraph(),
		reloadServer: NewReloadServer(logger, metrics),
		metrics:      metrics,
		hotReload:    cfg.Dev.HotReload,
	}
	s.watcher = NewWatcher(WatcherConfig{
		Root:    cfg.PagesPath(),
		Ignore:  CollectIgnore(cfg),
		Logger:  logger,
		Metrics: metrics,
	}, s.graph, s)
	s.handler = s.routes()
	return s
}

// Handler returns the session's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Graph returns the session's module graph.
func (s *Server) Graph() *ModuleGraph {
	return s.graph
}

// Watcher returns the session's invalidation watcher.
func (s *Server) Watcher() *Watcher {
	return s.watcher
}

// ReloadServer returns the session's live channel.
func (s *Server) ReloadServer() *ReloadServer {
	return s.reloadServer
}

// Metrics returns the session's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get(ModulePathPrefix+"{id}", s.handleModule)
	r.Get(RoutesPath, s.handleRoutes)
	r.Get(EntryPath, s.handleEntry)
	r.Handle(MetricsPath, s.metrics.Handler())
	if s.hotReload {
		r.Get(ReloadPath, s.reloadServer.HandleWebSocket)
	}
	r.Get("/*", s.handleStatic)
	return r
}

// Start starts watching the pages directory and serves HTTP until ctx is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.httpServer = &http.Server{
		Addr:              s.config.DevAddress(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	if err := s.watcher.Start(); err != nil {
		s.Stop()
		return err
	}

	s.logger.Info("dev server listening",
		zap.String("url", s.config.DevURL()),
		zap.String("pages", s.config.PagesPath()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop tears the session down.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	httpServer := s.httpServer
	s.mu.Unlock()

	s.watcher.Stop()
	s.reloadServer.Close()

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
}

// NotifyReload asks connected browsers for a full reload. It is the
// watcher's reload target.
func (s *Server) NotifyReload() {
	if !s.hotReload {
		s.logger.Info("pages changed (hot reload disabled)")
		return
	}
	s.reloadServer.NotifyReload()
	clients := s.reloadServer.ClientCount()
	if s.options.OnReload != nil {
		s.options.OnReload(clients)
	}
	s.logger.Info("reloaded browsers", zap.Int("clients", clients))
}

// load generates the route module and keeps the error overlay in sync.
func (s *Server) load(ctx context.Context, id string) (*router.Result, error) {
	start := time.Now()
	result, err := s.service.LoadResult(ctx, id)
	if err != nil {
		if !errors.HasCode(err, "E110") {
			s.metrics.observeLoad(LoadStatusError, time.Since(start))
			s.reportError(err)
		}
		return nil, err
	}

	s.metrics.observeLoad(LoadStatusOK, time.Since(start))
	s.graph.MarkServed(id)
	s.clearError()
	return result, nil
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid module id", http.StatusBadRequest)
		return
	}
	id := virtual.DecodeURLID(raw)
	if resolved, ok := s.service.Resolve(id); ok {
		id = resolved
	}

	result, err := s.load(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.HasCode(err, "E110") {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	if r.URL.Query().Get("raw") == "1" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(result.Code)
		return
	}

	s.serveBundle(w, r, virtual.PublicID)
}

// handleEntry serves the application entry bundled with the route module,
// its pages and their dependencies.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	if _, err := s.load(r.Context(), virtual.ResolvedID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	s.serveBundle(w, r, s.config.EntryPath())
}

func (s *Server) serveBundle(w http.ResponseWriter, r *http.Request, entry string) {
	code, err := s.bundle(r.Context(), entry)
	if err != nil {
		s.reportError(err)
		http.Error(w, overlayText(err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write(code)
}

// bundle builds entry into one self-contained ES module. Pages are inlined
// and bare imports resolve from the project's node_modules, so the browser
// never sees a filesystem path or a bare specifier. Configured externals
// stay external.
func (s *Server) bundle(ctx context.Context, entry string) ([]byte, error) {
	out := api.Build(api.BuildOptions{
		EntryPoints:   []string{entry},
		AbsWorkingDir: s.config.Dir(),
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		JSX:           api.JSXAutomatic,
		Sourcemap:     api.SourceMapInline,
		External:      s.config.Build.External,
		Define:        map[string]string{"process.env.NODE_ENV": `"development"`},
		LogLevel:      api.LogLevelSilent,
		Plugins:       []api.Plugin{s.service.PluginContext(ctx)},
	})
	if len(out.Errors) > 0 {
		texts := make([]string, 0, len(out.Errors))
		for _, m := range out.Errors {
			texts = append(texts, m.Text)
		}
		return nil, errors.New("E130").
			WithFile(entry).
			WithDetail(strings.Join(texts, "\n")).
			WithSuggestion("Install the imported packages with your package manager")
	}
	if len(out.OutputFiles) == 0 {
		return nil, errors.New("E130").WithFile(entry).WithDetail("esbuild produced no output.")
	}
	return out.OutputFiles[0].Contents, nil
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	result, err := s.load(r.Context(), virtual.ResolvedID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result.Table)
}

// handleStatic serves the static directory. HTML documents get the dev
// client script, and extensionless paths that match no file fall back to
// index.html so client-side routes load.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	root := s.config.StaticPath()
	name := path.Clean("/" + r.URL.Path)
	file := filepath.Join(root, filepath.FromSlash(name))

	info, err := os.Stat(file)
	switch {
	case err == nil && info.IsDir():
		file = filepath.Join(file, "index.html")
	case err != nil && path.Ext(name) == "":
		file = filepath.Join(root, "index.html")
	}

	if strings.HasSuffix(file, ".html") {
		body, err := os.ReadFile(file)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if s.hotReload {
			body = []byte(injectScript(string(body), DevClientScript))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
		return
	}

	http.ServeFile(w, r, file)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) reportError(err error) {
	s.logger.Error("route generation failed", zap.Error(err))
	if s.options.OnError != nil {
		s.options.OnError(err)
	}
	if !s.hotReload {
		return
	}
	s.mu.Lock()
	s.showsError = true
	s.mu.Unlock()
	s.reloadServer.NotifyError(overlayText(err))
}

func (s *Server) clearError() {
	s.mu.Lock()
	shows := s.showsError
	s.showsError = false
	s.mu.Unlock()
	if shows {
		s.reloadServer.ClearError()
	}
}

// injectScript inserts script before </body>, falling back to </html> and
// then to the end of the document.
func injectScript(html, script string) string {
	if idx := strings.LastIndex(html, "</body>"); idx != -1 {
		return html[:idx] + script + html[idx:]
	}
	if idx := strings.LastIndex(html, "</html>"); idx != -1 {
		return html[:idx] + script + html[idx:]
	}
	return html + script
}

// overlayText renders err for the browser error overlay.
func overlayText(err error) string {
	var ce *errors.Error
	if stderrors.As(err, &ce) && ce.Detail != "" {
		return ce.Error() + "\n\n" + ce.Detail
	}
	return err.Error()
}
