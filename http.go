package lapindex

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/pkg/errors"
)

// Server serves the sessions index and the session documents behind it, the same files a
// static host would serve to the dashboard.
type Server struct {
	config  *Config
	builder *Builder
	metrics *Metrics
	logger  Logger

	server   *http.Server
	listener net.Listener

	// held for a whole build and swap, so an older build can never replace a newer one
	rebuildMutex sync.Mutex

	mutex   sync.RWMutex
	index   []byte
	builtAt time.Time
}

func NewServer(config *Config, builder *Builder, metrics *Metrics, logger Logger) *Server {
	return &Server{
		config:  config,
		builder: builder,
		metrics: metrics,
		logger:  logger,
	}
}

// Rebuild builds a fresh index and swaps it in. The previous index keeps being served if
// the build fails.
func (s *Server) Rebuild(ctx context.Context) (*BuildStats, error) {
	s.rebuildMutex.Lock()
	defer s.rebuildMutex.Unlock()

	index, stats, err := s.builder.Build(ctx)

	if err != nil {
		s.metrics.ObserveBuildError()
		return nil, err
	}

	buf := new(bytes.Buffer)

	if err := EncodeIndex(buf, index, s.config.Indent); err != nil {
		s.metrics.ObserveBuildError()
		return nil, err
	}

	s.mutex.Lock()
	s.index = buf.Bytes()
	s.builtAt = time.Now()
	s.mutex.Unlock()

	s.metrics.ObserveBuild(stats)
	s.logger.Infof("Index rebuilt with %d sessions in %s", stats.Sessions, stats.Duration)

	return stats, nil
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Get("/health", s.Health)
	router.Handle("/metrics", s.metrics.Handler())
	router.Post("/rebuild", s.RebuildHandler)
	router.Get("/sessions/"+filepath.Base(s.config.OutputFile), s.SessionsList)
	router.Get("/sessions/{file}", s.SessionFile)

	if s.config.HTTP.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(s.config.HTTP.StaticDir)))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debugf("Could not find HTTP response for URL: %s", r.URL.String())

		http.NotFound(w, r)
	})

	return router
}

// Listen binds the configured address and starts serving in the background. Bind errors
// are returned to the caller.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.HTTP.Address)

	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", s.config.HTTP.Address)
	}

	s.listener = listener
	s.logger.Infof("HTTP server listening on %s", listener.Addr())

	s.server = &http.Server{
		Handler: s.Router(),
		Addr:    s.config.HTTP.Address,
	}

	go func() {
		err := s.server.Serve(listener)

		if err == http.ErrServerClosed {
			return
		} else if err != nil {
			s.logger.WithError(err).Errorf("HTTP server stopped")
		}
	}()

	return nil
}

// Addr is the bound address once Listen has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	builtAt := s.builtAt
	s.mutex.RUnlock()

	if builtAt.IsZero() {
		http.Error(w, "index not built", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) SessionsList(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	index, builtAt := s.index, s.builtAt
	s.mutex.RUnlock()

	if index == nil {
		http.Error(w, "index not built", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeContent(w, r, "", builtAt, bytes.NewReader(index))
}

func (s *Server) SessionFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")

	if name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".json") {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, filepath.Join(s.config.SessionsDir, name))
}

func (s *Server) RebuildHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Rebuild(r.Context())

	if err != nil {
		s.logger.WithError(err).Error("Could not rebuild sessions index")
		http.Error(w, "Could not rebuild sessions index", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"sessions":%d,"laps":%d,"dropped":%d,"failed":%d}`+"\n", stats.Sessions, stats.Laps, stats.Dropped, stats.Failed)
}
