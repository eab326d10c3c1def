package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/taskcanvas/pkg/cache"
	"github.com/matzehuels/taskcanvas/pkg/canvas"
	cerrors "github.com/matzehuels/taskcanvas/pkg/errors"
	"github.com/matzehuels/taskcanvas/pkg/flow"
	"github.com/matzehuels/taskcanvas/pkg/rendersync"
)

const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Padding   float64
	Tolerance float64
	Logger    *log.Logger

	// Redis enables render-sync publishing when non-nil.
	Redis          rendersync.Publisher
	Channel        string
	PublishTimeout time.Duration
	Retries        int

	// Cache holds rendered SVG exports keyed by DOT source. Nil disables it.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// Server hosts any number of canvases.
type Server struct {
	opts     Options
	logger   *log.Logger
	mu       sync.RWMutex
	canvases map[string]*entry
	seq      uint64
}

type entry struct {
	mu    sync.Mutex
	ctrl  *canvas.Controller
	nodes map[string]flow.Node // placed through the palette, by id
	seq   uint64
}

// New creates a server with no canvases.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NullCache{}
	}
	return &Server{
		opts:     opts,
		logger:   opts.Logger,
		canvases: make(map[string]*entry),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})

	r.Route("/canvases", func(r chi.Router) {
		r.Post("/", s.createCanvas)
		r.Get("/", s.listCanvases)

		r.Route("/{canvas}", func(r chi.Router) {
			r.Get("/", s.frame(s.snapshot))
			r.Delete("/", s.deleteCanvas)
			r.Post("/reset", s.frame(s.reset))
			r.Get("/export.dot", s.exportDOT)
			r.Get("/export.svg", s.exportSVG)

			r.Post("/nodes", s.frame(s.placeNode))
			r.Route("/nodes/{node}", func(r chi.Router) {
				r.Delete("/", s.frame(s.destroyNode))
				r.Put("/bounds", s.frame(s.registerBounds))
				r.Get("/anchors", s.frame(s.anchors))
				r.Post("/anchors", s.frame(s.createAnchor))
				r.Delete("/anchors/{handle}", s.frame(s.removeAnchor))
				r.Delete("/edges/{edge}", s.frame(s.removeEdge))
				r.Post("/prune", s.frame(s.prune))
			})

			r.Post("/connect/start", s.frame(s.connectStart))
			r.Post("/connect/move", s.frame(s.connectMove))
			r.Post("/connect/drop", s.frame(s.connectDrop))
			r.Post("/connect/end", s.frame(s.connectEnd))
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("canvas server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down canvas server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Canvas Registry
// =============================================================================

// Create adds a canvas and returns its id.
func (s *Server) Create() (string, error) {
	id := uuid.NewString()
	logger := s.logger.With("canvas", id)
	ctrl := canvas.New(canvas.Options{
		Padding:   s.opts.Padding,
		Tolerance: s.opts.Tolerance,
		Logger:    logger,
	})

	sinks := []rendersync.SyncFunc{func(ids []string) {
		logger.Debug("render sync", "nodes", ids)
	}}
	if s.opts.Redis != nil {
		pub := rendersync.NewRedisPublisher(s.opts.Redis, s.opts.Channel, id, logger)
		pub.SetTimeout(s.opts.PublishTimeout)
		pub.SetRetries(s.opts.Retries, 0)
		sinks = append(sinks, pub.Sync)
	}
	if err := ctrl.RegisterSync(rendersync.Fanout(sinks...)); err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeInternal, err, "register render sync")
	}

	s.mu.Lock()
	s.seq++
	s.canvases[id] = &entry{ctrl: ctrl, nodes: make(map[string]flow.Node), seq: s.seq}
	s.mu.Unlock()
	return id, nil
}

// IDs returns the ids of all canvases, oldest first.
func (s *Server) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.canvases))
	for id := range s.canvases {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Compare(s.canvases[a].seq, s.canvases[b].seq)
	})
	return ids
}

// Delete closes and forgets a canvas. It reports whether the canvas existed.
func (s *Server) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.canvases[id]
	delete(s.canvases, id)
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.ctrl.Close()
		e.mu.Unlock()
	}
	return ok
}

func (s *Server) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.canvases[id]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeCanvasNotFound, "canvas %q not found", id)
	}
	return e, nil
}

// =============================================================================
// Frames
// =============================================================================

// frameResponse wraps every canvas response with the nodes synced by the
// flush that closed the frame.
type frameResponse struct {
	Data   any      `json:"data,omitempty"`
	Synced []string `json:"synced"`
}

type frameFunc func(r *http.Request, e *entry) (any, error)

// frame locks the canvas, runs fn, and flushes the bridge once.
func (s *Server) frame(fn frameFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.lookup(chi.URLParam(r, "canvas"))
		if err != nil {
			writeError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		e.mu.Lock()
		data, err := fn(r, e)
		synced := e.ctrl.Flush()
		e.mu.Unlock()

		if err != nil {
			writeError(w, err)
			return
		}
		if synced == nil {
			synced = []string{}
		}
		status := http.StatusOK
		if c, ok := data.(createdResult); ok {
			status, data = http.StatusCreated, c.v
		}
		writeJSON(w, status, frameResponse{Data: data, Synced: synced})
	}
}

// createdResult marks a frame result that answers with 201.
type createdResult struct{ v any }

// =============================================================================
// Encoding
// =============================================================================

type errorBody struct {
	Error struct {
		Code    cerrors.Code `json:"code"`
		Message string       `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := cerrors.GetCode(err)
	if code == "" {
		code = cerrors.ErrCodeInternal
	}
	var body errorBody
	body.Error.Code = code
	body.Error.Message = cerrors.UserMessage(err)
	writeJSON(w, code.HTTPStatus(), body)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// requestLogger logs one line per request through the charm logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
