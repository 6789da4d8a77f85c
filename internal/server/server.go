// Package server exposes machine instances built from one definition over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atlekbai/hfsm"
	"github.com/atlekbai/hfsm/definition"
	"github.com/atlekbai/hfsm/metrics"
)

// Server hosts machine instances. Instances share the definition and the
// metrics collector; each one is serialized by its own mutex.
type Server struct {
	def       *definition.Definition
	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector

	mu        sync.RWMutex
	instances map[string]*instance
}

type instance struct {
	mu      sync.Mutex
	machine *definition.Machine
}

// New validates def and creates a server with its own metrics registry.
// name labels the exported metrics.
func New(def *definition.Definition, name string, logger *zap.Logger) (*Server, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry, name)
	if err != nil {
		return nil, err
	}
	return &Server{
		def:       def,
		logger:    logger,
		registry:  registry,
		collector: collector,
		instances: make(map[string]*instance),
	}, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/machines", func(r chi.Router) {
		r.Post("/", s.createMachine)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getMachine)
			r.Delete("/", s.deleteMachine)
			r.Post("/fire", s.fire)
			r.Get("/tree", s.tree)
			r.Get("/permitted", s.permitted)
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type machineResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type fireRequest struct {
	Trigger string `json:"trigger"`
	Arg     any    `json:"arg,omitempty"`
}

type fireErrorResponse struct {
	Kind  string `json:"kind"`
	Guard string `json:"guard,omitempty"`
	Error string `json:"error"`
}

func (s *Server) createMachine(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	m, err := s.def.Build(s.logger.With(zap.String("machine", id)), hfsm.WithObserver(s.collector))
	if err != nil {
		s.logger.Error("failed to build machine", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.instances[id] = &instance{machine: m}
	s.mu.Unlock()

	s.logger.Debug("machine created", zap.String("id", id))
	writeJSON(w, http.StatusCreated, machineResponse{ID: id, State: m.CurrentState()})
}

func (s *Server) getMachine(w http.ResponseWriter, r *http.Request) {
	s.withInstance(w, r, func(id string, m *definition.Machine) {
		writeJSON(w, http.StatusOK, machineResponse{ID: id, State: m.CurrentState()})
	})
}

func (s *Server) deleteMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.instances[id]
	delete(s.instances, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "machine not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fire(w http.ResponseWriter, r *http.Request) {
	var req fireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Trigger == "" {
		writeError(w, http.StatusBadRequest, "trigger is required")
		return
	}

	s.withInstance(w, r, func(id string, m *definition.Machine) {
		res, err := m.Fire(req.Trigger, req.Arg)
		if err == nil {
			writeJSON(w, http.StatusOK, res)
			return
		}

		var te *hfsm.TransitionError
		if !errors.As(err, &te) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.logger.Debug("fire rejected",
			zap.String("id", id), zap.String("trigger", req.Trigger), zap.Error(err))
		writeJSON(w, http.StatusConflict, fireErrorResponse{
			Kind:  te.Kind.String(),
			Guard: te.FailedGuard,
			Error: err.Error(),
		})
	})
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	s.withInstance(w, r, func(_ string, m *definition.Machine) {
		writeJSON(w, http.StatusOK, m.ExportLinkForest())
	})
}

func (s *Server) permitted(w http.ResponseWriter, r *http.Request) {
	arg := r.URL.Query().Get("arg")
	s.withInstance(w, r, func(_ string, m *definition.Machine) {
		var args any
		if arg != "" {
			args = arg
		}
		triggers := m.PermittedTriggers(args)
		if triggers == nil {
			triggers = []string{}
		}
		writeJSON(w, http.StatusOK, triggers)
	})
}

// withInstance runs fn with the instance named by the id URL parameter locked.
func (s *Server) withInstance(w http.ResponseWriter, r *http.Request, fn func(id string, m *definition.Machine)) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	inst, ok := s.instances[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "machine not found")
		return
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	fn(id, inst.machine)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
