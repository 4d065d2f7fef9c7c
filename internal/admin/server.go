// Package admin serves an HTTP API that starts simulation runs on demand
// and reports their results.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/logging"
	"wlan-handoff-sim/internal/scenario"
	"wlan-handoff-sim/internal/sim"
)

// Run states.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Limits on requested runs. Larger runs belong on the command line.
const (
	MaxSimulationTime = 600.0
	MaxPayloadSize    = 65507
)

// RunRequest is the body of POST /api/v1/runs. Zero fields keep the
// scenario's values.
type RunRequest struct {
	Scenario       string  `json:"scenario"`
	Seed           *int64  `json:"seed,omitempty"`
	PayloadSize    int     `json:"payload_size,omitempty"`
	SimulationTime float64 `json:"simulation_time,omitempty"`
}

// Run is the state of one requested simulation.
type Run struct {
	ID       string      `json:"id"`
	Scenario string      `json:"scenario"`
	Status   string      `json:"status"`
	Error    string      `json:"error,omitempty"`
	Result   *sim.Result `json:"result,omitempty"`
	Created  time.Time   `json:"created"`
	Finished *time.Time  `json:"finished,omitempty"`
}

//go:embed templates/index.html
var content embed.FS

// Server owns the run registry. Runs execute in the background, at most
// Limit at a time.
type Server struct {
	writer any
	tpl    *template.Template
	sem    *semaphore.Weighted
	group  errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewServer returns a server executing up to limit runs concurrently. The
// logger in ctx is used for run logs; writer, when non-nil, receives the
// rows of every run and must be safe for concurrent use.
func NewServer(ctx context.Context, limit int, writer any) *Server {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Server{
		writer: writer,
		tpl:    template.Must(template.New("index.html").ParseFS(content, "templates/index.html")),
		sem:    semaphore.NewWeighted(int64(limit)),
		ctx:    ctx,
		cancel: cancel,
		runs:   make(map[string]*Run),
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/runs", s.handleCreateRun).Methods(http.MethodPost)
	api.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	api.HandleFunc("/scenarios", s.handleScenarios).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down and waits
// for in-flight runs to stop.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	log := logging.FromContext(ctx)
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}
	log.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Wait blocks until every started run has finished.
func (s *Server) Wait() { _ = s.group.Wait() }

// Close cancels running simulations and waits for them.
func (s *Server) Close() {
	s.cancel()
	s.Wait()
}

// Runs returns a snapshot of all runs, oldest first.
func (s *Server) Runs() []Run {
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, *r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Get returns a snapshot of one run.
func (s *Server) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *r, true
}

// Submit validates req and queues the run.
func (s *Server) Submit(req RunRequest) (Run, error) {
	cfg, err := s.resolve(req)
	if err != nil {
		return Run{}, err
	}
	// Packet rows are not forwarded; server runs only feed the shared sinks.
	var opts []sim.Option
	if hw, ok := s.writer.(sim.HandoffWriter); ok {
		opts = append(opts, sim.WithHandoffWriter(hw))
	}
	if sw, ok := s.writer.(sim.SampleWriter); ok {
		opts = append(opts, sim.WithSampleWriter(sw))
	}
	if rw, ok := s.writer.(sim.ResultWriter); ok {
		opts = append(opts, sim.WithResultWriter(rw))
	}
	id := uuid.New().String()
	simulator, err := sim.NewSimulator(cfg, append(opts, sim.WithRunID(id))...)
	if err != nil {
		return Run{}, err
	}

	run := &Run{ID: id, Scenario: cfg.Name, Status: StatusQueued, Created: time.Now().UTC()}
	s.mu.Lock()
	s.runs[id] = run
	snapshot := *run
	s.mu.Unlock()

	s.group.Go(func() error {
		s.execute(simulator, id)
		return nil
	})
	return snapshot, nil
}

func (s *Server) resolve(req RunRequest) (*config.SimulationConfig, error) {
	name := req.Scenario
	if name == "" {
		name = scenario.Default
	}
	cfg, err := scenario.Lookup(name)
	if err != nil {
		return nil, err
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.PayloadSize != 0 {
		cfg.PayloadSize = req.PayloadSize
	}
	if req.SimulationTime != 0 {
		cfg.SimulationTime = req.SimulationTime
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SimulationTime > MaxSimulationTime {
		return nil, fmt.Errorf("%w: simulation_time %g exceeds %g", config.ErrInvalidConfiguration, cfg.SimulationTime, MaxSimulationTime)
	}
	if cfg.PayloadSize > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload_size %d exceeds %d", config.ErrInvalidConfiguration, cfg.PayloadSize, MaxPayloadSize)
	}
	return cfg, nil
}

func (s *Server) execute(simulator *sim.Simulator, id string) {
	log := logging.FromContext(s.ctx).With("run_id", id)
	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		s.finish(id, nil, err)
		return
	}
	defer s.sem.Release(1)

	s.update(id, func(r *Run) { r.Status = StatusRunning })
	res, err := simulator.Run(logging.NewContext(s.ctx, log))
	if err != nil {
		log.Error("run failed", "err", err)
		s.finish(id, nil, err)
		return
	}
	s.finish(id, &res, nil)
}

func (s *Server) finish(id string, res *sim.Result, err error) {
	now := time.Now().UTC()
	s.update(id, func(r *Run) {
		r.Finished = &now
		switch {
		case err == nil:
			r.Status = StatusDone
			r.Result = res
		case errors.Is(err, context.Canceled):
			r.Status = StatusCancelled
			r.Error = err.Error()
		default:
			r.Status = StatusFailed
			r.Error = err.Error()
		}
	})
}

func (s *Server) update(id string, fn func(*Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[id]; ok {
		fn(r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
			return
		}
	}
	run, err := s.Submit(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	w.Header().Set("Location", "/api/v1/runs/"+run.ID)
	writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Runs())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok := s.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type scenarioInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	all := scenario.BuiltIn()
	out := make([]scenarioInfo, 0, len(all))
	for _, name := range scenario.Names() {
		out = append(out, scenarioInfo{Name: name, Description: all[name].Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Runs      []Run
		Scenarios []string
	}{Runs: s.Runs(), Scenarios: scenario.Names()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}
