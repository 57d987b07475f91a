// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/leadtime/internal/adapters/repository"
	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/internal/domain/model"
	"github.com/okian/leadtime/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitDataset queues ds for analysis. Identical datasets resolve to
	// the analysis that already owns them.
	SubmitDataset(ctx context.Context, name string, ds model.Dataset) (types.Submission, error)
	SubmitSample(ctx context.Context) (types.Submission, error)

	// Read operations expose stored analyses.
	Get(ctx context.Context, id string) (repository.Analysis, error)
	Report(ctx context.Context, id string) (analysis.Report, error)
	List(ctx context.Context, limit int) ([]types.AnalysisSummary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analysesHandler *AnalysesHandler
	listHandler     *ListHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analysesHandler: NewAnalysesHandler(deps, cfg.maxUploadBytes, cfg.sheet),
		listHandler:     NewListHandler(deps, cfg.maxListLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyses", MetricsMiddleware(s.handleCollection, "analyses"))
	mux.HandleFunc("/analyses/sample", MetricsMiddleware(s.analysesHandler.HandleSample, "analyses_sample"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.analysesHandler.HandleItem, "analysis"))
}

// handleCollection dispatches /analyses by method.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.analysesHandler.HandleSubmit(w, r)
	case http.MethodGet:
		s.listHandler.HandleList(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the status, so a value that cannot be
// encoded becomes a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
