package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/dashboard"
)

// Service is the reconciler surface exposed over HTTP
type Service interface {
	EnsureIssue(ctx context.Context, in dashboard.EnsureIssueInput) dashboard.EnsureResult
	EnsureIssueClosed(ctx context.Context, title string) error
	FindIssue(ctx context.Context, title string) dashboard.IssueResult
	GetIssue(ctx context.Context, number int, useCache bool) dashboard.IssueResult
}

// Handler handles REST API requests. Calls into the service are serialized
// because the reconciler's issue cache is not safe for concurrent use.
type Handler struct {
	mu      sync.Mutex
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new REST handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// EnsureIssueRequest represents a request to create or update the dashboard
type EnsureIssueRequest struct {
	Title      string `json:"title"`
	ReuseTitle string `json:"reuse_title,omitempty"`
	Body       string `json:"body"`
}

// EnsureIssueResponse carries "created", "updated" or null
type EnsureIssueResponse struct {
	Result *string `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// CloseIssueRequest represents a request to close issues by title
type CloseIssueRequest struct {
	Title string `json:"title"`
}

// IssueResponse represents a fetched issue
type IssueResponse struct {
	Number int    `json:"number"`
	Body   string `json:"body"`
}

// ErrorResponse is returned with non-2xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}

// EnsureIssue handles POST /issues/ensure
func (h *Handler) EnsureIssue(w http.ResponseWriter, r *http.Request) {
	var req EnsureIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "title is required"})
		return
	}

	h.mu.Lock()
	res := h.service.EnsureIssue(r.Context(), dashboard.EnsureIssueInput{
		Title:      req.Title,
		ReuseTitle: req.ReuseTitle,
		Body:       req.Body,
	})
	h.mu.Unlock()

	resp := EnsureIssueResponse{}
	if res.Changed() {
		outcome := res.Outcome.String()
		resp.Result = &outcome
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// CloseIssue handles POST /issues/close
func (h *Handler) CloseIssue(w http.ResponseWriter, r *http.Request) {
	var req CloseIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "title is required"})
		return
	}

	h.mu.Lock()
	err := h.service.EnsureIssueClosed(r.Context(), req.Title)
	h.mu.Unlock()

	if err != nil {
		h.logger.Error("failed to close issues", zap.String("title", req.Title), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FindIssue handles GET /issues?title=
func (h *Handler) FindIssue(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "title query parameter is required"})
		return
	}

	h.mu.Lock()
	res := h.service.FindIssue(r.Context(), title)
	h.mu.Unlock()

	writeIssue(w, res)
}

// GetIssue handles GET /issues/{number}
func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "issue number must be a positive integer"})
		return
	}

	useCache := r.URL.Query().Get("use_cache") != "false"

	h.mu.Lock()
	res := h.service.GetIssue(r.Context(), number, useCache)
	h.mu.Unlock()

	writeIssue(w, res)
}

// RegisterRoutes registers REST API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/issues/ensure", h.EnsureIssue)
	r.Post("/issues/close", h.CloseIssue)
	r.Get("/issues", h.FindIssue)
	r.Get("/issues/{number}", h.GetIssue)
}

// NewRouter mounts the handler under /api/v1 next to a health check
func NewRouter(h *Handler) chi.Router {
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return router
}

// writeIssue answers 502 when the tracker call failed and 404 on a clean miss
func writeIssue(w http.ResponseWriter, res dashboard.IssueResult) {
	if res.Err != nil {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: res.Err.Error()})
		return
	}
	if !res.Found() {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "issue not found"})
		return
	}
	writeJSON(w, http.StatusOK, IssueResponse{Number: res.Issue.Number, Body: res.Issue.Body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
