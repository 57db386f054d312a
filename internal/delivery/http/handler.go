package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"
	"shortlink/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// defaultStatsWindow is the range used when a stats query names no bounds.
const defaultStatsWindow = 30 * 24 * time.Hour

// Handler handles HTTP requests for URL and bulk operations
type Handler struct {
	service   *usecase.URLService
	processor *usecase.BulkOperationProcessor
	tracker   *usecase.ProgressTracker
	baseURL   string
	logger    *zap.Logger
	db        *sql.DB
}

// NewHandler creates a new Handler
func NewHandler(service *usecase.URLService, processor *usecase.BulkOperationProcessor, tracker *usecase.ProgressTracker, baseURL string, logger *zap.Logger, db *sql.DB) *Handler {
	return &Handler{
		service:   service,
		processor: processor,
		tracker:   tracker,
		baseURL:   baseURL,
		logger:    logger,
		db:        db,
	}
}

// CreateShortURLRequest represents the request body for creating a short URL
type CreateShortURLRequest struct {
	OriginalURL string     `json:"original_url"`
	CustomCode  string     `json:"custom_code,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// URLResponse represents the response for URL operations
type URLResponse struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (h *Handler) urlResponse(u *domain.URL) URLResponse {
	return URLResponse{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		ShortURL:    h.baseURL + "/" + u.ShortCode,
		OriginalURL: u.OriginalURL,
		IsActive:    u.IsActive,
		ExpiresAt:   u.ExpiresAt,
		CreatedAt:   u.CreatedAt,
	}
}

// userID identifies the caller. There is no authentication layer; the
// gateway in front of this service sets the header.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

// CreateShortURL handles POST /api/v1/urls
func (h *Handler) CreateShortURL(w http.ResponseWriter, r *http.Request) {
	var req CreateShortURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with 'original_url' field",
		))
		return
	}
	if req.OriginalURL == "" {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidURL,
			"Invalid URL",
			"original_url is required",
		))
		return
	}

	u, err := h.service.CreateURL(r.Context(), userID(r), req.OriginalURL, req.CustomCode, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidURL):
			writeProblem(w, problemdetails.New(
				http.StatusBadRequest, problemdetails.TypeInvalidURL,
				"Invalid URL", err.Error(),
			))
		case errors.Is(err, domain.ErrInvalidShortCode):
			writeProblem(w, problemdetails.New(
				http.StatusBadRequest, problemdetails.TypeInvalidShortCode,
				"Invalid Short Code", "Custom code must be 1-50 characters of letters, digits, hyphen or underscore",
			))
		case errors.Is(err, domain.ErrShortCodeExists):
			writeProblem(w, problemdetails.New(
				http.StatusConflict, problemdetails.TypeConflict,
				"Short Code Taken", "The requested custom code is already in use",
			))
		default:
			h.logger.Error("create url failed", zap.Error(err))
			writeProblem(w, internalProblem())
		}
		return
	}

	writeJSON(w, http.StatusCreated, h.urlResponse(u))
}

// Redirect handles GET /{code}
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	u, err := h.service.GetByShortCode(r.Context(), code)
	if err != nil {
		h.writeLookupError(w, code, err)
		return
	}

	// Capture request metadata before responding; r is not safe to touch
	// after the handler returns.
	info := clickInfo(r)

	http.Redirect(w, r, u.OriginalURL, http.StatusFound)

	// Enqueue is non-blocking; a closed pipeline loses the click but never
	// the redirect.
	if err := h.service.RecordClick(u.ID, info); err != nil {
		h.logger.Warn("click dropped",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}
}

// GetURLDetails handles GET /api/v1/urls/{code}
func (h *Handler) GetURLDetails(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	u, err := h.service.GetByShortCode(r.Context(), code)
	if err != nil {
		h.writeLookupError(w, code, err)
		return
	}

	writeJSON(w, http.StatusOK, h.urlResponse(u))
}

// DeleteURL handles DELETE /api/v1/urls/{code}
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.DeleteURL(r.Context(), userID(r), code); err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound, problemdetails.TypeNotFound,
				"Not Found", "Short URL not found: "+code,
			))
			return
		}
		h.logger.Error("delete url failed", zap.String("short_code", code), zap.Error(err))
		writeProblem(w, internalProblem())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DayCountResponse is one day of click counts.
type DayCountResponse struct {
	Day    string `json:"day"`
	Clicks int64  `json:"clicks"`
}

// URLStatsResponse aggregates clicks for one short URL.
type URLStatsResponse struct {
	ShortCode   string             `json:"short_code"`
	TotalClicks int64              `json:"total_clicks"`
	Daily       []DayCountResponse `json:"daily"`
}

// UserStatsResponse aggregates clicks across a user's URLs.
type UserStatsResponse struct {
	UserID      string             `json:"user_id"`
	TotalClicks int64              `json:"total_clicks"`
	URLCount    int64              `json:"url_count"`
	Daily       []DayCountResponse `json:"daily"`
}

func dayCounts(daily []domain.DayCount) []DayCountResponse {
	out := make([]DayCountResponse, len(daily))
	for i, d := range daily {
		out[i] = DayCountResponse{Day: d.Day.Format("2006-01-02"), Clicks: d.Clicks}
	}
	return out
}

// GetURLStats handles GET /api/v1/urls/{code}/stats
func (h *Handler) GetURLStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	from, to := statsRange(r)

	stats, err := h.service.URLStats(r.Context(), code, from, to)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrURLNotFound):
			writeProblem(w, problemdetails.New(
				http.StatusNotFound, problemdetails.TypeNotFound,
				"Not Found", "Short URL not found: "+code,
			))
		case errors.Is(err, domain.ErrRecorderClosed):
			writeProblem(w, problemdetails.New(
				http.StatusServiceUnavailable, problemdetails.TypeServiceUnavailable,
				"Service Unavailable", "Click statistics are temporarily unavailable",
			))
		default:
			h.logger.Error("url stats failed", zap.String("short_code", code), zap.Error(err))
			writeProblem(w, internalProblem())
		}
		return
	}

	writeJSON(w, http.StatusOK, URLStatsResponse{
		ShortCode:   code,
		TotalClicks: stats.TotalClicks,
		Daily:       dayCounts(stats.Daily),
	})
}

// GetUserStats handles GET /api/v1/users/{userID}/stats
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "userID")
	from, to := statsRange(r)

	stats, err := h.service.UserStats(r.Context(), user, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrRecorderClosed) {
			writeProblem(w, problemdetails.New(
				http.StatusServiceUnavailable, problemdetails.TypeServiceUnavailable,
				"Service Unavailable", "Click statistics are temporarily unavailable",
			))
			return
		}
		h.logger.Error("user stats failed", zap.String("user_id", user), zap.Error(err))
		writeProblem(w, internalProblem())
		return
	}

	writeJSON(w, http.StatusOK, UserStatsResponse{
		UserID:      user,
		TotalClicks: stats.TotalClicks,
		URLCount:    stats.URLCount,
		Daily:       dayCounts(stats.Daily),
	})
}

// ListUserURLs handles GET /api/v1/users/{userID}/urls
func (h *Handler) ListUserURLs(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "userID")

	urls, err := h.service.UserURLs(r.Context(), user)
	if err != nil {
		h.logger.Error("list urls failed", zap.String("user_id", user), zap.Error(err))
		writeProblem(w, internalProblem())
		return
	}

	out := make([]URLResponse, len(urls))
	for i := range urls {
		out[i] = h.urlResponse(&urls[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// BulkMutationRequest represents the body for POST /api/v1/bulk
type BulkMutationRequest struct {
	Operation string     `json:"operation"`
	URLIDs    []int64    `json:"url_ids"`
	Active    *bool      `json:"active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// BulkCreationRequest represents the body for POST /api/v1/bulk/urls
type BulkCreationRequest struct {
	URLs []CreateShortURLRequest `json:"urls"`
}

// OperationAcceptedResponse carries the id to poll after a bulk submission.
type OperationAcceptedResponse struct {
	OperationID string `json:"operation_id"`
}

// SubmitBulk handles POST /api/v1/bulk
func (h *Handler) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest, problemdetails.TypeInvalidRequest,
			"Invalid Request", "Request body must be valid JSON",
		))
		return
	}

	kind := domain.BulkOperationKind(req.Operation)
	if !kind.Valid() || kind == domain.BulkCreate {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest, problemdetails.TypeInvalidRequest,
			"Invalid Request", "Unknown bulk operation: "+req.Operation,
		))
		return
	}
	if len(req.URLIDs) == 0 {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest, problemdetails.TypeInvalidRequest,
			"Invalid Request", "url_ids must not be empty",
		))
		return
	}

	actor := userID(r)
	opID := h.tracker.CreateOperation(actor, kind, len(req.URLIDs))
	params := domain.BulkParams{Active: req.Active, ExpiresAt: req.ExpiresAt}
	if err := h.processor.Process(r.Context(), opID, kind, req.URLIDs, params, actor); err != nil {
		h.logger.Error("bulk submission failed", zap.String("operation_id", opID), zap.Error(err))
		writeProblem(w, internalProblem())
		return
	}

	writeJSON(w, http.StatusAccepted, OperationAcceptedResponse{OperationID: opID})
}

// SubmitBulkCreation handles POST /api/v1/bulk/urls
func (h *Handler) SubmitBulkCreation(w http.ResponseWriter, r *http.Request) {
	var req BulkCreationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest, problemdetails.TypeInvalidRequest,
			"Invalid Request", "Request body must be valid JSON",
		))
		return
	}
	if len(req.URLs) == 0 {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest, problemdetails.TypeInvalidRequest,
			"Invalid Request", "urls must not be empty",
		))
		return
	}

	requests := make([]domain.BulkCreateRequest, len(req.URLs))
	for i, u := range req.URLs {
		requests[i] = domain.BulkCreateRequest{
			OriginalURL: u.OriginalURL,
			CustomCode:  u.CustomCode,
			ExpiresAt:   u.ExpiresAt,
		}
	}

	actor := userID(r)
	opID := h.tracker.CreateOperation(actor, domain.BulkCreate, len(requests))
	if err := h.processor.ProcessCreation(r.Context(), opID, requests, actor); err != nil {
		h.logger.Error("bulk creation submission failed", zap.String("operation_id", opID), zap.Error(err))
		writeProblem(w, internalProblem())
		return
	}

	writeJSON(w, http.StatusAccepted, OperationAcceptedResponse{OperationID: opID})
}

// OperationResponse is the progress snapshot of a bulk operation.
type OperationResponse struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Kind               string    `json:"kind"`
	Status             string    `json:"status"`
	TotalItems         int       `json:"total_items"`
	ProcessedItems     int       `json:"processed_items"`
	SuccessfulItems    int       `json:"successful_items"`
	FailedItems        int       `json:"failed_items"`
	ProgressPercentage float64   `json:"progress_percentage"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func operationResponse(op domain.OperationProgress) OperationResponse {
	return OperationResponse{
		ID:                 op.ID,
		UserID:             op.UserID,
		Kind:               string(op.Kind),
		Status:             string(op.Status),
		TotalItems:         op.TotalItems,
		ProcessedItems:     op.ProcessedItems,
		SuccessfulItems:    op.SuccessfulItems,
		FailedItems:        op.FailedItems,
		ProgressPercentage: op.ProgressPercentage,
		CreatedAt:          op.CreatedAt,
		UpdatedAt:          op.UpdatedAt,
	}
}

// GetOperation handles GET /api/v1/operations/{id}
func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	op, err := h.tracker.Progress(id)
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusNotFound, problemdetails.TypeNotFound,
			"Not Found", "Operation not found: "+id,
		))
		return
	}

	writeJSON(w, http.StatusOK, operationResponse(op))
}

// CancelOperation handles POST /api/v1/operations/{id}/cancel
func (h *Handler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.tracker.Cancel(id); err != nil {
		switch {
		case errors.Is(err, domain.ErrOperationNotFound):
			writeProblem(w, problemdetails.New(
				http.StatusNotFound, problemdetails.TypeNotFound,
				"Not Found", "Operation not found: "+id,
			))
		case errors.Is(err, domain.ErrOperationFinished):
			writeProblem(w, problemdetails.New(
				http.StatusConflict, problemdetails.TypeConflict,
				"Operation Finished", "The operation already finished and cannot be cancelled",
			))
		default:
			h.logger.Error("cancel failed", zap.String("operation_id", id), zap.Error(err))
			writeProblem(w, internalProblem())
		}
		return
	}

	op, err := h.tracker.Progress(id)
	if err != nil {
		writeProblem(w, internalProblem())
		return
	}
	writeJSON(w, http.StatusOK, operationResponse(op))
}

// ListUserOperations handles GET /api/v1/users/{userID}/operations
func (h *Handler) ListUserOperations(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "userID")

	ops := h.tracker.UserOperations(user)
	out := make([]OperationResponse, len(ops))
	for i, op := range ops {
		out[i] = operationResponse(op)
	}
	writeJSON(w, http.StatusOK, out)
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Healthz handles GET /healthz (liveness probe)
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz handles GET /readyz (readiness probe)
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Reason: "database unavailable: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

func (h *Handler) writeLookupError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, domain.ErrURLNotFound):
		writeProblem(w, problemdetails.New(
			http.StatusNotFound, problemdetails.TypeNotFound,
			"Not Found", "Short URL not found: "+code,
		))
	case errors.Is(err, domain.ErrURLExpired):
		writeProblem(w, problemdetails.New(
			http.StatusGone, problemdetails.TypeGone,
			"Gone", "Short URL has expired: "+code,
		))
	default:
		h.logger.Error("url lookup failed", zap.String("short_code", code), zap.Error(err))
		writeProblem(w, internalProblem())
	}
}

func internalProblem() *problemdetails.ProblemDetail {
	return problemdetails.New(
		http.StatusInternalServerError,
		problemdetails.TypeInternalError,
		"Internal Server Error",
		"Internal server error",
	)
}

func clickInfo(r *http.Request) domain.ClickInfo {
	clientIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		clientIP = host
	}
	return domain.ClickInfo{
		IPAddress:   clientIP,
		UserAgent:   r.Header.Get("User-Agent"),
		Referer:     r.Header.Get("Referer"),
		CountryCode: r.Header.Get("CF-IPCountry"),
	}
}

// statsRange parses optional from/to query parameters (RFC 3339 or
// YYYY-MM-DD), defaulting to the trailing 30 days.
func statsRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := now.Add(-defaultStatsWindow)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		if parsed, ok := parseTime(v); ok {
			from = parsed
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if parsed, ok := parseTime(v); ok {
			to = parsed
		}
	}
	return from, to
}

func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
