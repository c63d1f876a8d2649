package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"env-monitor/internal/greenhouse"
	"env-monitor/internal/models"
	"env-monitor/internal/repository"
	"env-monitor/internal/services"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves the monitoring API
type Handler struct {
	methaneService *services.MethaneService
	sensorService  *services.SensorService
	report         *greenhouse.Report
	health         HealthChecker
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
	landing        []byte
}

// NewHandler creates a new API handler
func NewHandler(
	methaneService *services.MethaneService,
	sensorService *services.SensorService,
	report *greenhouse.Report,
	health HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) (*Handler, error) {
	landing, err := renderLanding()
	if err != nil {
		return nil, err
	}

	return &Handler{
		methaneService: methaneService,
		sensorService:  sensorService,
		report:         report,
		health:         health,
		logger:         logger,
		metrics:        metricsCollector,
		landing:        landing,
	}, nil
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"storage":   "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.health.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK] Storage health check failed", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		status["storage"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// GetGreenhouseReport handles GET /api/greenhouse
func (h *Handler) GetGreenhouseReport(w http.ResponseWriter, r *http.Request) {
	response := struct {
		*greenhouse.Report
		AnnualTrend TrendView `json:"annual_trend"`
	}{
		Report:      h.report,
		AnnualTrend: newTrendView(h.report.AnnualTrend),
	}
	h.sendJSON(w, response, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// handleServiceError maps service errors onto HTTP responses
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, tag string, err error) {
	endpoint := routeTemplate(r)

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, validationErr.Error(), http.StatusBadRequest)
		return
	}

	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, notFound.Error(), http.StatusNotFound)
		return
	}

	h.logger.Error(r.Context(), fmt.Sprintf("[%s] Request failed", tag), logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "internal server error", http.StatusInternalServerError)
}

// RegisterRoutes registers all API routes. gatherer backs /metrics.
func (h *Handler) RegisterRoutes(router *mux.Router, gatherer prometheus.Gatherer) {
	router.Use(h.requestMiddleware)

	router.HandleFunc("/", h.Landing).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/methane/yearly", h.GetMethaneYearly).Methods("GET")
	api.HandleFunc("/methane/monthly", h.GetMethaneMonthly).Methods("GET")
	api.HandleFunc("/methane/trend", h.GetMethaneTrend).Methods("GET")
	api.HandleFunc("/methane/analysis", h.GetMethaneAnalysis).Methods("GET")

	api.HandleFunc("/sensors", h.GetSensorBoard).Methods("GET")
	api.HandleFunc("/sensors/readings", h.AddSensorReading).Methods("POST")
	api.HandleFunc("/sensors/catalog", h.GetSensorCatalog).Methods("GET")

	api.HandleFunc("/greenhouse", h.GetGreenhouseReport).Methods("GET")
}
