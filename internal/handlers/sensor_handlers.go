package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"env-monitor/internal/sensors"
	"env-monitor/internal/services"
)

// splitList parses a comma separated query parameter, dropping blanks
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// GetSensorBoard handles GET /api/sensors
func (h *Handler) GetSensorBoard(w http.ResponseWriter, r *http.Request) {
	sel := sensors.Selection{
		Regions: splitList(r.URL.Query().Get("regions")),
		Gases:   splitList(r.URL.Query().Get("gases")),
	}

	rows, err := h.sensorService.Board(r.Context(), sel)
	if err != nil {
		h.handleServiceError(w, r, "API_SENSOR_BOARD_ERROR", err)
		return
	}

	gases := sel.Gases
	if len(gases) == 0 {
		gases = h.sensorService.Catalog().GasNames()
	}

	h.sendJSON(w, map[string]interface{}{
		"gases": gases,
		"rows":  rows,
	}, http.StatusOK)
}

// AddSensorReading handles POST /api/sensors/readings
func (h *Handler) AddSensorReading(w http.ResponseWriter, r *http.Request) {
	var req services.ReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordAPIError("decode_error", routeTemplate(r))
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	reading, err := h.sensorService.AddReading(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, "API_SENSOR_READING_ERROR", err)
		return
	}

	h.sendJSON(w, reading, http.StatusCreated)
}

// GetSensorCatalog handles GET /api/sensors/catalog
func (h *Handler) GetSensorCatalog(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.sensorService.Catalog(), http.StatusOK)
}
