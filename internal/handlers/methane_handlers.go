package handlers

import (
	"net/http"

	"env-monitor/internal/aggregator"
	"env-monitor/internal/models"
)

// Unavailable is rendered in place of a trend value that cannot be computed
const Unavailable = "Unavailable"

// TrendView is the display form of a TrendResult: values rounded to two
// decimals, or the string "Unavailable".
type TrendView struct {
	YearlyChange     interface{} `json:"yearly_change"`
	PercentageChange interface{} `json:"percentage_change"`
}

func displayValue(v *float64) interface{} {
	if v == nil {
		return Unavailable
	}
	return aggregator.Round2(*v)
}

func newTrendView(t models.TrendResult) TrendView {
	return TrendView{
		YearlyChange:     displayValue(t.YearlyChange),
		PercentageChange: displayValue(t.PercentageChange),
	}
}

// AnalysisView is the display form of aggregator.Analysis
type AnalysisView struct {
	Available     bool                 `json:"available"`
	Message       string               `json:"message,omitempty"`
	Range         string               `json:"range"`
	LatestYear    int                  `json:"latest_year,omitempty"`
	LatestAverage *float64             `json:"latest_average,omitempty"`
	Highest       *float64             `json:"highest,omitempty"`
	Lowest        *float64             `json:"lowest,omitempty"`
	Trend         TrendView            `json:"trend"`
	Direction     aggregator.Direction `json:"direction,omitempty"`
}

// rounded is set for every available analysis so a zero value is still emitted
func rounded(v float64) *float64 {
	r := aggregator.Round2(v)
	return &r
}

func parseRange(r *http.Request) (aggregator.YearWindow, error) {
	return aggregator.ParseYearWindow(r.URL.Query().Get("range"))
}

// GetMethaneYearly handles GET /api/methane/yearly
func (h *Handler) GetMethaneYearly(w http.ResponseWriter, r *http.Request) {
	window, err := parseRange(r)
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_YEARLY_ERROR", err)
		return
	}

	yearly, err := h.methaneService.Yearly(r.Context(), window)
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_YEARLY_ERROR", err)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"range": window.String(),
		"data":  yearly,
	}, http.StatusOK)
}

// GetMethaneMonthly handles GET /api/methane/monthly
func (h *Handler) GetMethaneMonthly(w http.ResponseWriter, r *http.Request) {
	monthly, err := h.methaneService.Monthly(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_MONTHLY_ERROR", err)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"data": monthly,
	}, http.StatusOK)
}

// GetMethaneTrend handles GET /api/methane/trend
func (h *Handler) GetMethaneTrend(w http.ResponseWriter, r *http.Request) {
	window, err := parseRange(r)
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_TREND_ERROR", err)
		return
	}

	trend, err := h.methaneService.Trend(r.Context(), window)
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_TREND_ERROR", err)
		return
	}

	h.sendJSON(w, newTrendView(trend), http.StatusOK)
}

// GetMethaneAnalysis handles GET /api/methane/analysis
func (h *Handler) GetMethaneAnalysis(w http.ResponseWriter, r *http.Request) {
	window, err := parseRange(r)
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_ANALYSIS_ERROR", err)
		return
	}

	analysis, err := h.methaneService.Analysis(r.Context(), window)
	if err != nil {
		h.handleServiceError(w, r, "API_METHANE_ANALYSIS_ERROR", err)
		return
	}

	view := AnalysisView{
		Available: analysis.Available,
		Range:     window.String(),
		Trend:     newTrendView(analysis.Trend),
		Direction: analysis.Direction,
	}
	if !analysis.Available {
		view.Message = "insufficient data for analysis"
	} else {
		view.LatestYear = analysis.LatestYear
		view.LatestAverage = rounded(analysis.LatestAverage)
		view.Highest = rounded(analysis.Highest)
		view.Lowest = rounded(analysis.Lowest)
	}

	h.sendJSON(w, view, http.StatusOK)
}
