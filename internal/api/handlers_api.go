package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/cities"
	"github.com/lox/airwatch/internal/dashboard"
	"github.com/lox/airwatch/internal/models"
	"github.com/lox/airwatch/internal/simulate"
	"github.com/lox/airwatch/internal/store"
)

const defaultLimit = 50

func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Current())
}

func (s *Server) handleAPISelect(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("city")
	if name == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}
	if err := s.controller.Select(name); err != nil {
		writeError(w, selectStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, s.controller.Current())
}

func selectStatus(err error) int {
	switch {
	case errors.Is(err, cities.ErrUnknownCity):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleAPICities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cities.All())
}

// ClassifyResponse is everything derived from a single AQI value.
type ClassifyResponse struct {
	AQI            float64            `json:"aqi"`
	Classification aqi.Classification `json:"classification"`
	Advisories     []string           `json:"advisories"`
	Risks          []aqi.GroupRisk    `json:"vulnerableGroupRisks"`
}

func (s *Server) handleAPIClassify(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.ParseFloat(r.URL.Query().Get("aqi"), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		writeError(w, http.StatusBadRequest, "aqi must be a number")
		return
	}
	writeJSON(w, http.StatusOK, classify(value, s.controller.RiskTable()))
}

func classify(value float64, risks aqi.RiskTable) ClassifyResponse {
	c := aqi.Classify(value)
	return ClassifyResponse{
		AQI:            value,
		Classification: c,
		Advisories:     aqi.AdviceFor(c.Category),
		Risks:          risks.Assess(value),
	}
}

// TrendsResponse backs the trends tab.
type TrendsResponse struct {
	Historical []models.HistoricalPoint `json:"historicalSeries"`
	Sources    []models.PollutionSource `json:"pollutionSources"`
}

func (s *Server) handleAPITrends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TrendsResponse{
		Historical: s.sim.HistoricalSeries(),
		Sources:    simulate.PollutionSources(),
	})
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, forecastViews(s.sim.ForecastSeries()))
}

func parseLimit(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// handleAPIAlerts lists the alert log, newest first. With ?city= it lists
// only that city's alerts that have not been cleared.
func (s *Server) handleAPIAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	if s.store == nil {
		writeJSON(w, http.StatusOK, []models.AlertRecord{})
		return
	}

	var (
		alerts []models.AlertRecord
		err    error
	)
	if city := r.URL.Query().Get("city"); city != "" {
		alerts, err = s.store.GetOpenAlerts(city)
	} else {
		alerts, err = s.store.GetAlerts(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if alerts == nil {
		alerts = []models.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAPIAcknowledge(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "alert log disabled")
		return
	}
	err := s.store.AcknowledgeAlert(r.PathValue("id"), s.clock())
	switch {
	case errors.Is(err, store.ErrAlertNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// FetchRunView is the JSON form of a fetch audit row.
type FetchRunView struct {
	ID           int64           `json:"id"`
	RequestID    uint64          `json:"requestId"`
	City         string          `json:"city"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
	Outcome      string          `json:"outcome"`
	AQI          *float64        `json:"aqi,omitempty"`
	Error        string          `json:"error,omitempty"`
	QualityFlags json.RawMessage `json:"qualityFlags,omitempty"`
}

func fetchRunView(run store.FetchRun) FetchRunView {
	v := FetchRunView{
		ID:        run.ID,
		RequestID: run.RequestID,
		City:      run.City,
		StartedAt: run.StartedAt,
		Outcome:   run.Outcome,
		Error:     run.ErrorMessage.String,
	}
	if run.FinishedAt.Valid {
		t := run.FinishedAt.Time
		v.FinishedAt = &t
	}
	if run.AQI.Valid {
		aqi := run.AQI.Float64
		v.AQI = &aqi
	}
	if run.QualityFlags.Valid && run.QualityFlags.String != "" {
		v.QualityFlags = json.RawMessage(run.QualityFlags.String)
	}
	return v
}

func (s *Server) handleAPIFetches(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []FetchRunView{})
		return
	}

	runs, err := s.store.GetRecentFetchRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]FetchRunView, len(runs))
	for i, run := range runs {
		views[i] = fetchRunView(run)
	}
	writeJSON(w, http.StatusOK, views)
}
