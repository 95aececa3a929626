package api

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/airwatch/internal/cities"
	"github.com/lox/airwatch/internal/dashboard"
	"github.com/lox/airwatch/internal/imagegen"
	"github.com/lox/airwatch/internal/simulate"
	"github.com/lox/airwatch/internal/store"
)

// CardTTL is how long a rendered AQI card is reused.
const CardTTL = time.Minute

type Server struct {
	controller *dashboard.Controller
	cities     *cities.Registry
	sim        *simulate.Simulator
	store      *store.Store
	port       string
	tmpl       *template.Template
	cardCache  *imagegen.CardCache
	clock      func() time.Time
}

// NewServer wires the HTTP view onto a running controller. The simulator is
// used directly for the trends and forecast endpoints, which draw fresh
// series on every request.
func NewServer(controller *dashboard.Controller, reg *cities.Registry, sim *simulate.Simulator, st *store.Store, port string) *Server {
	return &Server{
		controller: controller,
		cities:     reg,
		sim:        sim,
		store:      st,
		port:       port,
		tmpl:       newTemplates(),
		cardCache:  imagegen.NewCardCache(CardTTL),
		clock:      time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /select", s.handleSelectForm)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /card.png", s.handleCard)
	mux.HandleFunc("GET /api/state", s.handleAPIState)
	mux.HandleFunc("POST /api/select", s.handleAPISelect)
	mux.HandleFunc("GET /api/cities", s.handleAPICities)
	mux.HandleFunc("GET /api/classify", s.handleAPIClassify)
	mux.HandleFunc("GET /api/trends", s.handleAPITrends)
	mux.HandleFunc("GET /api/forecast", s.handleAPIForecast)
	mux.HandleFunc("GET /api/alerts", s.handleAPIAlerts)
	mux.HandleFunc("POST /api/alerts/{id}/ack", s.handleAPIAcknowledge)
	mux.HandleFunc("GET /api/fetches", s.handleAPIFetches)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

type HealthStatus struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schemaVersion,omitempty"`
	City          string `json:"city,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	health := HealthStatus{Status: "ok", City: s.controller.Current().City}
	if s.store != nil {
		version, err := s.store.MigrationVersion()
		if err == nil {
			err = s.store.Ping()
		}
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}
		health.SchemaVersion = version
	}
	json.NewEncoder(w).Encode(health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
