package server

import (
	"log/slog"
	"net/http"

	"geosales-dashboard/internal/handlers"
	"geosales-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

type Options struct {
	MaxUploadBytes int64
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger, opts.MaxUploadBytes),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// Dataset management
	s.mux.HandleFunc("POST /api/upload", s.apiHandlers.HandleUpload)
	s.mux.HandleFunc("GET /api/files", s.apiHandlers.HandleFiles)

	// Reports
	s.mux.HandleFunc("GET /api/data/{filename}", s.apiHandlers.HandleMapData)
	s.mux.HandleFunc("GET /api/analytics/{filename}", s.apiHandlers.HandleProductAnalytics)
	s.mux.HandleFunc("GET /api/charts/{filename}", s.apiHandlers.HandleCharts)
	s.mux.HandleFunc("GET /api/charts/{filename}/trend", s.apiHandlers.HandleTrend)
	s.mux.HandleFunc("GET /api/charts/{filename}/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/charts/{filename}/zones", s.apiHandlers.HandleZones)
	s.mux.HandleFunc("GET /api/charts/{filename}/heatmap", s.apiHandlers.HandleHeatmap)
	s.mux.HandleFunc("GET /api/summary/{filename}", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/dashboard/{filename}", s.apiHandlers.HandleDashboard)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/zones/{filename}", s.sseHandlers.HandleZones)
	s.mux.HandleFunc("GET /sse/charts/{filename}", s.sseHandlers.HandleCharts)
	s.mux.HandleFunc("GET /sse/refresh-all/{filename}", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
