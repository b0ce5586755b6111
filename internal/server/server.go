package server

import (
	"log/slog"
	"net/http"

	"github.com/rkassila/dashboard-olist/internal/analytics"
	"github.com/rkassila/dashboard-olist/internal/handlers"
)

type Server struct {
	analytics   *analytics.Service
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Overview  http.HandlerFunc
	Drivers   http.HandlerFunc
	Customers http.HandlerFunc
	Strategy  http.HandlerFunc
	Actions   http.HandlerFunc
}

func NewServer(svc *analytics.Service, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   svc,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(svc, logger),
		sseHandlers: handlers.NewSSEHandlers(svc, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard pages
	s.mux.HandleFunc("GET /{$}", templateHandlers.Overview)
	s.mux.HandleFunc("GET /drivers", templateHandlers.Drivers)
	s.mux.HandleFunc("GET /customers", templateHandlers.Customers)
	s.mux.HandleFunc("GET /strategy", templateHandlers.Strategy)
	s.mux.HandleFunc("GET /actions", templateHandlers.Actions)

	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/overview", s.apiHandlers.HandleOverview)
	s.mux.HandleFunc("GET /api/monthly-metrics", s.apiHandlers.HandleMonthlyMetrics)
	s.mux.HandleFunc("GET /api/category-profit", s.apiHandlers.HandleCategoryProfit)
	s.mux.HandleFunc("GET /api/state-trust", s.apiHandlers.HandleStateTrust)
	s.mux.HandleFunc("GET /api/seller-whatif", s.apiHandlers.HandleSellerWhatIf)
	s.mux.HandleFunc("GET /api/seller-strategy", s.apiHandlers.HandleSellerStrategy)
	s.mux.HandleFunc("GET /api/sellers", s.apiHandlers.HandleSellers)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/monthly-metrics", s.sseHandlers.HandleMonthlyMetrics)
	s.mux.HandleFunc("GET /sse/category-profit", s.sseHandlers.HandleCategoryProfit)
	s.mux.HandleFunc("GET /sse/state-trust", s.sseHandlers.HandleStateTrust)
	s.mux.HandleFunc("GET /sse/seller-strategy", s.sseHandlers.HandleSellerStrategy)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
