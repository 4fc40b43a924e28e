package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bidback/position_engine/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router  *http.ServeMux
	server  *http.Server
	service *usecase.PlannerService
	logger  *zap.Logger

	// baseAllocation is the portfolio default used when a plan request
	// does not carry its own base.
	baseAllocation float64
	// pushInterval paces the websocket assessment stream.
	pushInterval time.Duration
}

func NewServer(
	port int,
	service *usecase.PlannerService,
	baseAllocation float64,
	pushInterval time.Duration,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:         http.NewServeMux(),
		service:        service,
		logger:         logger,
		baseAllocation: baseAllocation,
		pushInterval:   pushInterval,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Trade planning
	s.router.HandleFunc("POST /api/plan", s.handlePlanTrade)

	// Positions
	s.router.HandleFunc("POST /api/positions", s.handleOpenPosition)
	s.router.HandleFunc("GET /api/positions", s.handleListPositions)
	s.router.HandleFunc("GET /api/positions/{id}", s.handleGetPosition)
	s.router.HandleFunc("POST /api/positions/{id}/exits", s.handlePartialExit)
	s.router.HandleFunc("GET /api/positions/{id}/assessment", s.handleAssessment)

	// Breadth readings
	s.router.HandleFunc("POST /api/readings", s.handleSaveReading)
	s.router.HandleFunc("GET /api/readings/latest", s.handleLatestReading)

	// Calendar
	s.router.HandleFunc("GET /api/calendar/trading-day", s.handleTradingDay)
	s.router.HandleFunc("GET /api/calendar/exit-date", s.handleExitDate)

	// Tiers
	s.router.HandleFunc("GET /api/tiers", s.handleTiers)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Dashboard push stream
	s.router.HandleFunc("GET /ws/assessments", s.handleAssessmentStream)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
