package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bidback/position_engine/internal/domain"
	"github.com/bidback/position_engine/internal/usecase"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type readingPayload struct {
	Date                     string  `json:"date"`
	T2108                    float64 `json:"t2108"`
	VIX                      float64 `json:"vix"`
	StocksUp4PctDaily        int     `json:"stocks_up_4pct_daily"`
	StocksDown4PctDaily      int     `json:"stocks_down_4pct_daily"`
	StocksUp25PctQuarterly   int     `json:"stocks_up_25pct_quarterly"`
	StocksDown25PctQuarterly int     `json:"stocks_down_25pct_quarterly"`
}

type planPayload struct {
	Symbol         string         `json:"symbol"`
	EntryPrice     float64        `json:"entry_price"`
	EntryDate      string         `json:"entry_date"`
	BaseAllocation float64        `json:"base_allocation"`
	Reading        readingPayload `json:"reading"`
}

type partialExitPayload struct {
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Date      string  `json:"date"`
	TargetHit string  `json:"target_hit"`
}

func (p readingPayload) toDomain(date time.Time) domain.BreadthReading {
	return domain.BreadthReading{
		Date:                     date,
		T2108:                    p.T2108,
		VIX:                      p.VIX,
		StocksUp4PctDaily:        p.StocksUp4PctDaily,
		StocksDown4PctDaily:      p.StocksDown4PctDaily,
		StocksUp25PctQuarterly:   p.StocksUp25PctQuarterly,
		StocksDown25PctQuarterly: p.StocksDown25PctQuarterly,
	}
}

func (s *Server) decodePlanRequest(r *http.Request) (usecase.PlanRequest, error) {
	var payload planPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return usecase.PlanRequest{}, err
	}
	entryDate, err := time.Parse(dateLayout, payload.EntryDate)
	if err != nil {
		return usecase.PlanRequest{}, err
	}
	base := payload.BaseAllocation
	if base == 0 {
		base = s.baseAllocation
	}
	return usecase.PlanRequest{
		Symbol:         payload.Symbol,
		EntryPrice:     payload.EntryPrice,
		EntryDate:      entryDate,
		BaseAllocation: base,
		Reading:        payload.Reading.toDomain(entryDate),
	}, nil
}

func (s *Server) handlePlanTrade(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodePlanRequest(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	plan, err := s.service.PlanTrade(req)
	if err != nil {
		s.writeServiceError(w, "Failed to plan trade", err)
		return
	}
	s.writeJSON(w, plan)
}

func (s *Server) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodePlanRequest(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	pos, plan, err := s.service.OpenPosition(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "Failed to open position", err)
		return
	}
	s.writeJSON(w, map[string]any{"position": pos, "plan": plan})
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	assessments, err := s.service.ReassessOpenPositions(r.Context())
	if err != nil {
		s.writeServiceError(w, "Failed to list positions", err)
		return
	}
	s.writeJSON(w, assessments)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.service.GetPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "Failed to get position", err)
		return
	}
	s.writeJSON(w, pos)
}

func (s *Server) handlePartialExit(w http.ResponseWriter, r *http.Request) {
	var payload partialExitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	exitDate, err := time.Parse(dateLayout, payload.Date)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	pos, err := s.service.TakePartialExit(r.Context(), r.PathValue("id"),
		payload.Quantity, payload.Price, exitDate, payload.TargetHit)
	if err != nil {
		s.writeServiceError(w, "Failed to record partial exit", err)
		return
	}
	s.writeJSON(w, pos)
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := s.service.AssessPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "Failed to assess position", err)
		return
	}
	s.writeJSON(w, assessment)
}

func (s *Server) handleSaveReading(w http.ResponseWriter, r *http.Request) {
	var payload readingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	day, err := time.Parse(dateLayout, payload.Date)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	reading := payload.toDomain(day)
	if err := s.service.SaveReading(r.Context(), &reading); err != nil {
		s.writeServiceError(w, "Failed to save reading", err)
		return
	}
	s.writeJSON(w, reading)
}

func (s *Server) handleLatestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := s.service.LatestReading(r.Context())
	if err != nil {
		s.writeServiceError(w, "Failed to load latest reading", err)
		return
	}
	s.writeJSON(w, reading)
}

func (s *Server) handleTradingDay(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	trading, err := s.service.Calendar().IsTradingDay(day)
	if err != nil {
		s.writeServiceError(w, "Failed to check trading day", err)
		return
	}
	earlyClose, err := s.service.Calendar().IsEarlyClose(day)
	if err != nil {
		s.writeServiceError(w, "Failed to check trading day", err)
		return
	}
	s.writeJSON(w, map[string]any{
		"date":        day.Format(dateLayout),
		"trading_day": trading,
		"early_close": earlyClose,
	})
}

func (s *Server) handleExitDate(w http.ResponseWriter, r *http.Request) {
	entry, err := time.Parse(dateLayout, r.URL.Query().Get("entry"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	exitDate, err := s.service.Calendar().AddTradingDays(entry, days)
	if err != nil {
		s.writeServiceError(w, "Failed to compute exit date", err)
		return
	}
	s.writeJSON(w, map[string]any{
		"entry":     entry.Format(dateLayout),
		"days":      days,
		"exit_date": exitDate.Format(dateLayout),
	})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.service.Tiers().Tiers())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeServiceError maps engine error kinds to HTTP statuses: invalid
// input and unsupported calendar years are client errors.
func (s *Server) writeServiceError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnsupportedYear) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.logger.Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}
