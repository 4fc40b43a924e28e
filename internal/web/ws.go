package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The journal UI runs on a different local port than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleAssessmentStream pushes open-position deterioration assessments to
// the dashboard on a fixed interval until the client disconnects.
func (s *Server) handleAssessmentStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain control frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := s.pushInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	push := func() bool {
		assessments, err := s.service.ReassessOpenPositions(r.Context())
		if err != nil {
			s.logger.Error("Failed to reassess positions for stream", zap.Error(err))
			return true
		}
		if err := conn.WriteJSON(assessments); err != nil {
			return false
		}
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
