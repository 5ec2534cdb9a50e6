package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wonny/momentum/internal/backtest"
	"github.com/wonny/momentum/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 로컬 대시보드 허용
	},
}

// Stream message types
const (
	MessageRebalance = "rebalance"
	MessageResult    = "result"
	MessageError     = "error"
)

// StreamMessage is one websocket frame
type StreamMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StreamHandler runs a backtest over a websocket and pushes every
// rebalance as it happens, then the final report
type StreamHandler struct {
	service *backtest.Service
	logger  *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(service *backtest.Service, log *logger.Logger) *StreamHandler {
	return &StreamHandler{service: service, logger: log}
}

// Backtest streams a backtest run
// GET /ws/backtest?symbols=&start_date=&end_date=&initial_investment=&rebalance_period_days=
func (h *StreamHandler) Backtest(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	// 엔진 콜백은 실행 goroutine에서 순차 호출되므로 writer는 하나
	writeFailed := false
	send := func(msg StreamMessage) {
		if writeFailed {
			return
		}
		if err := conn.WriteJSON(msg); err != nil {
			writeFailed = true
			h.logger.WithError(err).Warn("WebSocket write failed")
		}
	}

	resp, err := h.service.Run(r.Context(), req, func(ev backtest.RebalanceEvent) {
		send(StreamMessage{Type: MessageRebalance, Payload: backtest.FormatEvent(ev)})
	})
	if err != nil {
		send(StreamMessage{Type: MessageError, Payload: resp})
	} else {
		send(StreamMessage{Type: MessageResult, Payload: resp})
	}

	if writeFailed {
		return
	}
	if err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")); err != nil {
		h.logger.WithError(err).Warn("WebSocket close failed")
	}
}
