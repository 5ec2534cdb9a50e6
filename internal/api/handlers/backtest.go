package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/momentum/internal/backtest"
	"github.com/wonny/momentum/pkg/logger"
)

// BacktestHandler handles backtest API endpoints
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	service *backtest.Service
	logger  *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(service *backtest.Service, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		service: service,
		logger:  log,
	}
}

// Run executes a backtest and returns the full report.
// Configuration errors map to 400; download failures still return 200 with
// state FAILED and an error field.
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req backtest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Run(r.Context(), req, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Rejected backtest request")
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
