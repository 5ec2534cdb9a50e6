package handlers

import (
	"net/http"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/internal/universe"
	"github.com/wonny/momentum/pkg/logger"
)

// MomentumHandler serves the multi-window momentum scan
type MomentumHandler struct {
	scanner  *scanner.Scanner
	universe contracts.UniverseSource
	logger   *logger.Logger
}

// NewMomentumHandler creates a new momentum handler
func NewMomentumHandler(s *scanner.Scanner, u contracts.UniverseSource, log *logger.Logger) *MomentumHandler {
	return &MomentumHandler{
		scanner:  s,
		universe: u,
		logger:   log,
	}
}

// Scan ranks the requested symbols (default: configured universe)
// GET /api/momentum?symbols=A,B
func (h *MomentumHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbols := universe.ParseList(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		var err error
		symbols, err = h.universe.Symbols(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load universe")
			respondError(w, http.StatusInternalServerError, "Failed to load universe")
			return
		}
	}

	// 스캔 실패는 report.error 로 전달 (항상 200)
	report := h.scanner.Scan(ctx, symbols)
	respondJSON(w, http.StatusOK, report)
}
