package handlers

import (
	"net/http"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// UniverseHandler exposes the configured symbol universe
type UniverseHandler struct {
	universe contracts.UniverseSource
	logger   *logger.Logger
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(u contracts.UniverseSource, log *logger.Logger) *UniverseHandler {
	return &UniverseHandler{universe: u, logger: log}
}

// UniverseResponse lists the default symbols
type UniverseResponse struct {
	Count   int      `json:"count"`
	Symbols []string `json:"symbols"`
}

// Get returns the universe
// GET /api/universe
func (h *UniverseHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.universe.Symbols(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load universe")
		respondError(w, http.StatusInternalServerError, "Failed to load universe")
		return
	}

	respondJSON(w, http.StatusOK, UniverseResponse{Count: len(symbols), Symbols: symbols})
}
