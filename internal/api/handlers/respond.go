package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wonny/momentum/internal/backtest"
	"github.com/wonny/momentum/internal/universe"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// requestFromQuery reads backtest parameters from URL query values
// (websocket upgrades cannot carry a JSON body)
func requestFromQuery(r *http.Request) (backtest.Request, error) {
	q := r.URL.Query()
	req := backtest.Request{
		Symbols:   universe.ParseList(q.Get("symbols")),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}

	if v := q.Get("initial_investment"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, err
		}
		req.InitialInvestment = capital
	}
	if v := q.Get("rebalance_period_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return req, err
		}
		req.RebalancePeriodDays = days
	}
	return req, nil
}
