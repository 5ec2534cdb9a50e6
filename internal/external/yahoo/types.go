package yahoo

import (
	"time"

	"github.com/wonny/momentum/internal/contracts"
)

// chartResponse mirrors the subset of the chart API payload we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol       string `json:"symbol"`
		Currency     string `json:"currency"`
		GMTOffset    int    `json:"gmtoffset"` // 거래소 기준 초 단위 오프셋
		ExchangeName string `json:"exchangeName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// tradingDay converts a bar timestamp to the exchange-local calendar date
func (r *chartResult) tradingDay(ts int64) time.Time {
	local := time.Unix(ts, 0).UTC().Add(time.Duration(r.Meta.GMTOffset) * time.Second)
	return contracts.TruncateDay(local)
}

// addTo records the close and adjusted close series (nulls skipped)
func (r *chartResult) addTo(a *contracts.FrameAssembler, symbol string) {
	var closes, adjCloses []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	if len(r.Indicators.AdjClose) > 0 {
		adjCloses = r.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range r.Timestamp {
		day := r.tradingDay(ts)
		if i < len(closes) && closes[i] != nil {
			a.Add(symbol, contracts.FieldClose, day, *closes[i])
		}
		if i < len(adjCloses) && adjCloses[i] != nil {
			a.Add(symbol, contracts.FieldAdjClose, day, *adjCloses[i])
		}
	}
}
