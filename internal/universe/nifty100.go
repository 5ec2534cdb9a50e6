package universe

import "context"

// Nifty100 is the default NIFTY-100 constituent list (NSE tickers, Yahoo suffix)
var Nifty100 = []string{
	"ABB.NS", "ADANIENSOL.NS", "ADANIENT.NS", "ADANIGREEN.NS", "ADANIPORTS.NS",
	"ADANIPOWER.NS", "ATGL.NS", "AMBUJACEM.NS", "APOLLOHOSP.NS",
	"ASIANPAINT.NS", "DMART.NS", "AXISBANK.NS", "BAJAJ-AUTO.NS",
	"BAJFINANCE.NS", "BAJAJFINSV.NS", "BAJAJHLDNG.NS", "BANKBARODA.NS",
	"BERGEPAINT.NS", "BEL.NS", "BPCL.NS", "BHARTIARTL.NS", "BOSCHLTD.NS",
	"BRITANNIA.NS", "CANBK.NS", "CHOLAFIN.NS", "CIPLA.NS", "COALINDIA.NS",
	"COLPAL.NS", "DLF.NS", "DABUR.NS", "DIVISLAB.NS", "DRREDDY.NS",
	"EICHERMOT.NS", "GAIL.NS", "GODREJCP.NS", "GRASIM.NS", "HCLTECH.NS",
	"HDFCBANK.NS", "HDFCLIFE.NS", "HAVELLS.NS", "HEROMOTOCO.NS", "HINDALCO.NS",
	"HAL.NS", "HINDUNILVR.NS", "ICICIBANK.NS", "ICICIGI.NS", "ICICIPRULI.NS",
	"ITC.NS", "IOC.NS", "IRCTC.NS", "IRFC.NS", "INDUSINDBK.NS", "NAUKRI.NS",
	"INFY.NS", "INDIGO.NS", "JSWSTEEL.NS", "JINDALSTEL.NS", "JIOFIN.NS",
	"KOTAKBANK.NS", "LTIM.NS", "LT.NS", "LICI.NS", "M&M.NS", "MARICO.NS",
	"MARUTI.NS", "NTPC.NS", "NESTLEIND.NS", "ONGC.NS", "PIDILITIND.NS",
	"PFC.NS", "POWERGRID.NS", "PNB.NS", "RECLTD.NS", "RELIANCE.NS",
	"SBICARD.NS", "SBILIFE.NS", "SRF.NS", "MOTHERSON.NS", "SHREECEM.NS",
	"SHRIRAMFIN.NS", "SIEMENS.NS", "SBIN.NS", "SUNPHARMA.NS", "TVSMOTOR.NS",
	"TCS.NS", "TATACONSUM.NS", "TATAMTRDVR.NS", "TATAMOTORS.NS",
	"TATAPOWER.NS", "TATASTEEL.NS", "TECHM.NS", "TITAN.NS", "TORNTPHARM.NS",
	"TRENT.NS", "ULTRACEMCO.NS", "MCDOWELL-N.NS", "VBL.NS", "VEDL.NS",
	"WIPRO.NS", "ZOMATO.NS", "ZYDUSLIFE.NS",
}

// Static is a fixed in-memory universe
type Static struct {
	symbols []string
}

// NewStatic creates a universe over the given symbols (normalized, deduplicated)
func NewStatic(symbols []string) *Static {
	return &Static{symbols: Normalize(symbols)}
}

// Default returns the NIFTY-100 universe
func Default() *Static {
	return NewStatic(Nifty100)
}

// Symbols returns a copy of the list
func (s *Static) Symbols(_ context.Context) ([]string, error) {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out, nil
}
