package universe

import (
	"path/filepath"
	"strings"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/httputil"
)

// DefaultSuffix is appended to bare tickers loaded from files (NSE on Yahoo)
const DefaultSuffix = ".NS"

// FromFile picks a universe source for UNIVERSE_FILE.
// Empty → NIFTY-100, *.csv → CSV, *.html/*.htm or http(s) URL → HTML.
// ⭐ SSOT: 유니버스 소스 선택은 여기서만
func FromFile(location string, httpClient *httputil.Client) contracts.UniverseSource {
	if location == "" {
		return Default()
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".csv":
		return NewCSVSource(location, DefaultSuffix)
	}
	return NewHTMLSource(location, DefaultSuffix, httpClient)
}
