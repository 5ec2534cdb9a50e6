package contracts

import "context"

// PriceProvider supplies historical daily prices for a set of symbols.
// Implementations may omit symbols, return an empty frame, or fail outright.
// ⭐ SSOT: 가격 데이터 제공자 인터페이스
type PriceProvider interface {
	// Name identifies the provider in logs
	Name() string
	FetchPrices(ctx context.Context, symbols []string, req FetchRequest) (*RawFrame, error)
}

// UniverseSource returns the default symbol universe
// ⭐ SSOT: 유니버스 공급 인터페이스
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}
