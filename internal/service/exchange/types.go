package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProviderUnavailable wraps network/HTTP/rate-limit failures of the price provider.
	ErrProviderUnavailable = errors.New("price provider unavailable")
	// ErrMalformedSeries marks a kline series that is too short, unordered or duplicated.
	ErrMalformedSeries = errors.New("malformed kline series")
)

// TradingPair 交易对
type TradingPair struct {
	Base  string
	Quote string
}

// ParsePair splits a raw symbol like "BTCUSDT" into base and quote.
func ParsePair(s string) (TradingPair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	quotes := []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return TradingPair{Base: strings.TrimSuffix(s, q), Quote: q}, nil
		}
	}
	return TradingPair{}, fmt.Errorf("unrecognized symbol format: %s", s)
}

func (p TradingPair) IsZero() bool {
	return p.Base == "" || p.Quote == ""
}

func (p TradingPair) ToString() string {
	return fmt.Sprintf("%s%s", p.Base, p.Quote)
}

func (p TradingPair) ToSlashString() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

type Kline struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	Close     decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Volume    decimal.Decimal
}

// Ticker24h 24小时行情摘要
type Ticker24h struct {
	PriceChangePercent decimal.Decimal
	LastPrice          decimal.Decimal
	HighPrice          decimal.Decimal
	LowPrice           decimal.Decimal
}

type GetKlinesReq struct {
	TradingPair        TradingPair
	Interval           Interval
	StartTime, EndTime time.Time
}

type MarketService interface {
	Ticker(ctx context.Context, tradingPair TradingPair) (decimal.Decimal, error)
	Ticker24h(ctx context.Context, tradingPair TradingPair) (Ticker24h, error)
	GetKlines(ctx context.Context, req GetKlinesReq) ([]Kline, error)
}

// ValidateSeries checks the ordering contract indicators rely on: non-empty,
// strictly ascending open times, no duplicates. A violation abandons the cycle.
func ValidateSeries(klines []Kline) error {
	if len(klines) == 0 {
		return fmt.Errorf("%w: empty series", ErrMalformedSeries)
	}
	for i := 1; i < len(klines); i++ {
		if !klines[i].OpenTime.After(klines[i-1].OpenTime) {
			return fmt.Errorf("%w: non-monotonic open time at index %d", ErrMalformedSeries, i)
		}
	}
	return nil
}

// Closes extracts the close prices of a series, oldest first.
func Closes(klines []Kline) []decimal.Decimal {
	res := make([]decimal.Decimal, len(klines))
	for i, k := range klines {
		res[i] = k.Close
	}
	return res
}
