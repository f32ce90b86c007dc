package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/shopspring/decimal"
)

var _ exchange.MarketService = (*MarketService)(nil)

// MarketService 现货市场数据服务
type MarketService struct {
	cli *binance.Client
}

func NewMarketService(cli *binance.Client) *MarketService {
	return &MarketService{cli: cli}
}

func (m *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	svc := m.cli.NewKlinesService().Symbol(req.TradingPair.ToString()) // Binance spot API uses BTCUSDT, not BTC/USDT
	if req.Interval.ToString() != "" {
		svc.Interval(req.Interval.ToString())
	}
	if !req.StartTime.IsZero() {
		svc.StartTime(req.StartTime.UnixMilli())
	}
	if !req.EndTime.IsZero() {
		svc.EndTime(req.EndTime.UnixMilli())
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get klines %s: %v", exchange.ErrProviderUnavailable, req.TradingPair.ToString(), err)
	}
	return m.convertKlines(res)
}

func (m *MarketService) Ticker(ctx context.Context, tradingPair exchange.TradingPair) (decimal.Decimal, error) {
	prices, err := m.cli.NewListPricesService().Symbol(tradingPair.ToString()).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: ticker %s: %v", exchange.ErrProviderUnavailable, tradingPair.ToString(), err)
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("%w: ticker %s: empty response", exchange.ErrProviderUnavailable, tradingPair.ToString())
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: ticker %s: bad price %q", exchange.ErrProviderUnavailable, tradingPair.ToString(), prices[0].Price)
	}
	return price, nil
}

func (m *MarketService) Ticker24h(ctx context.Context, tradingPair exchange.TradingPair) (exchange.Ticker24h, error) {
	stats, err := m.cli.NewListPriceChangeStatsService().Symbol(tradingPair.ToString()).Do(ctx)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("%w: 24h stats %s: %v", exchange.ErrProviderUnavailable, tradingPair.ToString(), err)
	}
	if len(stats) == 0 {
		return exchange.Ticker24h{}, fmt.Errorf("%w: 24h stats %s: empty response", exchange.ErrProviderUnavailable, tradingPair.ToString())
	}
	return m.convertStats(tradingPair, stats[0])
}

func (m *MarketService) convertStats(pair exchange.TradingPair, s *binance.PriceChangeStats) (exchange.Ticker24h, error) {
	fields := map[string]string{
		"priceChangePercent": s.PriceChangePercent,
		"lastPrice":          s.LastPrice,
		"highPrice":          s.HighPrice,
		"lowPrice":           s.LowPrice,
	}
	parsed := make(map[string]decimal.Decimal, len(fields))
	for name, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return exchange.Ticker24h{}, fmt.Errorf("%w: 24h stats %s: bad %s %q", exchange.ErrProviderUnavailable, pair.ToString(), name, raw)
		}
		parsed[name] = d
	}
	return exchange.Ticker24h{
		PriceChangePercent: parsed["priceChangePercent"],
		LastPrice:          parsed["lastPrice"],
		HighPrice:          parsed["highPrice"],
		LowPrice:           parsed["lowPrice"],
	}, nil
}

func (m *MarketService) convertKlines(klines []*binance.Kline) ([]exchange.Kline, error) {
	kls := make([]exchange.Kline, len(klines))
	for i, k := range klines {
		var err error
		parse := func(raw string) decimal.Decimal {
			var d decimal.Decimal
			if err != nil {
				return d
			}
			d, err = decimal.NewFromString(raw)
			return d
		}
		kls[i] = exchange.Kline{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      parse(k.Open),
			Close:     parse(k.Close),
			High:      parse(k.High),
			Low:       parse(k.Low),
			Volume:    parse(k.Volume),
		}
		if err != nil {
			return nil, fmt.Errorf("%w: bad kline payload: %v", exchange.ErrProviderUnavailable, err)
		}
	}
	return kls, nil
}
