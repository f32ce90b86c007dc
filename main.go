package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dipwatch/dip-agent/internal/config"
	"github.com/dipwatch/dip-agent/internal/repo"
	"github.com/dipwatch/dip-agent/internal/service/analytics"
	"github.com/dipwatch/dip-agent/internal/service/detector"
	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/internal/service/exchange/binance"
	"github.com/dipwatch/dip-agent/internal/service/indicator"
	"github.com/dipwatch/dip-agent/internal/service/llm"
	"github.com/dipwatch/dip-agent/internal/service/llm/gemini"
	"github.com/dipwatch/dip-agent/internal/service/monitor"
	"github.com/dipwatch/dip-agent/internal/service/notification"
	"github.com/dipwatch/dip-agent/internal/service/portfolio"
	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/dipwatch/dip-agent/ioc"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	backtestMode = pflag.Bool("backtest", false, "replay the entry rules over history instead of monitoring")
	backtestHold = pflag.Int("backtest-hold-days", 10, "max holding days per simulated trade")
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	bian := ioc.InitBinanceCli()
	marketSvc := binance.NewMarketService(bian)

	analyzer := strategy.NewRuleBasedAnalyzer(
		indicator.NewEngine(cfg.Strategy.MAPeriod, cfg.Strategy.RSIPeriod, cfg.Strategy.LevelTolerancePercent),
		detector.NewDetector(cfg.Strategy.MinDropPercent),
		strategy.Thresholds{
			MADistancePercent:       cfg.Strategy.MADistancePercent,
			RSIOversold:             cfg.Strategy.RSIOversold,
			SupportProximityPercent: cfg.Strategy.SupportProximityPercent,
			EntryThreshold:          cfg.Strategy.EntryThreshold,
		},
	)
	planner := strategy.NewPlanner(cfg.Risk.ResistanceFactor, cfg.Risk.MaxTakeProfitPercent,
		cfg.Risk.MinTakeProfitPercent, cfg.Risk.StopLossPercent)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *backtestMode {
		runBacktest(ctx, cfg, marketSvc, analyzer, planner)
		return
	}

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}

	opts := []monitor.Option{
		monitor.WithSignalRepo(repo.NewSignalRepo(db)),
		monitor.WithSignalLog(repo.NewSignalLog(cfg.Storage.SignalLogDir)),
	}
	if cfg.Telegram.Enabled {
		sender := notification.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		opts = append(opts, monitor.WithNotifier(notification.NewTradeNotifier(sender, cfg.Strategy.MAPeriod)))
	}
	if cfg.LLM.Enabled {
		llmSvc := gemini.NewService(ioc.InitGeminiCli())
		opts = append(opts, monitor.WithCommentator(llm.NewCommentator(llmSvc)))
	}
	if cfg.Risk.Budget > 0 {
		sizer, err := portfolio.NewSimpleSizer(portfolio.RiskConfig{
			Budget:         decimal.NewFromFloat(cfg.Risk.Budget),
			MaxRiskPercent: cfg.Risk.MaxRiskPercent,
			MinRiskReward:  cfg.Risk.MinRiskReward,
		}, cfg.Strategy.EntryThreshold)
		if err != nil {
			panic(err)
		}
		opts = append(opts, monitor.WithSizer(sizer))
	}

	monitors := make([]*monitor.SymbolMonitor, 0, len(cfg.Monitor.Symbols))
	for _, symbol := range cfg.Monitor.Symbols {
		pair, err := exchange.ParsePair(symbol)
		if err != nil {
			panic(err)
		}
		monitors = append(monitors, monitor.NewSymbolMonitor(pair, marketSvc, analyzer, planner,
			cfg.Monitor.HistoricalDays, opts...))
	}

	fleet := monitor.NewFleet(cfg.CheckInterval(), monitors...)
	slog.Info("starting", "task", fleet.Name(), "symbols", cfg.Monitor.Symbols, "interval", cfg.CheckInterval())
	if err := fleet.Run(ctx); err != nil {
		panic(err)
	}
	slog.Info("stopped", "task", fleet.Name())
}

func runBacktest(ctx context.Context, cfg config.Config, marketSvc exchange.MarketService,
	analyzer strategy.Analyzer, planner *strategy.Planner) {
	historical := analytics.NewHistoricalAnalyzer(marketSvc, cfg.Strategy.MinDropPercent)

	warmup := cfg.Strategy.MAPeriod
	if cfg.Strategy.RSIPeriod > warmup {
		warmup = cfg.Strategy.RSIPeriod
	}
	backtester := analytics.NewBacktester(analyzer, planner, warmup+1, *backtestHold)

	end := time.Now()
	start := end.AddDate(0, 0, -cfg.Monitor.HistoricalDays)

	for _, symbol := range cfg.Monitor.Symbols {
		pair, err := exchange.ParsePair(symbol)
		if err != nil {
			panic(err)
		}

		report, err := historical.Analyze(ctx, pair, start, end)
		if err != nil {
			slog.Error("historical analysis failed", "symbol", symbol, "error", err)
			continue
		}
		fmt.Println(report.String())

		klines, err := marketSvc.GetKlines(ctx, exchange.GetKlinesReq{
			TradingPair: pair,
			Interval:    exchange.Interval1d,
			StartTime:   start,
			EndTime:     end,
		})
		if err != nil {
			slog.Error("fetch klines failed", "symbol", symbol, "error", err)
			continue
		}
		btReport, err := backtester.Run(ctx, pair, klines)
		if err != nil {
			slog.Error("backtest failed", "symbol", symbol, "error", err)
			continue
		}
		fmt.Println(btReport.String())
	}
}
