package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SignalRecord is one line of the per-symbol append-only log.
type SignalRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Symbol          string    `json:"symbol"`
	Price           string    `json:"price"`
	Score           int       `json:"score"`
	Signals         []string  `json:"signals"`
	EntryPrice      string    `json:"entry_price"`
	TargetPrice     string    `json:"target_price"`
	TargetPercent   float64   `json:"target_percent"`
	StopPrice       string    `json:"stop_price"`
	StopPercent     float64   `json:"stop_percent"`
	RiskRewardRatio float64   `json:"risk_reward_ratio"`
	Quantity        string    `json:"quantity,omitempty"`
}

// SignalLog appends JSON lines to one file per symbol. Monitors for different
// symbols write concurrently, so appends are serialized behind a mutex to keep
// records from interleaving.
type SignalLog struct {
	dir string
	mu  sync.Mutex
}

func NewSignalLog(dir string) *SignalLog {
	return &SignalLog{dir: dir}
}

func (l *SignalLog) Append(record SignalRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create signal log dir: %w", err)
	}

	path := l.path(record.Symbol)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open signal log %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("append signal record: %w", err)
	}
	return nil
}

func (l *SignalLog) path(symbol string) string {
	return filepath.Join(l.dir, fmt.Sprintf("signals_%s.jsonl", strings.ToLower(symbol)))
}
