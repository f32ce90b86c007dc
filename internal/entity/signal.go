package entity

import (
	"time"
)

// Signal 已触发的入场信号与对应的交易建议
type Signal struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	BaseSymbol  string `gorm:"index"`
	QuoteSymbol string `gorm:"index"`
	Price       string
	Score       int
	// Triggered holds the signal details as a JSON array.
	Triggered       string
	EntryPrice      string
	TargetPrice     string
	TargetPercent   float64
	StopPrice       string
	StopPercent     float64
	RiskRewardRatio float64
	// Quantity is empty when position sizing is disabled.
	Quantity  string
	CreatedAt time.Time `gorm:"index"`
}
