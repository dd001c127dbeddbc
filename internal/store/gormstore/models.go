package gormstore

import (
	"gorm.io/datatypes"
)

// kvStateModel holds the singleton state records keyed by name: the
// high-water mark, the paused flag, and the tuned slippage settings. The
// payload is JSON so record shapes can evolve without migrations.
type kvStateModel struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	UpdatedAt int64          `gorm:"column:updated_at"`
}

func (kvStateModel) TableName() string { return "engine_state" }

const (
	keyHighWater = "high_water_mark"
	keyPause     = "pause_flag"
	keySlippage  = "slippage_settings"
)

type trailingStopModel struct {
	Asset     string         `gorm:"column:asset;primaryKey"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	UpdatedAt int64          `gorm:"column:updated_at"`
}

func (trailingStopModel) TableName() string { return "trailing_stops" }

type positionModel struct {
	Asset        string  `gorm:"column:asset;primaryKey"`
	Symbol       string  `gorm:"column:symbol"`
	Amount       float64 `gorm:"column:amount"`
	BuyPrice     float64 `gorm:"column:buy_price"`
	BuyTimestamp int64   `gorm:"column:buy_timestamp"`
	UpdatedAt    int64   `gorm:"column:updated_at"`
}

func (positionModel) TableName() string { return "positions" }

type tradeRecordModel struct {
	ID                int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Asset             string  `gorm:"column:asset;index"`
	Side              string  `gorm:"column:side"`
	Amount            float64 `gorm:"column:amount"`
	Price             float64 `gorm:"column:price"`
	SlippageBpsUsed   int     `gorm:"column:slippage_bps_used"`
	ActualSlippageBps int     `gorm:"column:actual_slippage_bps"`
	LiquidityUSD      float64 `gorm:"column:liquidity_usd"`
	Volume24hUSD      float64 `gorm:"column:volume_24h_usd"`
	Timestamp         int64   `gorm:"column:timestamp;index"`
	Success           bool    `gorm:"column:success"`
}

func (tradeRecordModel) TableName() string { return "trade_records" }
