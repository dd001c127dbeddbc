// Package gormstore is the durable StateStore: Gorm over SQLite in WAL
// mode. One process owns the file; the HTTP status server reads through
// the same connection pool.
package gormstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"solhelm/internal/breaker"
	"solhelm/internal/monitor"
	"solhelm/internal/slippage"
	"solhelm/internal/store"
	"solhelm/internal/types"
)

type Store struct {
	db *gorm.DB
}

var _ store.StateStore = (*Store)(nil)

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: empty database path")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	models := []interface{}{
		&kvStateModel{},
		&trailingStopModel{},
		&positionModel{},
		&tradeRecordModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a little parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------- singleton state records -------------------------

func (s *Store) loadState(key string, out interface{}) (bool, error) {
	var m kvStateModel
	err := s.db.Where("key = ?", key).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(m.Payload, out); err != nil {
		return false, fmt.Errorf("gorm store: decoding %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) saveState(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gorm store: encoding %s: %w", key, err)
	}
	m := kvStateModel{Key: key, Payload: datatypes.JSON(raw), UpdatedAt: time.Now().Unix()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&m).Error
}

func (s *Store) LoadHighWaterMark() (float64, bool, error) {
	var v float64
	ok, err := s.loadState(keyHighWater, &v)
	return v, ok, err
}

func (s *Store) SaveHighWaterMark(v float64) error {
	return s.saveState(keyHighWater, v)
}

func (s *Store) LoadPause() (breaker.Pause, bool, error) {
	var p breaker.Pause
	ok, err := s.loadState(keyPause, &p)
	return p, ok, err
}

func (s *Store) SavePause(p breaker.Pause) error { return s.saveState(keyPause, p) }

func (s *Store) ClearPause() error {
	return s.db.Where("key = ?", keyPause).Delete(&kvStateModel{}).Error
}

func (s *Store) LoadSlippageSettings() (slippage.Settings, bool, error) {
	var v slippage.Settings
	ok, err := s.loadState(keySlippage, &v)
	return v, ok, err
}

func (s *Store) SaveSlippageSettings(v slippage.Settings) error {
	return s.saveState(keySlippage, v)
}

// --------------------- trailing stops -------------------------

func (s *Store) LoadTrailingStop(asset string) (monitor.TrailingStop, bool, error) {
	var m trailingStopModel
	err := s.db.Where("asset = ?", asset).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return monitor.TrailingStop{}, false, nil
		}
		return monitor.TrailingStop{}, false, err
	}
	var ts monitor.TrailingStop
	if err := json.Unmarshal(m.Payload, &ts); err != nil {
		return monitor.TrailingStop{}, false, fmt.Errorf("gorm store: decoding trailing stop %s: %w", asset, err)
	}
	return ts, true, nil
}

func (s *Store) SaveTrailingStop(ts monitor.TrailingStop) error {
	raw, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("gorm store: encoding trailing stop %s: %w", ts.Asset, err)
	}
	m := trailingStopModel{Asset: ts.Asset, Payload: datatypes.JSON(raw), UpdatedAt: time.Now().Unix()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&m).Error
}

func (s *Store) DeleteTrailingStop(asset string) error {
	return s.db.Where("asset = ?", asset).Delete(&trailingStopModel{}).Error
}

// --------------------- positions -------------------------

func (s *Store) SavePosition(p types.Position) error {
	m := positionModel{
		Asset:        p.TokenAddress,
		Symbol:       p.Symbol,
		Amount:       p.Amount,
		BuyPrice:     p.BuyPrice,
		BuyTimestamp: p.BuyTimestamp.Unix(),
		UpdatedAt:    time.Now().Unix(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"symbol", "amount", "buy_price", "buy_timestamp", "updated_at"}),
	}).Create(&m).Error
}

func (s *Store) DeletePosition(asset string) error {
	return s.db.Where("asset = ?", asset).Delete(&positionModel{}).Error
}

func (s *Store) LoadPositions() ([]types.Position, error) {
	var models []positionModel
	if err := s.db.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Position, 0, len(models))
	for _, m := range models {
		out = append(out, types.Position{
			TokenAddress: m.Asset,
			Symbol:       m.Symbol,
			Amount:       m.Amount,
			BuyPrice:     m.BuyPrice,
			BuyTimestamp: time.Unix(m.BuyTimestamp, 0),
		})
	}
	return out, nil
}

// --------------------- trade records -------------------------

func (s *Store) RecordTrade(r types.TradeRecord) error {
	m := tradeRecordModel{
		Asset:             r.Asset,
		Side:              string(r.Side),
		Amount:            r.Amount,
		Price:             r.Price,
		SlippageBpsUsed:   r.SlippageBpsUsed,
		ActualSlippageBps: r.ActualSlippageBps,
		LiquidityUSD:      r.LiquidityUSD,
		Volume24hUSD:      r.Volume24hUSD,
		Timestamp:         r.Timestamp.Unix(),
		Success:           r.Success,
	}
	return s.db.Create(&m).Error
}

func (s *Store) RecentTrades(limit int) ([]types.TradeRecord, error) {
	q := s.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []tradeRecordModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.TradeRecord, 0, len(models))
	for _, m := range models {
		out = append(out, types.TradeRecord{
			Asset:             m.Asset,
			Side:              types.Side(m.Side),
			Amount:            m.Amount,
			Price:             m.Price,
			SlippageBpsUsed:   m.SlippageBpsUsed,
			ActualSlippageBps: m.ActualSlippageBps,
			LiquidityUSD:      m.LiquidityUSD,
			Volume24hUSD:      m.Volume24hUSD,
			Timestamp:         time.Unix(m.Timestamp, 0),
			Success:           m.Success,
		})
	}
	return out, nil
}
