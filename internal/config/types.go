package config

// Config is the top-level solhelm configuration. It is immutable after Load:
// the single runtime-mutable subtree (adaptive slippage multipliers) is owned
// by the slippage model, which receives a copy of SlippageConfig and persists
// its tuned values through the state store.
type Config struct {
	App        AppConfig       `toml:"app"`
	Intervals  IntervalConfig  `toml:"intervals"`
	Thresholds ThresholdConfig `toml:"thresholds"`
	Risk       RiskConfig      `toml:"risk"`
	Slippage   SlippageConfig  `toml:"slippage"`
	Store      StoreConfig     `toml:"store"`
	Feeds      FeedConfig      `toml:"feeds"`
	Endpoints  EndpointConfig  `toml:"endpoints"`
	Notify     NotifyConfig    `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

// IntervalConfig holds the periods (seconds) of the recurring evaluations.
type IntervalConfig struct {
	SignalSeconds        int `toml:"signal_seconds"`
	PriceCheckSeconds    int `toml:"price_check_seconds"`
	TrailingCheckSeconds int `toml:"trailing_check_seconds"`
	WalletSyncSeconds    int `toml:"wallet_sync_seconds"`
	PerformanceSeconds   int `toml:"performance_seconds"`
	DataQualitySeconds   int `toml:"data_quality_seconds"`
	BreakerCheckSeconds  int `toml:"breaker_check_seconds"`
}

// ThresholdConfig gates which scored candidates are eligible for entries.
type ThresholdConfig struct {
	MinLiquidityUSD float64 `toml:"min_liquidity_usd"`
	MinVolumeUSD    float64 `toml:"min_volume_usd"`
	MinScore        float64 `toml:"min_score"`
}

// RiskConfig bounds position sizing and exits.
type RiskConfig struct {
	MaxPositionPct        float64 `toml:"max_position_pct"`         // fraction of available capital per entry, (0,1]
	MaxDrawdown           float64 `toml:"max_drawdown"`             // fraction of the high-water mark, (0,1)
	StopLossPct           float64 `toml:"stop_loss_pct"`            // fraction below entry, (0,1)
	TakeProfitPct         float64 `toml:"take_profit_pct"`          // fraction above entry, >0
	TrailingStopPct       float64 `toml:"trailing_stop_pct"`        // percent below the trailing high
	MinTradeSOL           float64 `toml:"min_trade_sol"`            // floor for any sized entry
	FallbackTradeSOL      float64 `toml:"fallback_trade_sol"`       // conservative size for the native-asset fallback
	MaxOwnershipConcPct   float64 `toml:"max_ownership_conc_pct"`   // top-holder concentration gate, percent
	RiskReductionTargetAt float64 `toml:"risk_reduction_target_at"` // fraction of max_drawdown to unwind to
}

// SlippageConfig seeds the slippage model. LiquidityMultiplier and
// VolumeMultiplier are starting points only: the adaptive recalibration
// routine retunes them within [0.5, 2.0].
type SlippageConfig struct {
	BasePct             float64 `toml:"base_pct"`
	MaxPct              float64 `toml:"max_pct"`
	LiquidityMultiplier float64 `toml:"liquidity_multiplier"`
	VolumeMultiplier    float64 `toml:"volume_multiplier"`
}

type StoreConfig struct {
	Path            string `toml:"path"`
	DecisionLogPath string `toml:"decision_log_path"`
}

// FeedConfig names the configured signal feeds and their staleness budgets.
type FeedConfig struct {
	SocialStaleHours  float64 `toml:"social_stale_hours"`
	RankingStaleHours float64 `toml:"ranking_stale_hours"`
}

// EndpointConfig points the HTTP adapters at their upstreams. An empty URL
// leaves the corresponding collaborator unwired; the engine degrades around
// a missing one instead of failing startup.
type EndpointConfig struct {
	MarketURL      string `toml:"market_url"`
	QuoteURL       string `toml:"quote_url"`
	ExecutorURL    string `toml:"executor_url"`
	WalletURL      string `toml:"wallet_url"`
	WalletAddress  string `toml:"wallet_address"`
	TrendingURL    string `toml:"trending_url"`
	SocialURL      string `toml:"social_url"`
	RankingURL     string `toml:"ranking_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NotifyConfig configures the optional Telegram push channel. Both fields
// empty disables notifications.
type NotifyConfig struct {
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	QueueDepth       int    `toml:"queue_depth"`
}
