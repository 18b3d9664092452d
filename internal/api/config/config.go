package config

import (
	"errors"
	"fmt"
	"math"
)

// shareTolerance 拆分比例求和允许的浮点误差
const shareTolerance = 1e-9

var ErrInvalidLedgerConfig = errors.New("invalid ledger config")

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Reward   RewardConfig   `mapstructure:"reward"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Staking  StakingConfig  `mapstructure:"staking"`
	Cron     CronConfig     `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	// SlowThreshold 慢 SQL 阈值（毫秒）
	SlowThreshold int `mapstructure:"slow_threshold"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	// SlowThreshold 慢命令阈值（毫秒）
	SlowThreshold int `mapstructure:"slow_threshold"`
}

// LogstashConfig 远程日志配置，地址为空时只输出到 stdout
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type KafkaConfig struct {
	Enable           bool                  `mapstructure:"enable"`
	Brokers          []string              `mapstructure:"brokers"`
	Sasl             SaslConfig            `mapstructure:"sasl"`
	Consumer         ConsumerConfig        `mapstructure:"consumer"`
	ActivityConsumer KafkaActivityConsumer `mapstructure:"activity_consumer"`
	Producer         KafkaProducerTopics   `mapstructure:"producer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaActivityConsumer canal 业务表变更 topic
type KafkaActivityConsumer struct {
	Topics  []string `mapstructure:"topics"`
	GroupID string   `mapstructure:"group_id"`
}

type KafkaProducerTopics struct {
	CreditTopic  string `mapstructure:"credit_topic"`
	BotFlagTopic string `mapstructure:"bot_flag_topic"`
}

// RewardConfig 每日奖励相关的阈值、权重与乘数表
type RewardConfig struct {
	MonthlyEmission         float64            `mapstructure:"monthly_emission"`
	DailyAllocationFraction float64            `mapstructure:"daily_allocation_fraction"`
	MaxDailyRewardUSD       float64            `mapstructure:"max_daily_reward_usd"`
	VcnPriceUSD             float64            `mapstructure:"vcn_price_usd"`
	MinPoints               int64              `mapstructure:"min_points"`
	ActivityWindowHours     int                `mapstructure:"activity_window_hours"`
	QualityLookbackDays     int                `mapstructure:"quality_lookback_days"`
	ScoringWorkers          int                `mapstructure:"scoring_workers"`
	CreditRetries           int                `mapstructure:"credit_retries"`
	ActionWeights           map[string]float64 `mapstructure:"action_weights"`
	DailyCaps               DailyCapsConfig    `mapstructure:"daily_caps"`
	VerificationScores      map[string]float64 `mapstructure:"verification_scores"`
}

// DailyCapsConfig 单日各类行为上限
type DailyCapsConfig struct {
	Posts    int64 `mapstructure:"posts"`
	Likes    int64 `mapstructure:"likes"`
	Comments int64 `mapstructure:"comments"`
	Shares   int64 `mapstructure:"shares"`
	Follows  int64 `mapstructure:"follows"`
}

// LedgerConfig 转账手续费及其拆分比例
type LedgerConfig struct {
	TransferFeeRate float64 `mapstructure:"transfer_fee_rate"`
	BurnShare       float64 `mapstructure:"burn_share"`
	TreasuryShare   float64 `mapstructure:"treasury_share"`
	RewardsShare    float64 `mapstructure:"rewards_share"`
}

// Validate 费率在 [0,1] 内，三项拆分比例非负且合计为 1
func (c LedgerConfig) Validate() error {
	if c.TransferFeeRate < 0 || c.TransferFeeRate > 1 {
		return fmt.Errorf("%w: transfer_fee_rate %v out of [0,1]", ErrInvalidLedgerConfig, c.TransferFeeRate)
	}
	for _, share := range []float64{c.BurnShare, c.TreasuryShare, c.RewardsShare} {
		if share < 0 || share > 1 {
			return fmt.Errorf("%w: fee share %v out of [0,1]", ErrInvalidLedgerConfig, share)
		}
	}
	if sum := c.BurnShare + c.TreasuryShare + c.RewardsShare; math.Abs(sum-1) > shareTolerance {
		return fmt.Errorf("%w: fee shares sum to %v", ErrInvalidLedgerConfig, sum)
	}
	return nil
}

type StakingConfig struct {
	APYTiers []APYTier `mapstructure:"apy_tiers"`
}

// APYTier 锁仓天数达到 MinDays 时适用的年化
type APYTier struct {
	MinDays int     `mapstructure:"min_days"`
	APY     float64 `mapstructure:"apy"`
}

// CronConfig 定时任务表达式（带秒）
type CronConfig struct {
	Distribution      string `mapstructure:"distribution"`
	QualityRefresh    string `mapstructure:"quality_refresh"`
	ReputationRefresh string `mapstructure:"reputation_refresh"`
	StakeSweep        string `mapstructure:"stake_sweep"`
}
