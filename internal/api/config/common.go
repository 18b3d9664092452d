package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，path 为空时读取 ./configs/config.yaml
func LoadConfig(path string) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
	}
	v.SetEnvPrefix("VCN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Ledger.Validate(); err != nil {
		return err
	}

	Cfg = cfg

	return nil
}

// Default 默认配置，配置文件中未出现的字段沿用这里的值
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		DB: DBConfig{
			MaxIdle:       10,
			MaxOpen:       50,
			MaxLifetime:   30,
			SlowThreshold: 200,
		},
		Redis: RedisConfig{Addr: "127.0.0.1:6379", PoolSize: 20, SlowThreshold: 100},
		JWT:   JWTConfig{Secret: "vcoin", Issuer: "VCoin"},
		Kafka: KafkaConfig{
			Consumer: ConsumerConfig{
				SessionTimeout:    10,
				HeartbeatInterval: 3,
				RebalanceTimeout:  60,
				MaxProcessingTime: 5,
			},
			ActivityConsumer: KafkaActivityConsumer{
				Topics:  []string{"canal.posts", "canal.likes", "canal.post_comments", "canal.shares", "canal.reposts", "canal.user_follows"},
				GroupID: "vcoin-activity",
			},
			Producer: KafkaProducerTopics{
				CreditTopic:  "vcn.credit",
				BotFlagTopic: "vcn.bot_flag",
			},
		},
		Reward:  DefaultReward(),
		Ledger:  DefaultLedger(),
		Staking: DefaultStaking(),
		Cron: CronConfig{
			Distribution:      "0 5 0 * * *",
			QualityRefresh:    "@hourly",
			ReputationRefresh: "@hourly",
			StakeSweep:        "@every 6h",
		},
	}
}

func DefaultReward() RewardConfig {
	return RewardConfig{
		MonthlyEmission:         10_000_000,
		DailyAllocationFraction: 0.5,
		MaxDailyRewardUSD:       50,
		VcnPriceUSD:             0.05,
		MinPoints:               10,
		ActivityWindowHours:     24,
		QualityLookbackDays:     30,
		ScoringWorkers:          8,
		CreditRetries:           3,
		ActionWeights: map[string]float64{
			"post_text":  10,
			"post_image": 20,
			"post_video": 50,
			"like":       1,
			"comment":    8,
			"share":      10,
			"repost":     12,
			"follow":     2,
		},
		DailyCaps: DailyCapsConfig{
			Posts:    50,
			Likes:    500,
			Comments: 200,
			Shares:   100,
			Follows:  100,
		},
		VerificationScores: map[string]float64{
			"basic":      1.0,
			"verified":   1.4,
			"premium":    1.8,
			"enterprise": 2.5,
		},
	}
}

func DefaultLedger() LedgerConfig {
	return LedgerConfig{
		TransferFeeRate: 0.05,
		BurnShare:       0.2,
		TreasuryShare:   0.5,
		RewardsShare:    0.3,
	}
}

func DefaultStaking() StakingConfig {
	return StakingConfig{
		APYTiers: []APYTier{
			{MinDays: 365, APY: 0.12},
			{MinDays: 180, APY: 0.08},
			{MinDays: 90, APY: 0.05},
			{MinDays: 30, APY: 0.03},
		},
	}
}
