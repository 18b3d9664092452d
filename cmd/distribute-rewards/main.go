package main

import (
	"VCoin/internal/api/config"
	"VCoin/internal/pkg/database"
	"VCoin/internal/pkg/logger"
	"VCoin/internal/pkg/redis"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"
	"VCoin/internal/wire"
	"context"
	"fmt"
	log "log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// summary 命令行输出
type summary struct {
	Success       bool            `json:"success"`
	Date          string          `json:"date"`
	Reason        string          `json:"reason,omitempty"`
	Distributed   decimal.Decimal `json:"distributed"`
	Recipients    int             `json:"recipients"`
	AverageReward decimal.Decimal `json:"averageReward"`
	TopEarner     *topEarner      `json:"topEarner,omitempty"`
}

type topEarner struct {
	UserID uint64          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

func main() {
	var cfgFile string
	var date string

	rootCmd := &cobra.Command{
		Use:           "distribute-rewards",
		Short:         "结算指定日期的每日 VCN 奖励",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgFile, date)
		},
	}
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.Flags().StringVar(&date, "date", "", "结算日期 (YYYY-MM-DD)，默认昨天")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "distribute-rewards:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgFile, date string) error {
	target, err := parseDate(date, time.Now())
	if err != nil {
		return err
	}

	if err = config.LoadConfig(cfgFile); err != nil {
		return err
	}
	cfg := config.Cfg
	logger.InitLogger(cfg.Logstash)

	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var price service.PriceProvider = service.StaticPrice(cfg.Reward.VcnPriceUSD)
	var cache service.Cache
	if err = redis.InitRedis(cfg.Redis); err != nil {
		log.Warn("redis unavailable, using configured VCN price", "err", err)
	} else {
		price = redis.NewPriceFeed(cfg.Reward.VcnPriceUSD)
		cache = redis.NewCache()
	}

	publisher, kafkaPublisher, err := wire.NewPublisher(cfg)
	if err != nil {
		return err
	}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
	}

	svcs := wire.BuildServices(db, cfg, publisher, cache, price)

	ctx = logger.WithTraceID(ctx, "cli-distribution-"+uuid.NewString())
	result, err := svcs.Distribution.RunDailyDistribution(ctx, target)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(toSummary(result), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// parseDate 为空时返回 now 的前一天
func parseDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return util.GetMidnight(now).AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(service.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", value, err)
	}
	return t, nil
}

func toSummary(result *service.DistributionResult) *summary {
	s := &summary{
		Success:       result.Success,
		Date:          result.Date,
		Reason:        result.Reason,
		Distributed:   result.Distributed,
		Recipients:    result.Recipients,
		AverageReward: result.AverageReward,
	}
	if result.TopEarnerUserID != 0 {
		s.TopEarner = &topEarner{UserID: result.TopEarnerUserID, Amount: result.TopEarnerAmount}
	}
	return s
}
