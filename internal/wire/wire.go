package wire

import (
	"VCoin/internal/api"
	"VCoin/internal/api/config"
	"VCoin/internal/api/handler"
	"VCoin/internal/job"
	"VCoin/internal/pkg/cron"
	"VCoin/internal/pkg/kafka"
	"VCoin/internal/pkg/redis"
	"VCoin/internal/repository"
	"VCoin/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	Publisher    *kafka.Publisher
	CronMgr      *cron.Manager
	Services     *Services
}

// Services 奖励流水线的全部服务，CLI 与 HTTP 服务共用
type Services struct {
	Activity     service.ActivityService
	BotFilter    service.BotFilterService
	Quality      service.QualityService
	Reputation   service.ReputationService
	Points       service.PointsService
	Ledger       service.LedgerService
	Staking      service.StakingService
	Distribution service.DistributionService
	Leaderboard  service.LeaderboardService
}

// BuildServices 组装仓储与服务
func BuildServices(db *gorm.DB, cfg *config.Config, publisher service.EventPublisher, cache service.Cache, price service.PriceProvider) *Services {
	activityRepo := repository.NewActivityRepo(db)
	botFlagRepo := repository.NewBotFlagRepo(db)
	postRepo := repository.NewPostRepo(db)
	userRepo := repository.NewUserRepo(db)
	qualityScoreRepo := repository.NewQualityScoreRepo(db)
	reputationRepo := repository.NewReputationRepo(db)
	distributionRepo := repository.NewDistributionRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)

	activitySvc := service.NewActivityService(activityRepo)
	botFilterSvc := service.NewBotFilterService(cfg.Reward, botFlagRepo, publisher)
	qualitySvc := service.NewQualityService(cfg.Reward, postRepo, qualityScoreRepo)
	reputationSvc := service.NewReputationService(cfg.Reward, userRepo, reputationRepo, qualityScoreRepo)
	pointsSvc := service.NewPointsService(cfg.Reward, activitySvc, botFilterSvc, qualitySvc, reputationSvc)
	ledgerSvc := service.NewLedgerService(cfg.Ledger, db, ledgerRepo, publisher)
	stakingSvc := service.NewStakingService(cfg.Staking, db, ledgerRepo)
	distributionSvc := service.NewDistributionService(cfg.Reward, distributionRepo, activitySvc, pointsSvc, ledgerSvc, price)
	leaderboardSvc := service.NewLeaderboardService(ledgerRepo, cache)

	return &Services{
		Activity:     activitySvc,
		BotFilter:    botFilterSvc,
		Quality:      qualitySvc,
		Reputation:   reputationSvc,
		Points:       pointsSvc,
		Ledger:       ledgerSvc,
		Staking:      stakingSvc,
		Distribution: distributionSvc,
		Leaderboard:  leaderboardSvc,
	}
}

func BuildHandlers(svcs *Services) *api.HandlersGroup {
	return &api.HandlersGroup{
		WalletHandler:  handler.NewWalletHandler(svcs.Ledger),
		StakingHandler: handler.NewStakingHandler(svcs.Staking),
		RewardHandler:  handler.NewRewardHandler(svcs.Leaderboard, svcs.Distribution, svcs.BotFilter),
		LedgerHandler:  handler.NewLedgerHandler(svcs.Ledger),
	}
}

// NewPublisher Kafka 未启用时返回空实现
func NewPublisher(cfg *config.Config) (service.EventPublisher, *kafka.Publisher, error) {
	if !cfg.Kafka.Enable {
		log.Warn("Kafka disabled, domain events will not be published")
		return service.NopPublisher{}, nil, nil
	}
	publisher, err := kafka.NewPublisher(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	return publisher, publisher, nil
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	publisher, kafkaPublisher, err := NewPublisher(cfg)
	if err != nil {
		return nil, err
	}

	svcs := BuildServices(db, cfg, publisher, redis.NewCache(), redis.NewPriceFeed(cfg.Reward.VcnPriceUSD))

	router := api.SetupRouter(cfg, BuildHandlers(svcs), redis.IsTokenRevoked)

	cronMgr := cron.NewCronManager(
		cfg.Cron,
		job.NewDistributionJob(svcs.Distribution),
		job.NewQualityRefreshJob(svcs.Quality),
		job.NewReputationRefreshJob(svcs.Reputation),
		job.NewStakeSweepJob(svcs.Staking),
	)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.Kafka.Enable {
		kafkaMgr, err = kafka.NewConsumerManager(cfg, svcs.Activity)
		if err != nil {
			return nil, err
		}
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		Publisher:    kafkaPublisher,
		CronMgr:      cronMgr,
		Services:     svcs,
	}, nil
}
