package api

import (
	"VCoin/internal/api/config"
	"VCoin/internal/api/middleware"
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/logger"
	"VCoin/internal/pkg/metrics"
	"VCoin/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter isRevoked 为空时不检查令牌黑名单
func SetupRouter(cfg *config.Config, group *HandlersGroup, isRevoked middleware.RevocationChecker) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware("/metrics"))
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	r.Use(metrics.GinMiddleware())
	logger.SetupGin(r, cfg.Logstash.Token, cfg.Logstash.Index)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			response.Success(c, "pong")
		})

		authGroup := apiGroup.Group("")
		authGroup.Use(middleware.AuthMiddleware(isRevoked))

		walletGroup := authGroup.Group("/wallet")
		{
			walletGroup.GET("/balance", group.WalletHandler.GetBalance)
			walletGroup.GET("/transactions", group.WalletHandler.GetTransactions)
			walletGroup.POST("/transfer", group.WalletHandler.Transfer)
		}

		stakingGroup := authGroup.Group("/staking")
		{
			stakingGroup.POST("", group.StakingHandler.Stake)
			stakingGroup.GET("", group.StakingHandler.ListStakes)
			stakingGroup.POST("/:stake_id/unstake", group.StakingHandler.Unstake)
		}

		rewardGroup := apiGroup.Group("/rewards")
		{
			rewardGroup.GET("/leaderboard", group.RewardHandler.GetLeaderboard)
			rewardGroup.GET("/distributions/:date", group.RewardHandler.GetDistribution)
		}

		// 需要登录 & 拥有 admin 角色
		adminGroup := authGroup.Group("/admin")
		adminGroup.Use(middleware.CheckRoles(consts.RoleAdmin))
		{
			adminGroup.POST("/rewards/distribute", group.RewardHandler.Distribute)
			adminGroup.POST("/bot-flags/:flag_id/resolve", group.RewardHandler.ResolveBotFlag)
		}

		// 协作服务使用服务令牌调用
		internalGroup := authGroup.Group("/internal")
		internalGroup.Use(middleware.CheckRoles(consts.RoleInternal))
		{
			internalGroup.POST("/ledger/credit", group.LedgerHandler.Credit)
			internalGroup.POST("/ledger/debit", group.LedgerHandler.Debit)
		}
	}

	return r
}
