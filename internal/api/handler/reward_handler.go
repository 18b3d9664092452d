package handler

import (
	"VCoin/internal/api/dto"
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/response"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	leaderboardSvc  service.LeaderboardService
	distributionSvc service.DistributionService
	botFilterSvc    service.BotFilterService
}

func NewRewardHandler(
	leaderboardSvc service.LeaderboardService,
	distributionSvc service.DistributionService,
	botFilterSvc service.BotFilterService,
) *RewardHandler {
	return &RewardHandler{
		leaderboardSvc:  leaderboardSvc,
		distributionSvc: distributionSvc,
		botFilterSvc:    botFilterSvc,
	}
}

// GetLeaderboard 收益排行
func (s *RewardHandler) GetLeaderboard(c *gin.Context) {
	var query dto.LeaderboardQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Invalid(c, err)
		return
	}

	entries, err := s.leaderboardSvc.GetLeaderboard(c.Request.Context(), query.Period, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}

// GetDistribution 某日发放汇总
func (s *RewardHandler) GetDistribution(c *gin.Context) {
	record, err := s.distributionSvc.GetDistribution(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, record)
}

// Distribute 手动触发发放，默认发放前一天
func (s *RewardHandler) Distribute(c *gin.Context) {
	var query dto.DistributeQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Invalid(c, err)
		return
	}

	date := time.Now().AddDate(0, 0, -1)
	if query.Date != "" {
		parsed, err := time.ParseInLocation(service.DateLayout, query.Date, time.Local)
		if err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
		date = parsed
	}

	// 批量任务不随请求取消
	ctx := context.WithoutCancel(c.Request.Context())
	log.InfoContext(ctx, "manual distribution triggered",
		"date", date.Format(service.DateLayout),
		"operator", c.GetUint64(consts.CtxUserID))

	result, err := s.distributionSvc.RunDailyDistribution(ctx, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ResolveBotFlag 人工处理机器人标记
func (s *RewardHandler) ResolveBotFlag(c *gin.Context) {
	flagID, err := strconv.ParseUint(c.Param("flag_id"), 10, 64)
	if err != nil || flagID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err = s.botFilterSvc.ResolveFlag(c.Request.Context(), flagID, c.GetUint64(consts.CtxUserID)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
