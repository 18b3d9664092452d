package handler

import (
	"VCoin/internal/api/dto"
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/response"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type StakingHandler struct {
	stakingSvc service.StakingService
}

func NewStakingHandler(stakingSvc service.StakingService) *StakingHandler {
	return &StakingHandler{
		stakingSvc: stakingSvc,
	}
}

// Stake 发起锁仓
func (s *StakingHandler) Stake(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	var req dto.StakeDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	stake, err := s.stakingSvc.Stake(c.Request.Context(), userID, req.Amount, req.FeatureType, req.LockDays)
	if err != nil {
		response.Error(c, err)
		return
	}

	var out dto.StakeInfoDTO
	if err = copier.Copy(&out, stake); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// ListStakes 当前用户的锁仓记录
func (s *StakingHandler) ListStakes(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	stakes, err := s.stakingSvc.ListStakes(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]*dto.StakeInfoDTO, 0, len(stakes))
	if err = copier.Copy(&out, &stakes); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// Unstake 到期提取
func (s *StakingHandler) Unstake(c *gin.Context) {
	stakeID, err := strconv.ParseUint(c.Param("stake_id"), 10, 64)
	if err != nil || stakeID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64(consts.CtxUserID)

	result, err := s.stakingSvc.Unstake(c.Request.Context(), stakeID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.UnstakeResultDTO{
		StakeID:   result.Stake.ID,
		Principal: result.Principal,
		Rewards:   result.Rewards,
		Returned:  result.Returned,
	})
}
