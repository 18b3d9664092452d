package handler

import (
	"VCoin/internal/api/dto"
	"VCoin/internal/pkg/response"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// LedgerHandler 供点赞/分享/评论等协作服务即时入账、扣款
type LedgerHandler struct {
	ledgerSvc service.LedgerService
}

func NewLedgerHandler(ledgerSvc service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerSvc: ledgerSvc,
	}
}

func (s *LedgerHandler) Credit(c *gin.Context) {
	var req dto.LedgerOpDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	tx, err := s.ledgerSvc.Credit(c.Request.Context(), req.UserID, req.Amount, req.Source, req.RelatedID)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.success(c, tx)
}

func (s *LedgerHandler) Debit(c *gin.Context) {
	var req dto.LedgerOpDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	tx, err := s.ledgerSvc.Debit(c.Request.Context(), req.UserID, req.Amount, req.Source, req.RelatedID)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.success(c, tx)
}

func (s *LedgerHandler) success(c *gin.Context, tx any) {
	var out dto.TransactionDTO
	if err := copier.Copy(&out, tx); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}
