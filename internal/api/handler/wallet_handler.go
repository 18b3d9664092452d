package handler

import (
	"VCoin/internal/api/dto"
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/response"
	"VCoin/internal/pkg/util"
	"VCoin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	ledgerSvc service.LedgerService
}

func NewWalletHandler(ledgerSvc service.LedgerService) *WalletHandler {
	return &WalletHandler{
		ledgerSvc: ledgerSvc,
	}
}

// GetBalance 当前用户余额
func (s *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	balance, err := s.ledgerSvc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var out dto.BalanceDTO
	if err = copier.Copy(&out, balance); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// GetTransactions 当前用户流水分页
func (s *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	var query dto.PageQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Invalid(c, err)
		return
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = consts.DefaultPageSize
	}

	txs, total, err := s.ledgerSvc.GetTransactions(c.Request.Context(), userID, query.Page, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]*dto.TransactionDTO, 0, len(txs))
	if err = copier.Copy(&list, &txs); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.TransactionPageDTO{
		List:  list,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	})
}

// Transfer 转账给其他用户，按配置费率收取手续费
func (s *WalletHandler) Transfer(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	var req dto.TransferDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	result, err := s.ledgerSvc.Transfer(c.Request.Context(), userID, req.ToUserID, req.Amount, decimal.NewFromInt(-1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.TransferResultDTO{
		TxID:      result.FromTx.ID,
		Amount:    result.Amount,
		Fee:       result.Fee,
		NetAmount: result.NetAmount,
		Burned:    result.Burned,
	})
}
