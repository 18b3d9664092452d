package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceDTO 钱包余额
type BalanceDTO struct {
	UserID      uint64          `json:"user_id"`
	Available   decimal.Decimal `json:"available"`
	Staked      decimal.Decimal `json:"staked"`
	EarnedTotal decimal.Decimal `json:"earned_total"`
	SpentTotal  decimal.Decimal `json:"spent_total"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TransactionDTO 流水
type TransactionDTO struct {
	ID              uint64          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	RelatedEntityID string          `json:"related_id"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransactionPageDTO 流水分页
type TransactionPageDTO struct {
	List  []*TransactionDTO `json:"list"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PageQueryDTO 分页参数
type PageQueryDTO struct {
	Page  int `form:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

// TransferDTO 转账
type TransferDTO struct {
	ToUserID uint64          `json:"to_user_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
}

// TransferResultDTO 转账结果
type TransferResultDTO struct {
	TxID      uint64          `json:"tx_id"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	NetAmount decimal.Decimal `json:"net_amount"`
	Burned    decimal.Decimal `json:"burned"`
}

// LedgerOpDTO 协作服务的单次入账/扣款
type LedgerOpDTO struct {
	UserID    uint64          `json:"user_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Source    string          `json:"source" validate:"required,max=32"`
	RelatedID string          `json:"related_id" validate:"max=64"`
}
