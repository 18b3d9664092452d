package dto

import "github.com/shopspring/decimal"

// CreditEvent 入账事件，写入 vcn.credit
type CreditEvent struct {
	UserID    uint64          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Source    string          `json:"source"`
	RelatedID string          `json:"related_id"`
	TxID      uint64          `json:"tx_id"`
}

// BotFlagEvent 机器人检测事件，写入 vcn.bot_flag
type BotFlagEvent struct {
	UserID   uint64  `json:"user_id"`
	FlagType string  `json:"flag_type"`
	Severity string  `json:"severity"`
	Penalty  float64 `json:"penalty"`
}
