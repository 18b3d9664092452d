package api

import "VCoin/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	WalletHandler  *handler.WalletHandler
	StakingHandler *handler.StakingHandler
	RewardHandler  *handler.RewardHandler
	LedgerHandler  *handler.LedgerHandler
}
