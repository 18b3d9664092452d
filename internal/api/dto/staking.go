package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StakeDTO 发起锁仓
type StakeDTO struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	FeatureType string          `json:"feature_type" validate:"max=32"`
	LockDays    int             `json:"lock_days" validate:"required,min=1,max=3650"`
}

// StakeInfoDTO 锁仓信息
type StakeInfoDTO struct {
	ID             uint64          `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	FeatureType    string          `json:"feature_type"`
	LockPeriodDays int             `json:"lock_period_days"`
	StartDate      time.Time       `json:"start_date"`
	UnlockDate     time.Time       `json:"unlock_date"`
	Status         string          `json:"status"`
	Apy            decimal.Decimal `json:"apy"`
	RewardsEarned  decimal.Decimal `json:"rewards_earned"`
	WithdrawnAt    *time.Time      `json:"withdrawn_at,omitempty"`
}

// UnstakeResultDTO 提取结果
type UnstakeResultDTO struct {
	StakeID   uint64          `json:"stake_id"`
	Principal decimal.Decimal `json:"principal"`
	Rewards   decimal.Decimal `json:"rewards"`
	Returned  decimal.Decimal `json:"returned"`
}
