package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VCoinBalance 用户余额，Available 与 Staked 始终非负，只在账本事务中修改
type VCoinBalance struct {
	ID          uint64          `gorm:"primaryKey" json:"-"`
	UserID      uint64          `gorm:"not null;uniqueIndex:idx_balance_user" json:"userId"`
	Available   decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"available"`
	Staked      decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"staked"`
	EarnedTotal decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"earnedTotal"`
	SpentTotal  decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"spentTotal"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (VCoinBalance) TableName() string {
	return "vcoin_balances"
}

const (
	TxTypeCredit      = "credit"
	TxTypeDebit       = "debit"
	TxTypeTransferIn  = "transfer_in"
	TxTypeTransferOut = "transfer_out"
	TxTypeBurn        = "burn"
	TxTypeTreasury    = "treasury"
	TxTypeRewardsPool = "rewards_pool"
	TxTypeStake       = "stake"
	TxTypeUnstake     = "unstake"
	TxTypeStakeReward = "stake_reward"
)

const (
	TxStatusCompleted = "completed"
)

const (
	SourceDailyReward = "daily_reward"
	SourceTransfer    = "transfer"
	SourceStaking     = "staking"
)

// SystemUserID 手续费拆分（销毁/国库/奖励池）流水记在该用户名下
const SystemUserID uint64 = 0

// VCoinTransaction 账本流水，只追加。Amount 为对 Available 的有符号影响
type VCoinTransaction struct {
	ID              uint64          `gorm:"primaryKey" json:"id"`
	UserID          uint64          `gorm:"not null;index:idx_tx_user_created,priority:1" json:"userId"`
	Amount          decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"amount"`
	Type            string          `gorm:"type:varchar(20);not null" json:"type"`
	Source          string          `gorm:"type:varchar(32);not null" json:"source"`
	RelatedEntityID string          `gorm:"type:varchar(64);not null;default:''" json:"relatedEntityId"`
	IdempotencyKey  *string         `gorm:"type:varchar(128);uniqueIndex:idx_tx_idempotency_key" json:"-"`
	Status          string          `gorm:"type:varchar(16);not null;default:'completed'" json:"status"`
	CreatedAt       time.Time       `gorm:"not null;index:idx_tx_user_created,priority:2;index:idx_tx_created_at" json:"createdAt"`
}

func (VCoinTransaction) TableName() string {
	return "vcoin_transactions"
}

const (
	StakeStatusActive    = "ACTIVE"
	StakeStatusUnlocked  = "UNLOCKED"
	StakeStatusWithdrawn = "WITHDRAWN"
)

// VCoinStake 锁仓记录
type VCoinStake struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	UserID         uint64          `gorm:"not null;index:idx_stake_user" json:"userId"`
	Amount         decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"amount"`
	FeatureType    string          `gorm:"type:varchar(32);not null;default:''" json:"featureType"`
	LockPeriodDays int             `gorm:"not null" json:"lockPeriodDays"`
	StartDate      time.Time       `gorm:"not null" json:"startDate"`
	UnlockDate     time.Time       `gorm:"not null;index:idx_stake_status_unlock,priority:2" json:"unlockDate"`
	Status         string          `gorm:"type:varchar(10);not null;index:idx_stake_status_unlock,priority:1" json:"status"`
	Apy            decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"apy"`
	RewardsEarned  decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0" json:"rewardsEarned"`
	WithdrawnAt    *time.Time      `json:"withdrawnAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (VCoinStake) TableName() string {
	return "vcoin_stakes"
}

const (
	SystemAccountBurn        = "burn"
	SystemAccountTreasury    = "treasury"
	SystemAccountRewardsPool = "rewards_pool"
)

// SystemAccount 平台账户余额（销毁累计、国库、奖励池）
type SystemAccount struct {
	ID        uint64          `gorm:"primaryKey"`
	Code      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_system_code"`
	Balance   decimal.Decimal `gorm:"type:decimal(30,8);not null;default:0"`
	UpdatedAt time.Time
}

func (SystemAccount) TableName() string {
	return "vcoin_system_accounts"
}
