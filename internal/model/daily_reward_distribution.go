package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRewardDistribution 每日奖励发放汇总，每个日期只写一次，唯一索引即幂等保护
type DailyRewardDistribution struct {
	ID                  uint64          `gorm:"primaryKey" json:"id"`
	DistributionDate    string          `gorm:"type:char(10);not null;uniqueIndex:idx_distribution_date" json:"date"`
	TotalPool           decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"totalPool"`
	ActiveUsersCount    int             `gorm:"not null;default:0" json:"activeUsersCount"`
	TotalPoints         int64           `gorm:"not null;default:0" json:"totalPoints"`
	VcnDistributed      decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"vcnDistributed"`
	AvgRewardPerUser    decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"avgRewardPerUser"`
	TopEarnerUserID     uint64          `gorm:"not null;default:0" json:"topEarnerUserId"`
	TopEarnerAmount     decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"topEarnerAmount"`
	RecipientsAttempted int             `gorm:"not null;default:0" json:"recipientsAttempted"`
	RecipientsSucceeded int             `gorm:"not null;default:0" json:"recipientsSucceeded"`
	CreatedAt           time.Time       `json:"createdAt"`
}

func (DailyRewardDistribution) TableName() string {
	return "daily_reward_distributions"
}
