package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FlagStatusActive   = "ACTIVE"
	FlagStatusResolved = "RESOLVED"
)

const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// BotDetectionFlag 机器人检测命中记录，只允许改为已处理，不删除。
// 同一用户同一统计窗口内每种标记只记一次
type BotDetectionFlag struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	UserID         uint64          `gorm:"not null;index:idx_user_status;uniqueIndex:idx_user_flag_window,priority:1" json:"userId"`
	FlagType       string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_flag_window,priority:2" json:"flagType"`
	WindowEnd      time.Time       `gorm:"not null;uniqueIndex:idx_user_flag_window,priority:3" json:"windowEnd"`
	Severity       string          `gorm:"type:varchar(10);not null" json:"severity"`
	PenaltyApplied decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"penaltyApplied"`
	Status         string          `gorm:"type:varchar(10);not null;default:'ACTIVE';index:idx_user_status" json:"status"`
	FlaggedAt      time.Time       `gorm:"not null" json:"flaggedAt"`
	ResolvedAt     *time.Time      `json:"resolvedAt"`
	ResolvedBy     uint64          `gorm:"not null;default:0" json:"resolvedBy"`
}

func (BotDetectionFlag) TableName() string {
	return "bot_detection_flags"
}
