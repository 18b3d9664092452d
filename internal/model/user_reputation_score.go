package model

import "time"

// UserReputationScore 用户信誉评分缓存
type UserReputationScore struct {
	ID                     uint64    `gorm:"primaryKey" json:"id"`
	UserID                 uint64    `gorm:"not null;uniqueIndex:idx_reputation_user" json:"userId"`
	AccountAgeScore        float64   `gorm:"not null;default:1" json:"accountAgeScore"`
	HistoricalQualityScore float64   `gorm:"not null;default:1" json:"historicalQualityScore"`
	VerificationScore      float64   `gorm:"not null;default:1" json:"verificationScore"`
	CommunityStandingScore float64   `gorm:"not null;default:1" json:"communityStandingScore"`
	OverallReputation      float64   `gorm:"not null;default:1" json:"overallReputation"`
	LastCalculated         time.Time `gorm:"not null" json:"lastCalculated"`
}

func (UserReputationScore) TableName() string {
	return "user_reputation_scores"
}
