package model

const (
	TierBasic      = "basic"
	TierVerified   = "verified"
	TierPremium    = "premium"
	TierEnterprise = "enterprise"
)

type UserDetail struct {
	UserID           uint64 `gorm:"primaryKey"`
	Nickname         string `gorm:"type:varchar(50);not null;default:''"`
	VerificationTier string `gorm:"type:varchar(16);not null;default:'basic'"`
	FollowersCount   int64  `gorm:"not null;default:0"`
	FollowingCount   int64  `gorm:"not null;default:0"`
	PostsCount       int64  `gorm:"not null;default:0"`
}

func (UserDetail) TableName() string {
	return "user_detail"
}
