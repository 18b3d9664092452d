package model

// All 返回需要迁移的全部表
func All() []any {
	return []any{
		&User{},
		&UserDetail{},
		&Post{},
		&ActivityEvent{},
		&BotDetectionFlag{},
		&ContentQualityScore{},
		&UserReputationScore{},
		&DailyRewardDistribution{},
		&VCoinBalance{},
		&VCoinTransaction{},
		&VCoinStake{},
		&SystemAccount{},
	}
}
