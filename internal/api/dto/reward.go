package dto

// LeaderboardQueryDTO 排行榜查询
type LeaderboardQueryDTO struct {
	Period string `form:"period" validate:"omitempty,oneof=daily weekly monthly all"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// DistributeQueryDTO 手动触发发放
type DistributeQueryDTO struct {
	Date string `form:"date" validate:"omitempty,datetime=2006-01-02"`
}
