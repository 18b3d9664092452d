package model

import "time"

// ActivityType 计入奖励的行为类型
type ActivityType string

const (
	ActivityPostText  ActivityType = "post_text"
	ActivityPostImage ActivityType = "post_image"
	ActivityPostVideo ActivityType = "post_video"
	ActivityLike      ActivityType = "like"
	ActivityComment   ActivityType = "comment"
	ActivityShare     ActivityType = "share"
	ActivityRepost    ActivityType = "repost"
	ActivityFollow    ActivityType = "follow"
)

// ActivityEvent 一次被计数的用户行为，写入后不再修改
type ActivityEvent struct {
	ID         uint64       `gorm:"primaryKey" json:"id"`
	UserID     uint64       `gorm:"not null;index:idx_user_time,priority:1" json:"userId"`
	Type       ActivityType `gorm:"type:varchar(20);not null" json:"type"`
	TargetID   uint64       `gorm:"not null;default:0" json:"targetId"`
	SourceKey  *string      `gorm:"type:varchar(128);uniqueIndex:idx_source_key" json:"-"`
	OccurredAt time.Time    `gorm:"not null;index:idx_user_time,priority:2;index:idx_occurred_at" json:"occurredAt"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}
