package model

import (
	"time"
)

const (
	MediaTypeText  = "text"
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Post 帖子服务的计数读模型，计数由帖子服务维护，这里只读
type Post struct {
	ID               uint64    `gorm:"primaryKey"`
	UserID           uint64    `gorm:"not null;index:idx_post_user_created,priority:1" json:"user_id"`
	MediaType        string    `gorm:"type:varchar(10);not null;default:'text'" json:"media_type"`
	LikesCount       int       `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount    int       `gorm:"not null;default:0" json:"comments_count"`
	SharesCount      int       `gorm:"not null;default:0" json:"shares_count"`
	RepostsCount     int       `gorm:"not null;default:0" json:"reposts_count"`
	ViewsCount       int       `gorm:"not null;default:0" json:"views_count"`
	AvgCommentLength float64   `gorm:"not null;default:0" json:"avg_comment_length"`
	Status           int8      `gorm:"not null;default:0" json:"status"` // 0:审核中, 1:已发布, 2:拒绝, 3:待人工
	IsDeleted        bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt        time.Time `gorm:"index:idx_post_user_created,priority:2" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}
