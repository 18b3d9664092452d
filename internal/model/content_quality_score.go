package model

import "time"

// ContentQualityScore 内容质量评分缓存，可随时由帖子计数重新算出
type ContentQualityScore struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	ContentID      uint64    `gorm:"not null;uniqueIndex:idx_content_id" json:"contentId"`
	EngagementRate float64   `gorm:"not null;default:0" json:"engagementRate"`
	RetentionScore float64   `gorm:"not null;default:0" json:"retentionScore"`
	ViralityScore  float64   `gorm:"not null;default:0" json:"viralityScore"`
	CommentQuality float64   `gorm:"not null;default:0" json:"commentQuality"`
	OverallScore   float64   `gorm:"not null;default:0" json:"overallScore"`
	Multiplier     float64   `gorm:"not null;default:1" json:"multiplier"`
	CalculatedAt   time.Time `gorm:"not null" json:"calculatedAt"`
}

func (ContentQualityScore) TableName() string {
	return "content_quality_scores"
}
