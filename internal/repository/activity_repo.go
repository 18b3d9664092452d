package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepo interface {
	CreateEvent(ctx context.Context, event *model.ActivityEvent) error
	CountByType(ctx context.Context, userID uint64, start, end time.Time) (map[model.ActivityType]int64, error)
	ListEvents(ctx context.Context, userID uint64, start, end time.Time) ([]*model.ActivityEvent, error)
	ListActiveUserIDs(ctx context.Context, start, end time.Time) ([]uint64, error)
}

type activityRepoImpl struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepo {
	return &activityRepoImpl{db: db}
}

// CreateEvent 写入行为事件，SourceKey 重复（消息重投）时忽略
func (s *activityRepoImpl) CreateEvent(ctx context.Context, event *model.ActivityEvent) error {
	return database.Conn(ctx, s.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
}

type typeCount struct {
	Type  model.ActivityType
	Total int64
}

// CountByType 统计 [start, end) 内各类型行为数量
func (s *activityRepoImpl) CountByType(ctx context.Context, userID uint64, start, end time.Time) (map[model.ActivityType]int64, error) {
	rows := make([]typeCount, 0)
	err := database.Conn(ctx, s.db).
		Model(&model.ActivityEvent{}).
		Select("type, COUNT(*) AS total").
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start, end).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ActivityType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Total
	}
	return counts, nil
}

func (s *activityRepoImpl) ListEvents(ctx context.Context, userID uint64, start, end time.Time) ([]*model.ActivityEvent, error) {
	events := make([]*model.ActivityEvent, 0)
	err := database.Conn(ctx, s.db).
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start, end).
		Order("occurred_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListActiveUserIDs 窗口内有任意行为的用户
func (s *activityRepoImpl) ListActiveUserIDs(ctx context.Context, start, end time.Time) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := database.Conn(ctx, s.db).
		Model(&model.ActivityEvent{}).
		Where("occurred_at >= ? AND occurred_at < ?", start, end).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
