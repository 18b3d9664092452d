package service

import (
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"context"
	"fmt"
	"time"
)

// ActivityCounts 用户在窗口内各类行为次数
type ActivityCounts struct {
	PostsText  int64 `json:"postsText"`
	PostsImage int64 `json:"postsImage"`
	PostsVideo int64 `json:"postsVideo"`
	Likes      int64 `json:"likes"`
	Comments   int64 `json:"comments"`
	Shares     int64 `json:"shares"`
	Reposts    int64 `json:"reposts"`
	Follows    int64 `json:"follows"`
}

func (c ActivityCounts) Posts() int64 {
	return c.PostsText + c.PostsImage + c.PostsVideo
}

func (c ActivityCounts) Total() int64 {
	return c.Posts() + c.Likes + c.Comments + c.Shares + c.Reposts + c.Follows
}

// DistinctTypes 非零的行为种类数，发帖不区分媒体类型
func (c ActivityCounts) DistinctTypes() int {
	n := 0
	for _, v := range []int64{c.Posts(), c.Likes, c.Comments, c.Shares, c.Reposts, c.Follows} {
		if v > 0 {
			n++
		}
	}
	return n
}

type ActivityService interface {
	// Aggregate 统计 [start, end) 内的行为次数
	Aggregate(ctx context.Context, userID uint64, start, end time.Time) (*ActivityCounts, error)
	// ListEvents 返回 [start, end) 内的原始行为
	ListEvents(ctx context.Context, userID uint64, start, end time.Time) ([]*model.ActivityEvent, error)
	// ListActiveUserIDs 窗口内有行为的用户
	ListActiveUserIDs(ctx context.Context, start, end time.Time) ([]uint64, error)
	// RecordEvent 记录一次行为
	RecordEvent(ctx context.Context, event *model.ActivityEvent) error
}

type activityServiceImpl struct {
	activityRepo repository.ActivityRepo
}

func NewActivityService(activityRepo repository.ActivityRepo) ActivityService {
	return &activityServiceImpl{activityRepo: activityRepo}
}

func (s *activityServiceImpl) Aggregate(ctx context.Context, userID uint64, start, end time.Time) (*ActivityCounts, error) {
	byType, err := s.activityRepo.CountByType(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregate activity of user %d: %w", userID, err)
	}

	return &ActivityCounts{
		PostsText:  byType[model.ActivityPostText],
		PostsImage: byType[model.ActivityPostImage],
		PostsVideo: byType[model.ActivityPostVideo],
		Likes:      byType[model.ActivityLike],
		Comments:   byType[model.ActivityComment],
		Shares:     byType[model.ActivityShare],
		Reposts:    byType[model.ActivityRepost],
		Follows:    byType[model.ActivityFollow],
	}, nil
}

func (s *activityServiceImpl) ListEvents(ctx context.Context, userID uint64, start, end time.Time) ([]*model.ActivityEvent, error) {
	events, err := s.activityRepo.ListEvents(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list activity of user %d: %w", userID, err)
	}
	return events, nil
}

func (s *activityServiceImpl) ListActiveUserIDs(ctx context.Context, start, end time.Time) ([]uint64, error) {
	ids, err := s.activityRepo.ListActiveUserIDs(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}

func (s *activityServiceImpl) RecordEvent(ctx context.Context, event *model.ActivityEvent) error {
	if event.UserID == 0 || event.Type == "" {
		return ErrParamInvalid
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return s.activityRepo.CreateEvent(ctx, event)
}
