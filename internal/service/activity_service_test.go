package service

import (
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"VCoin/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestActivityCounts(t *testing.T) {
	c := ActivityCounts{PostsText: 1, PostsVideo: 2, Likes: 3, Follows: 1}

	assert.Equal(t, int64(3), c.Posts())
	assert.Equal(t, int64(7), c.Total())
	assert.Equal(t, 3, c.DistinctTypes())
	assert.Equal(t, 0, ActivityCounts{}.DistinctTypes())
}

func TestActivityService_Aggregate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewActivityService(repository.NewActivityRepo(db))
	ctx := context.Background()

	end := time.Date(2026, 10, 16, 0, 0, 0, 0, time.Local)
	start := end.Add(-24 * time.Hour)

	record := func(userID uint64, typ model.ActivityType, at time.Time) {
		require.NoError(t, svc.RecordEvent(ctx, &model.ActivityEvent{UserID: userID, Type: typ, OccurredAt: at}))
	}
	record(1, model.ActivityPostImage, start)
	record(1, model.ActivityLike, start.Add(time.Hour))
	record(1, model.ActivityLike, start.Add(2*time.Hour))
	record(1, model.ActivityComment, end.Add(-time.Second))
	record(1, model.ActivityFollow, end)
	record(1, model.ActivityShare, start.Add(-time.Second))
	record(2, model.ActivityLike, start.Add(time.Hour))

	counts, err := svc.Aggregate(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Equal(t, ActivityCounts{PostsImage: 1, Likes: 2, Comments: 1}, *counts)

	empty, err := svc.Aggregate(ctx, 3, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Total())

	events, err := svc.ListEvents(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	users, err := svc.ListActiveUserIDs(ctx, start, end)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2}, users)
}

func TestActivityService_RecordEventDeduplicates(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewActivityService(repository.NewActivityRepo(db))
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		err := svc.RecordEvent(ctx, &model.ActivityEvent{UserID: 1, Type: model.ActivityLike, SourceKey: strPtr("likes:1"), OccurredAt: now})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&model.ActivityEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestActivityService_RecordEventInvalid(t *testing.T) {
	svc := NewActivityService(nil)

	assert.ErrorIs(t, svc.RecordEvent(context.Background(), &model.ActivityEvent{Type: model.ActivityLike}), ErrParamInvalid)
	assert.ErrorIs(t, svc.RecordEvent(context.Background(), &model.ActivityEvent{UserID: 1}), ErrParamInvalid)
}
