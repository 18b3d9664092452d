package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"VCoin/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQualityService(db *gorm.DB) (QualityService, repository.QualityScoreRepo) {
	scoreRepo := repository.NewQualityScoreRepo(db)
	return NewQualityService(config.DefaultReward(), repository.NewPostRepo(db), scoreRepo), scoreRepo
}

func TestQualityMultiplier(t *testing.T) {
	tests := []struct {
		overall float64
		want    float64
	}{
		{0, 0.1},
		{0.0049, 0.1},
		{0.005, 0.5},
		{0.0099, 0.5},
		{0.01, 1.0},
		{0.019, 1.0},
		{0.02, 2.0},
		{0.049, 2.0},
		{0.05, 5.0},
		{0.099, 5.0},
		{0.10, 10.0},
		{0.9, 10.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityMultiplier(tt.overall), "overall=%v", tt.overall)
	}
}

func TestQualityService_Score(t *testing.T) {
	svc := NewQualityService(config.DefaultReward(), nil, nil)
	now := time.Now()

	post := &model.Post{
		ID:               1,
		MediaType:        model.MediaTypeVideo,
		LikesCount:       20,
		CommentsCount:    5,
		SharesCount:      5,
		RepostsCount:     2,
		ViewsCount:       1000,
		AvgCommentLength: 250,
	}
	score := svc.Score(post, now)

	assert.Equal(t, uint64(1), score.ContentID)
	assert.InDelta(t, 0.03, score.EngagementRate, 1e-12)
	assert.InDelta(t, 0.7, score.RetentionScore, 1e-12)
	assert.InDelta(t, 0.008, score.ViralityScore, 1e-12)
	assert.InDelta(t, 1.0, score.CommentQuality, 1e-12)
	assert.InDelta(t, 0.4*0.03+0.2*0.7+0.3*0.008+0.1, score.OverallScore, 1e-12)
	assert.Equal(t, QualityMultiplier(score.OverallScore), score.Multiplier)
	assert.Equal(t, now, score.CalculatedAt)
}

func TestQualityService_ScoreZeroViews(t *testing.T) {
	svc := NewQualityService(config.DefaultReward(), nil, nil)

	score := svc.Score(&model.Post{ID: 2, MediaType: model.MediaTypeText, LikesCount: 3}, time.Now())

	assert.InDelta(t, 3.0, score.EngagementRate, 1e-12)
	assert.InDelta(t, 1.0, score.RetentionScore, 1e-12)
	assert.Zero(t, score.CommentQuality)
}

func TestQualityService_RefreshIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	svc, scoreRepo := newQualityService(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Post{ID: 10, UserID: 1, MediaType: model.MediaTypeImage, LikesCount: 4, ViewsCount: 100}).Error)

	first, err := svc.Refresh(ctx, 10)
	require.NoError(t, err)
	second, err := svc.Refresh(ctx, 10)
	require.NoError(t, err)
	assert.InDelta(t, first.OverallScore, second.OverallScore, 1e-12)

	var count int64
	require.NoError(t, db.Model(&model.ContentQualityScore{}).Where("content_id = ?", 10).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", 10).Update("likes_count", 40).Error)
	_, err = svc.Refresh(ctx, 10)
	require.NoError(t, err)

	stored, err := scoreRepo.GetScoreByContentID(ctx, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, stored.EngagementRate, 1e-9)
}

func TestQualityService_RefreshMissingPost(t *testing.T) {
	svc, _ := newQualityService(testutil.NewDB(t))

	_, err := svc.Refresh(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestQualityService_RefreshBatchSkipsDeleted(t *testing.T) {
	db := testutil.NewDB(t)
	svc, _ := newQualityService(db)

	require.NoError(t, db.Create([]*model.Post{
		{ID: 1, UserID: 1, ViewsCount: 10},
		{ID: 2, UserID: 1, ViewsCount: 10, IsDeleted: true},
		{ID: 3, UserID: 2, ViewsCount: 10},
	}).Error)

	n, err := svc.RefreshBatch(context.Background(), []uint64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQualityService_UserMultiplier(t *testing.T) {
	db := testutil.NewDB(t)
	svc, scoreRepo := newQualityService(db)
	ctx := context.Background()
	now := time.Now()

	multiplier, err := svc.UserMultiplier(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 1.0, multiplier)

	require.NoError(t, db.Create([]*model.Post{
		{ID: 1, UserID: 1, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: 2, UserID: 1, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: 3, UserID: 1, CreatedAt: now.AddDate(0, 0, -60)},
	}).Error)
	for id, m := range map[uint64]float64{1: 2.0, 2: 5.0, 3: 10.0} {
		require.NoError(t, scoreRepo.SaveOrUpdateScore(ctx, &model.ContentQualityScore{ContentID: id, Multiplier: m, CalculatedAt: now}))
	}

	multiplier, err = svc.UserMultiplier(ctx, 1, now)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, multiplier, 1e-9)
}
