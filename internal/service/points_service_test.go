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

func newPointsService(db *gorm.DB, cfg config.RewardConfig) (PointsService, ActivityService) {
	activitySvc := NewActivityService(repository.NewActivityRepo(db))
	qualityScoreRepo := repository.NewQualityScoreRepo(db)
	botSvc := NewBotFilterService(cfg, repository.NewBotFlagRepo(db), NopPublisher{})
	qualitySvc := NewQualityService(cfg, repository.NewPostRepo(db), qualityScoreRepo)
	repSvc := NewReputationService(cfg, repository.NewUserRepo(db), repository.NewReputationRepo(db), qualityScoreRepo)
	return NewPointsService(cfg, activitySvc, botSvc, qualitySvc, repSvc), activitySvc
}

func TestTimeDecay(t *testing.T) {
	tests := []struct {
		age  float64
		want float64
	}{
		{0, 1.0}, {1, 1.0}, {1.5, 0.95}, {3, 0.95}, {7, 0.70}, {14, 0.45},
		{30, 0.20}, {60, 0.08}, {90, 0.05}, {91, 0.03}, {365, 0.03},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeDecay(tt.age), "age=%v", tt.age)
	}
}

func TestTimeDecay_NonIncreasing(t *testing.T) {
	prev := TimeDecay(0)
	for age := 0.0; age <= 120; age += 0.25 {
		d := TimeDecay(age)
		assert.LessOrEqual(t, d, prev, "age=%v", age)
		prev = d
	}
}

func TestFinalPoints_Monotonic(t *testing.T) {
	base := FinalPoints(100, 0.5, 2.0, 1.2)
	assert.Equal(t, int64(120), base)

	assert.GreaterOrEqual(t, FinalPoints(150, 0.5, 2.0, 1.2), base)
	assert.GreaterOrEqual(t, FinalPoints(100, 0.6, 2.0, 1.2), base)
	assert.GreaterOrEqual(t, FinalPoints(100, 0.5, 5.0, 1.2), base)
	assert.GreaterOrEqual(t, FinalPoints(100, 0.5, 2.0, 1.3), base)
	assert.Equal(t, int64(0), FinalPoints(0, 1, 10, 5))
}

func TestPointsService_RawPointsDecay(t *testing.T) {
	svc, _ := newPointsService(nil, config.DefaultReward())
	end := time.Now()

	events := []*model.ActivityEvent{
		{Type: model.ActivityPostVideo, OccurredAt: end.Add(-time.Hour)},
		{Type: model.ActivityComment, OccurredAt: end.Add(-48 * time.Hour)},
		{Type: model.ActivityLike, OccurredAt: end.Add(-10 * 24 * time.Hour)},
	}

	assert.InDelta(t, 50*1.0+8*0.95+1*0.45, svc.RawPoints(events, end), 1e-9)
	assert.Zero(t, svc.RawPoints(nil, end))
}

func TestPointsService_Calculate(t *testing.T) {
	db := testutil.NewDB(t)
	svc, activitySvc := newPointsService(db, config.DefaultReward())
	ctx := context.Background()
	end := time.Now()

	for _, typ := range []model.ActivityType{model.ActivityPostText, model.ActivityLike, model.ActivityLike, model.ActivityComment} {
		require.NoError(t, activitySvc.RecordEvent(ctx, &model.ActivityEvent{UserID: 1, Type: typ, OccurredAt: end.Add(-time.Hour)}))
	}
	// 窗口外
	require.NoError(t, activitySvc.RecordEvent(ctx, &model.ActivityEvent{UserID: 1, Type: model.ActivityPostVideo, OccurredAt: end.Add(-25 * time.Hour)}))

	pts, err := svc.Calculate(ctx, 1, end)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, pts.RawPoints, 1e-9)
	assert.Equal(t, 1.0, pts.BotPenalty)
	assert.Equal(t, 1.0, pts.QualityMultiplier)
	assert.Equal(t, 1.0, pts.ReputationMultiplier)
	assert.Equal(t, int64(20), pts.FinalPoints)
	assert.Equal(t, int64(4), pts.Counts.Total())
}

func TestPointsService_CalculateLikeFarmer(t *testing.T) {
	db := testutil.NewDB(t)
	svc, activitySvc := newPointsService(db, config.DefaultReward())
	ctx := context.Background()
	end := time.Now()

	for i := 0; i < 600; i++ {
		require.NoError(t, activitySvc.RecordEvent(ctx, &model.ActivityEvent{UserID: 2, Type: model.ActivityLike, OccurredAt: end.Add(-time.Minute)}))
	}

	pts, err := svc.Calculate(ctx, 2, end)
	require.NoError(t, err)
	assert.InDelta(t, 600.0, pts.RawPoints, 1e-9)
	assert.True(t, pts.Bot.IsLikelyBot)
	assert.Equal(t, int64(45), pts.FinalPoints)

	var flags int64
	require.NoError(t, db.Model(&model.BotDetectionFlag{}).Where("user_id = ?", 2).Count(&flags).Error)
	assert.Equal(t, int64(3), flags)
}

func TestPointsService_LongerWindowDecays(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := config.DefaultReward()
	cfg.ActivityWindowHours = 72
	svc, activitySvc := newPointsService(db, cfg)
	ctx := context.Background()
	end := time.Now()

	require.NoError(t, activitySvc.RecordEvent(ctx, &model.ActivityEvent{UserID: 3, Type: model.ActivityPostImage, OccurredAt: end.Add(-time.Hour)}))
	require.NoError(t, activitySvc.RecordEvent(ctx, &model.ActivityEvent{UserID: 3, Type: model.ActivityPostImage, OccurredAt: end.Add(-50 * time.Hour)}))

	pts, err := svc.Calculate(ctx, 3, end)
	require.NoError(t, err)
	assert.InDelta(t, 20+20*0.95, pts.RawPoints, 1e-9)
	// 机器人规则只看最近 24 小时
	assert.Equal(t, int64(1), pts.Counts.Total())
}
