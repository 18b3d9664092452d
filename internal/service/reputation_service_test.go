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

func newReputationService(db *gorm.DB) (ReputationService, repository.ReputationRepo) {
	repRepo := repository.NewReputationRepo(db)
	return NewReputationService(
		config.DefaultReward(),
		repository.NewUserRepo(db),
		repRepo,
		repository.NewQualityScoreRepo(db),
	), repRepo
}

func TestAccountAgeScore(t *testing.T) {
	tests := map[int]float64{0: 1.0, 29: 1.0, 30: 1.2, 89: 1.2, 90: 1.3, 180: 1.5, 364: 1.5, 365: 2.0, 2000: 2.0}
	for days, want := range tests {
		assert.Equal(t, want, AccountAgeScore(days), "days=%d", days)
	}
}

func TestHistoricalQualityScore(t *testing.T) {
	assert.Equal(t, 1.0, HistoricalQualityScore(nil))
	assert.Equal(t, 2.0, HistoricalQualityScore([]float64{0.1, 0.07}))
	assert.Equal(t, 1.5, HistoricalQualityScore([]float64{0.06}))
	assert.Equal(t, 1.2, HistoricalQualityScore([]float64{0.03}))
	assert.Equal(t, 1.0, HistoricalQualityScore([]float64{0.01}))
	assert.Equal(t, 0.5, HistoricalQualityScore([]float64{0.001, 0.002}))
}

func TestCommunityStandingScore(t *testing.T) {
	assert.Equal(t, 2.0, CommunityStandingScore(10001, 0))
	assert.Equal(t, 1.6, CommunityStandingScore(1001, 0))
	assert.Equal(t, 1.3, CommunityStandingScore(101, 0))
	assert.Equal(t, 1.1, CommunityStandingScore(11, 0))
	assert.Equal(t, 1.0, CommunityStandingScore(5, 0))
	assert.Equal(t, 1.0, CommunityStandingScore(0, 3))
	assert.Equal(t, 0.5, CommunityStandingScore(0, 0))
}

func TestOverallReputation_Clamped(t *testing.T) {
	assert.InDelta(t, 1.0, OverallReputation(1, 1, 1, 1), 1e-12)
	assert.Equal(t, 0.3, OverallReputation(0, 0, 0, 0))
	assert.Equal(t, 5.0, OverallReputation(10, 10, 10, 10))
}

func TestReputationService_ComputeAndCache(t *testing.T) {
	db := testutil.NewDB(t)
	svc, repRepo := newReputationService(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.Create(&model.User{ID: 5, CreatedAt: now.AddDate(-2, 0, 0)}).Error)
	require.NoError(t, db.Create(&model.UserDetail{UserID: 5, VerificationTier: "VERIFIED", FollowersCount: 1500, PostsCount: 30}).Error)

	rep, err := svc.Compute(ctx, 5, now)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rep.AccountAgeScore)
	assert.Equal(t, 1.0, rep.HistoricalQualityScore)
	assert.Equal(t, 1.4, rep.VerificationScore)
	assert.Equal(t, 1.6, rep.CommunityStandingScore)
	assert.InDelta(t, 0.25*2.0+0.35*1.0+0.25*1.4+0.15*1.6, rep.OverallReputation, 1e-9)

	multiplier, err := svc.GetMultiplier(ctx, 5)
	require.NoError(t, err)
	assert.InDelta(t, rep.OverallReputation, multiplier, 1e-9)

	cached, err := repRepo.GetReputationByUserID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.InDelta(t, rep.OverallReputation, cached.OverallReputation, 1e-9)
}

func TestReputationService_UnknownTierFallsBackToBasic(t *testing.T) {
	db := testutil.NewDB(t)
	svc, _ := newReputationService(db)
	now := time.Now()

	require.NoError(t, db.Create(&model.User{ID: 6, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.UserDetail{UserID: 6, VerificationTier: "gold"}).Error)

	rep, err := svc.Compute(context.Background(), 6, now)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rep.VerificationScore)
	assert.Equal(t, 0.5, rep.CommunityStandingScore)
}

func TestReputationService_MissingUser(t *testing.T) {
	svc, _ := newReputationService(testutil.NewDB(t))
	ctx := context.Background()

	_, err := svc.Compute(ctx, 77, time.Now())
	assert.ErrorIs(t, err, ErrUserNotFound)

	multiplier, err := svc.GetMultiplier(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, 1.0, multiplier)
}

func TestReputationService_RefreshActive(t *testing.T) {
	db := testutil.NewDB(t)
	svc, repRepo := newReputationService(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.Create(&model.User{ID: 1, CreatedAt: now.AddDate(0, -2, 0)}).Error)
	require.NoError(t, db.Create(&model.ActivityEvent{UserID: 1, Type: model.ActivityLike, OccurredAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&model.ActivityEvent{UserID: 2, Type: model.ActivityLike, OccurredAt: now.Add(-time.Hour)}).Error)

	n, err := svc.RefreshActive(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rep, err := repRepo.GetReputationByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, 1.2, rep.AccountAgeScore)
}
