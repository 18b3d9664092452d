package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"VCoin/internal/testutil"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActivity struct {
	ActivityService
	userIDs    []uint64
	start, end time.Time
}

func (f *fakeActivity) ListActiveUserIDs(_ context.Context, start, end time.Time) ([]uint64, error) {
	f.start, f.end = start, end
	return f.userIDs, nil
}

type fakePoints struct {
	PointsService
	mu     sync.Mutex
	points map[uint64]int64
	errs   map[uint64]error
	calls  map[uint64]int
}

func (f *fakePoints) Calculate(_ context.Context, userID uint64, _ time.Time) (*PointsBreakdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[uint64]int)
	}
	f.calls[userID]++
	if err := f.errs[userID]; err != nil {
		return nil, err
	}
	return &PointsBreakdown{UserID: userID, FinalPoints: f.points[userID]}, nil
}

type distributionFixture struct {
	svc      DistributionService
	ledger   LedgerService
	activity *fakeActivity
	points   *fakePoints
}

// 奖池 1000，价格 0.05 时单人上限 1000
func newDistributionFixture(t *testing.T, price float64) *distributionFixture {
	ledger, _, db, _ := newLedger(t)
	cfg := config.DefaultReward()
	cfg.MonthlyEmission = 30000
	cfg.DailyAllocationFraction = 1
	cfg.CreditRetries = 2

	f := &distributionFixture{
		ledger:   ledger,
		activity: &fakeActivity{},
		points:   &fakePoints{points: map[uint64]int64{}, errs: map[uint64]error{}},
	}
	f.svc = NewDistributionService(cfg, repository.NewDistributionRepo(db), f.activity, f.points, ledger, StaticPrice(price))
	return f
}

func day(s string) time.Time {
	d, _ := time.ParseInLocation(DateLayout, s, time.Local)
	return d
}

func TestDailyPool(t *testing.T) {
	assert.Equal(t, "166667", DailyPool(config.DefaultReward()).String())

	cfg := config.DefaultReward()
	cfg.MonthlyEmission = 30000
	cfg.DailyAllocationFraction = 1
	assert.Equal(t, "1000", DailyPool(cfg).String())
}

func TestAllocateRewards(t *testing.T) {
	tests := []struct {
		name   string
		points map[uint64]int64
		cap    string
		want   map[uint64]string
	}{
		{"proportional", map[uint64]int64{1: 300, 2: 700}, "0", map[uint64]string{1: "300", 2: "700"}},
		{"capped remainder undistributed", map[uint64]int64{1: 300, 2: 700}, "500", map[uint64]string{1: "300", 2: "500"}},
		{"truncated", map[uint64]int64{1: 1, 2: 1, 3: 1}, "0", map[uint64]string{1: "333.33333333", 2: "333.33333333", 3: "333.33333333"}},
		{"no points", map[uint64]int64{1: 0}, "0", map[uint64]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := decimal.NewFromInt(1000)
			rewards := AllocateRewards(tt.points, pool, dec(tt.cap))
			require.Len(t, rewards, len(tt.want))

			total := decimal.Zero
			for _, r := range rewards {
				assert.Equal(t, tt.want[r.UserID], r.Reward.String(), "user %d", r.UserID)
				total = total.Add(r.Reward)
			}
			assert.True(t, total.LessThanOrEqual(pool))
		})
	}
}

func TestRewardIdempotencyKey(t *testing.T) {
	assert.Equal(t, "daily-reward:2026-10-15:42", RewardIdempotencyKey("2026-10-15", 42))
}

func TestDistribution_Run(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	ctx := context.Background()
	f.activity.userIDs = []uint64{1, 2, 3}
	f.points.points = map[uint64]int64{1: 300, 2: 700, 3: 5}

	result, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15").Add(15*time.Hour))
	require.NoError(t, err)
	require.True(t, result.Success, result.Reason)

	assert.Equal(t, "2026-10-15", result.Date)
	assert.True(t, f.activity.start.Equal(day("2026-10-15")))
	assert.True(t, f.activity.end.Equal(day("2026-10-16")))

	assert.Equal(t, "1000", result.Pool.String())
	assert.Equal(t, "1000", result.Distributed.String())
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, "500", result.AverageReward.String())
	assert.Equal(t, uint64(2), result.TopEarnerUserID)
	assert.Equal(t, "700", result.TopEarnerAmount.String())

	assertBalance(t, f.ledger, 1, "300", "0")
	assertBalance(t, f.ledger, 2, "700", "0")
	// 低于最低积分
	assertBalance(t, f.ledger, 3, "0", "0")

	require.NotNil(t, result.Record)
	assert.Equal(t, 3, result.Record.ActiveUsersCount)
	assert.Equal(t, int64(1000), result.Record.TotalPoints)

	record, err := f.svc.GetDistribution(ctx, "2026-10-15")
	require.NoError(t, err)
	assert.True(t, record.VcnDistributed.Equal(dec("1000")))
}

func TestDistribution_RunWithCap(t *testing.T) {
	f := newDistributionFixture(t, 0.1)
	f.activity.userIDs = []uint64{1, 2}
	f.points.points = map[uint64]int64{1: 300, 2: 700}

	result, err := f.svc.RunDailyDistribution(context.Background(), day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, "500", result.PerUserCap.String())
	assert.Equal(t, "800", result.Distributed.String())
	assertBalance(t, f.ledger, 2, "500", "0")
}

func TestDistribution_RunsOncePerDate(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	ctx := context.Background()
	f.activity.userIDs = []uint64{1}
	f.points.points = map[uint64]int64{1: 100}

	first, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15").Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, ErrAlreadyDistributed.Error(), second.Reason)
	require.NotNil(t, second.Record)
	assert.Equal(t, first.Record.ID, second.Record.ID)

	assertBalance(t, f.ledger, 1, "1000", "0")
}

func TestDistribution_SkipsWithoutRecord(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	ctx := context.Background()

	result, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrNoActiveUsers.Error(), result.Reason)

	f.activity.userIDs = []uint64{1}
	f.points.points = map[uint64]int64{1: 9}
	result, err = f.svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrNoQualifyingUsers.Error(), result.Reason)

	_, err = f.svc.GetDistribution(ctx, "2026-10-15")
	assert.ErrorIs(t, err, ErrDistributionMissing)
	_, err = f.svc.GetDistribution(ctx, "15/10/2026")
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestDistribution_ScoringFailureIsolated(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	f.activity.userIDs = []uint64{1, 2, 3}
	f.points.points = map[uint64]int64{1: 100, 2: 100, 3: 100}
	f.points.errs[2] = errors.New("connection reset")
	f.points.errs[3] = ErrUserNotFound

	result, err := f.svc.RunDailyDistribution(context.Background(), day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Recipients)
	assertBalance(t, f.ledger, 1, "1000", "0")

	// 未知错误重试，业务错误不重试
	assert.Equal(t, 2, f.points.calls[2])
	assert.Equal(t, 1, f.points.calls[3])
}

func TestDistribution_ResumesAfterPartialCredit(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	ctx := context.Background()
	f.activity.userIDs = []uint64{1, 2}
	f.points.points = map[uint64]int64{1: 300, 2: 700}

	// 上次执行在写汇总前中断
	_, err := f.ledger.CreditOnce(ctx, 1, dec("300"), model.SourceDailyReward, "2026-10-15", RewardIdempotencyKey("2026-10-15", 1))
	require.NoError(t, err)

	result, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Recipients)

	assertBalance(t, f.ledger, 1, "300", "0")
	assertBalance(t, f.ledger, 2, "700", "0")
}

func TestDistribution_ResumeKeepsPoolWhenPointsChanged(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	ctx := context.Background()

	// 中断前按 {1:300, 2:700} 给用户 1 入账 300，之后用户 2 的积分因迟到事件变为 900
	_, err := f.ledger.CreditOnce(ctx, 1, dec("300"), model.SourceDailyReward, "2026-10-15", RewardIdempotencyKey("2026-10-15", 1))
	require.NoError(t, err)
	f.activity.userIDs = []uint64{1, 2}
	f.points.points = map[uint64]int64{1: 300, 2: 900}

	result, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, result.Success)

	assertBalance(t, f.ledger, 1, "300", "0")
	assertBalance(t, f.ledger, 2, "700", "0")
	assert.Equal(t, "1000", result.Distributed.String())
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, uint64(2), result.TopEarnerUserID)
	assert.Equal(t, int64(1200), result.Record.TotalPoints)

	// 汇总与账本一致
	credits, err := f.ledger.ListCredits(ctx, model.SourceDailyReward, "2026-10-15")
	require.NoError(t, err)
	credited := decimal.Zero
	for _, tx := range credits {
		credited = credited.Add(tx.Amount)
	}
	assert.True(t, credited.Equal(result.Record.VcnDistributed), "ledger %s record %s", credited, result.Record.VcnDistributed)
	assert.True(t, credited.LessThanOrEqual(result.Pool))
}

func TestDistribution_ResumeCountsCreditedUserNoLongerQualifying(t *testing.T) {
	f := newDistributionFixture(t, 0.05)
	ctx := context.Background()

	_, err := f.ledger.CreditOnce(ctx, 1, dec("400"), model.SourceDailyReward, "2026-10-15", RewardIdempotencyKey("2026-10-15", 1))
	require.NoError(t, err)
	f.activity.userIDs = []uint64{1, 2}
	f.points.points = map[uint64]int64{1: 5, 2: 100}

	result, err := f.svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, result.Success)

	assertBalance(t, f.ledger, 1, "400", "0")
	assertBalance(t, f.ledger, 2, "600", "0")
	assert.Equal(t, "1000", result.Record.VcnDistributed.String())
	assert.Equal(t, 2, result.Record.RecipientsSucceeded)
}

type flakyReputation struct {
	ReputationService
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyReputation) GetMultiplier(context.Context, uint64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("deadlock found when trying to get lock")
	}
	return 1.0, nil
}

func TestDistribution_RetriedScoringRecordsFlagsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cfg := config.DefaultReward()
	cfg.MonthlyEmission = 30000
	cfg.DailyAllocationFraction = 1
	cfg.CreditRetries = 2

	activitySvc := NewActivityService(repository.NewActivityRepo(db))
	qualityScoreRepo := repository.NewQualityScoreRepo(db)
	botSvc := NewBotFilterService(cfg, repository.NewBotFlagRepo(db), NopPublisher{})
	qualitySvc := NewQualityService(cfg, repository.NewPostRepo(db), qualityScoreRepo)
	rep := &flakyReputation{failures: 1}
	pointsSvc := NewPointsService(cfg, activitySvc, botSvc, qualitySvc, rep)
	ledger := NewLedgerService(config.DefaultLedger(), db, repository.NewLedgerRepo(db), NopPublisher{})
	svc := NewDistributionService(cfg, repository.NewDistributionRepo(db), activitySvc, pointsSvc, ledger, StaticPrice(0.05))

	at := day("2026-10-15").Add(12 * time.Hour)
	for i := 0; i < 600; i++ {
		require.NoError(t, activitySvc.RecordEvent(ctx, &model.ActivityEvent{UserID: 7, Type: model.ActivityLike, OccurredAt: at}))
	}

	result, err := svc.RunDailyDistribution(ctx, day("2026-10-15"))
	require.NoError(t, err)
	require.True(t, result.Success, result.Reason)
	assert.Equal(t, 2, rep.calls)
	assertBalance(t, ledger, 7, "1000", "0")

	countFlags := func() int64 {
		var n int64
		require.NoError(t, db.Model(&model.BotDetectionFlag{}).Where("user_id = ?", 7).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(3), countFlags())

	// 同一窗口重新计算（中断后重跑）
	_, err = pointsSvc.Calculate(ctx, 7, day("2026-10-16"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), countFlags())
}

func TestDistributionReasonCodes(t *testing.T) {
	assert.Equal(t, "already distributed", ErrAlreadyDistributed.Error())
	assert.Equal(t, "no active users", ErrNoActiveUsers.Error())
	assert.Equal(t, "no qualifying users", ErrNoQualifyingUsers.Error())
	_, known := CodeOf(ErrAlreadyDistributed)
	assert.True(t, known)
}
