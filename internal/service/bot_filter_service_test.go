package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/repository"
	"VCoin/internal/testutil"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWindowEnd = time.Date(2026, 10, 16, 0, 0, 0, 0, time.Local)

func newBotFilter(t *testing.T) (BotFilterService, repository.BotFlagRepo, *fakePublisher) {
	db := testutil.NewDB(t)
	repo := repository.NewBotFlagRepo(db)
	pub := &fakePublisher{}
	return NewBotFilterService(config.DefaultReward(), repo, pub), repo, pub
}

func TestBotFilter_Check(t *testing.T) {
	svc := NewBotFilterService(config.DefaultReward(), nil, NopPublisher{})

	tests := []struct {
		name        string
		counts      ActivityCounts
		wantFlags   []string
		wantPenalty float64
		wantBot     bool
	}{
		{
			name:        "normal user",
			counts:      ActivityCounts{PostsText: 2, Likes: 30, Comments: 5, Follows: 1},
			wantFlags:   []string{},
			wantPenalty: 1.0,
		},
		{
			name:        "like only pattern",
			counts:      ActivityCounts{Likes: 600},
			wantFlags:   []string{FlagExcessiveLikes, FlagLowDiversity, FlagLikeOnlyPattern},
			wantPenalty: 0.5 * 0.5 * 0.3,
			wantBot:     true,
		},
		{
			name:        "exactly at cap is not excessive",
			counts:      ActivityCounts{PostsImage: 50, Likes: 60, Comments: 10},
			wantFlags:   []string{},
			wantPenalty: 1.0,
		},
		{
			name:        "excessive posts across media types",
			counts:      ActivityCounts{PostsText: 30, PostsVideo: 21, Likes: 10, Comments: 10},
			wantFlags:   []string{FlagExcessivePosts},
			wantPenalty: 0.5,
		},
		{
			name:        "high velocity",
			counts:      ActivityCounts{PostsText: 40, Likes: 490, Comments: 190, Shares: 90, Reposts: 1800, Follows: 90},
			wantFlags:   []string{FlagHighVelocity},
			wantPenalty: 0.3,
			wantBot:     true,
		},
		{
			name:        "low diversity needs more than 20 actions",
			counts:      ActivityCounts{Likes: 20},
			wantFlags:   []string{},
			wantPenalty: 1.0,
		},
		{
			name:        "low diversity",
			counts:      ActivityCounts{Likes: 15, Follows: 10},
			wantFlags:   []string{FlagLowDiversity},
			wantPenalty: 0.5,
		},
		{
			name:        "all caps exceeded",
			counts:      ActivityCounts{PostsText: 51, Likes: 501, Comments: 201, Shares: 101, Follows: 101},
			wantFlags:   []string{FlagExcessivePosts, FlagExcessiveLikes, FlagExcessiveComments, FlagExcessiveShares, FlagExcessiveFollows},
			wantPenalty: 0.5 * 0.5 * 0.5 * 0.5 * 0.5,
			wantBot:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := tt.counts
			got := svc.Check(&counts)
			assert.Equal(t, tt.wantFlags, got.Flags)
			assert.InDelta(t, tt.wantPenalty, got.Penalty, 1e-9)
			assert.Equal(t, tt.wantBot, got.IsLikelyBot)
			assert.Greater(t, got.Penalty, 0.0)
			assert.LessOrEqual(t, got.Penalty, 1.0)
		})
	}
}

func TestBotCheckResult_Severity(t *testing.T) {
	assert.Equal(t, model.SeverityHigh, (&BotCheckResult{Penalty: 0.075}).Severity())
	assert.Equal(t, model.SeverityMedium, (&BotCheckResult{Penalty: 0.3}).Severity())
	assert.Equal(t, model.SeverityLow, (&BotCheckResult{Penalty: 0.5}).Severity())
}

func TestBotFilter_EvaluatePersistsFlags(t *testing.T) {
	svc, repo, pub := newBotFilter(t)
	ctx := context.Background()

	result, err := svc.Evaluate(ctx, 42, &ActivityCounts{Likes: 600}, testWindowEnd)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Penalty, 0.3)
	assert.Contains(t, result.Flags, FlagLikeOnlyPattern)

	flags, err := repo.GetActiveFlagsByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, flags, 3)
	for _, f := range flags {
		assert.Equal(t, model.SeverityHigh, f.Severity)
		assert.Equal(t, model.FlagStatusActive, f.Status)
		assert.Equal(t, "0.075", f.PenaltyApplied.String())
	}
	assert.Len(t, pub.flags, 3)
}

func TestBotFilter_EvaluateOncePerWindow(t *testing.T) {
	svc, repo, pub := newBotFilter(t)
	ctx := context.Background()
	counts := &ActivityCounts{Likes: 600}

	for i := 0; i < 2; i++ {
		result, err := svc.Evaluate(ctx, 42, counts, testWindowEnd)
		require.NoError(t, err)
		assert.Len(t, result.Flags, 3)
	}
	flags, err := repo.GetActiveFlagsByUser(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, flags, 3)
	assert.Len(t, pub.flags, 3)

	// 下一个窗口重新记录
	_, err = svc.Evaluate(ctx, 42, counts, testWindowEnd.AddDate(0, 0, 1))
	require.NoError(t, err)
	flags, err = repo.GetActiveFlagsByUser(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, flags, 6)
	assert.Len(t, pub.flags, 6)
}

func TestBotFilter_EvaluateCleanUserWritesNothing(t *testing.T) {
	svc, repo, pub := newBotFilter(t)
	ctx := context.Background()

	result, err := svc.Evaluate(ctx, 7, &ActivityCounts{PostsText: 1, Likes: 3, Comments: 1}, testWindowEnd)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Penalty)

	flags, err := repo.GetActiveFlagsByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, flags)
	assert.Empty(t, pub.flags)
}

func TestBotFilter_PublishFailureIsNotFatal(t *testing.T) {
	db := testutil.NewDB(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewBotFilterService(config.DefaultReward(), repository.NewBotFlagRepo(db), pub)

	_, err := svc.Evaluate(context.Background(), 1, &ActivityCounts{Likes: 600}, testWindowEnd)
	assert.NoError(t, err)
}

func TestBotFilter_ResolveFlag(t *testing.T) {
	svc, repo, _ := newBotFilter(t)
	ctx := context.Background()

	_, err := svc.Evaluate(ctx, 9, &ActivityCounts{Likes: 25}, testWindowEnd)
	require.NoError(t, err)
	flags, err := repo.GetActiveFlagsByUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, flags, 1)

	require.NoError(t, svc.ResolveFlag(ctx, flags[0].ID, 1))
	assert.ErrorIs(t, svc.ResolveFlag(ctx, flags[0].ID, 1), ErrFlagResolved)
	assert.ErrorIs(t, svc.ResolveFlag(ctx, 9999, 1), ErrFlagNotFound)

	resolved, err := repo.GetFlagByID(ctx, flags[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.FlagStatusResolved, resolved.Status)
	assert.Equal(t, uint64(1), resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	active, err := repo.GetActiveFlagsByUser(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, active)
}
