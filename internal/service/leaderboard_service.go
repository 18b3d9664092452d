package service

import (
	"VCoin/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAll     = "all"

	leaderboardKey      = "vcn:leaderboard:"
	leaderboardTTL      = time.Minute
	defaultLeaderboard  = 10
	maxLeaderboardLimit = 100
)

type LeaderboardEntry struct {
	Rank   int             `json:"rank"`
	UserID uint64          `json:"userId"`
	Total  decimal.Decimal `json:"total"`
}

type LeaderboardService interface {
	// GetLeaderboard 统计周期内正向入账合计排行
	GetLeaderboard(ctx context.Context, period string, limit int) ([]*LeaderboardEntry, error)
}

type leaderboardServiceImpl struct {
	ledgerRepo repository.LedgerRepo
	cache      Cache
	now        func() time.Time
}

func NewLeaderboardService(ledgerRepo repository.LedgerRepo, cache Cache) LeaderboardService {
	return &leaderboardServiceImpl{
		ledgerRepo: ledgerRepo,
		cache:      cache,
		now:        time.Now,
	}
}

// PeriodStart 周期起点，all 返回零值
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonthly:
		return now.AddDate(0, 0, -30), nil
	case PeriodAll:
		return time.Time{}, nil
	default:
		return time.Time{}, ErrParamInvalid
	}
}

func (s *leaderboardServiceImpl) GetLeaderboard(ctx context.Context, period string, limit int) ([]*LeaderboardEntry, error) {
	if period == "" {
		period = PeriodDaily
	}
	if limit <= 0 {
		limit = defaultLeaderboard
	}
	limit = min(limit, maxLeaderboardLimit)

	now := s.now()
	since, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}

	// 按分钟分桶缓存
	key := fmt.Sprintf("%s%s:%d:%d", leaderboardKey, period, limit, now.Unix()/60)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err != nil {
			log.WarnContext(ctx, "get leaderboard cache error", "key", key, "err", err)
		} else if cached != "" {
			entries := make([]*LeaderboardEntry, 0)
			if err = json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
			log.WarnContext(ctx, "decode leaderboard cache error", "key", key, "err", err)
		}
	}

	rows, err := s.ledgerRepo.GetEarningsRanking(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]*LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, &LeaderboardEntry{
			Rank:   i + 1,
			UserID: row.UserID,
			Total:  row.Total,
		})
	}

	if s.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err = s.cache.Set(ctx, key, string(data), leaderboardTTL); err != nil {
				log.WarnContext(ctx, "set leaderboard cache error", "key", key, "err", err)
			}
		}
	}
	return entries, nil
}
