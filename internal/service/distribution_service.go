package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/pkg/metrics"
	"VCoin/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	// DateLayout 发放日期格式
	DateLayout   = "2006-01-02"
	activeWindow = 24 * time.Hour
	retryBackoff = 100 * time.Millisecond
)

// DistributionResult 一次发放的结果。Success 为 false 时 Reason 给出原因，不视为系统错误
type DistributionResult struct {
	Success         bool                           `json:"success"`
	Reason          string                         `json:"reason,omitempty"`
	Date            string                         `json:"date"`
	Pool            decimal.Decimal                `json:"pool"`
	PerUserCap      decimal.Decimal                `json:"perUserCap"`
	Distributed     decimal.Decimal                `json:"distributed"`
	Recipients      int                            `json:"recipients"`
	Attempted       int                            `json:"attempted"`
	AverageReward   decimal.Decimal                `json:"averageReward"`
	TopEarnerUserID uint64                         `json:"topEarnerUserId"`
	TopEarnerAmount decimal.Decimal                `json:"topEarnerAmount"`
	Record          *model.DailyRewardDistribution `json:"record,omitempty"`
}

func (r *DistributionResult) addRecipient(userID uint64, amount decimal.Decimal) {
	r.Recipients++
	r.Distributed = r.Distributed.Add(amount)
	if amount.GreaterThan(r.TopEarnerAmount) {
		r.TopEarnerUserID = userID
		r.TopEarnerAmount = amount
	}
}

// UserReward 单个用户的应发奖励
type UserReward struct {
	UserID uint64
	Points int64
	Reward decimal.Decimal
}

type DistributionService interface {
	// RunDailyDistribution 发放 date 当日（[date 00:00, 次日 00:00)）的奖励，同一日期只会成功一次
	RunDailyDistribution(ctx context.Context, date time.Time) (*DistributionResult, error)
	// GetDistribution 查询某日发放汇总
	GetDistribution(ctx context.Context, date string) (*model.DailyRewardDistribution, error)
}

type distributionServiceImpl struct {
	cfg              config.RewardConfig
	distributionRepo repository.DistributionRepo
	activitySvc      ActivityService
	pointsSvc        PointsService
	ledgerSvc        LedgerService
	price            PriceProvider
}

func NewDistributionService(
	cfg config.RewardConfig,
	distributionRepo repository.DistributionRepo,
	activitySvc ActivityService,
	pointsSvc PointsService,
	ledgerSvc LedgerService,
	price PriceProvider,
) DistributionService {
	return &distributionServiceImpl{
		cfg:              cfg,
		distributionRepo: distributionRepo,
		activitySvc:      activitySvc,
		pointsSvc:        pointsSvc,
		ledgerSvc:        ledgerSvc,
		price:            price,
	}
}

// DailyPool round(monthlyEmission × fraction / 30)
func DailyPool(cfg config.RewardConfig) decimal.Decimal {
	return decimal.NewFromFloat(cfg.MonthlyEmission).
		Mul(decimal.NewFromFloat(cfg.DailyAllocationFraction)).
		Div(decimal.NewFromInt(30)).
		Round(0)
}

// AllocateRewards 按积分占比切分奖池，单人不超过 perUserCap，被截掉的部分不再分配
func AllocateRewards(points map[uint64]int64, pool, perUserCap decimal.Decimal) []*UserReward {
	total := int64(0)
	for _, p := range points {
		total += p
	}
	rewards := make([]*UserReward, 0, len(points))
	if total <= 0 {
		return rewards
	}

	totalDec := decimal.NewFromInt(total)
	for userID, p := range points {
		reward := pool.Mul(decimal.NewFromInt(p)).Div(totalDec)
		if perUserCap.IsPositive() && reward.GreaterThan(perUserCap) {
			reward = perUserCap
		}
		rewards = append(rewards, &UserReward{
			UserID: userID,
			Points: p,
			Reward: reward.Truncate(amountPlaces),
		})
	}
	sort.Slice(rewards, func(i, j int) bool { return rewards[i].UserID < rewards[j].UserID })
	return rewards
}

// RewardIdempotencyKey 每日奖励入账的幂等键
func RewardIdempotencyKey(date string, userID uint64) string {
	return fmt.Sprintf("daily-reward:%s:%d", date, userID)
}

func (s *distributionServiceImpl) GetDistribution(ctx context.Context, date string) (*model.DailyRewardDistribution, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, ErrParamInvalid
	}
	record, err := s.distributionRepo.GetDistributionByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrDistributionMissing
	}
	return record, nil
}

func (s *distributionServiceImpl) RunDailyDistribution(ctx context.Context, date time.Time) (*DistributionResult, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dateKey := day.Format(DateLayout)
	windowEnd := day.AddDate(0, 0, 1)
	result := &DistributionResult{
		Date:            dateKey,
		Distributed:     decimal.Zero,
		AverageReward:   decimal.Zero,
		TopEarnerAmount: decimal.Zero,
	}

	// 1. 已发放检查
	existing, err := s.distributionRepo.GetDistributionByDate(ctx, dateKey)
	if err != nil {
		metrics.DistributionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check distribution of %s: %w", dateKey, err)
	}
	if existing != nil {
		return s.already(ctx, result, existing), nil
	}

	// 2-3. 奖池与单人上限
	result.Pool = DailyPool(s.cfg)
	result.PerUserCap = s.perUserCap(ctx)

	// 4. 活跃用户
	userIDs, err := s.activitySvc.ListActiveUserIDs(ctx, windowEnd.Add(-activeWindow), windowEnd)
	if err != nil {
		metrics.DistributionRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(userIDs) == 0 {
		return s.skipped(ctx, result, ErrNoActiveUsers), nil
	}

	// 5-6. 计算积分并过滤
	points := s.scoreUsers(ctx, userIDs, windowEnd)
	if len(points) == 0 {
		return s.skipped(ctx, result, ErrNoQualifyingUsers), nil
	}

	// 7. 上次中断的执行已入账的部分先从奖池扣除，余量只在未入账用户间切分
	credited, err := s.creditedRewards(ctx, dateKey)
	if err != nil {
		metrics.DistributionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load credited rewards of %s: %w", dateKey, err)
	}
	remaining := result.Pool
	pending := make(map[uint64]int64, len(points))
	totalPoints := int64(0)
	for userID, p := range points {
		totalPoints += p
		if _, ok := credited[userID]; !ok {
			pending[userID] = p
		}
	}
	creditedIDs := make([]uint64, 0, len(credited))
	for userID, amount := range credited {
		remaining = remaining.Sub(amount)
		creditedIDs = append(creditedIDs, userID)
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	sort.Slice(creditedIDs, func(i, j int) bool { return creditedIDs[i] < creditedIDs[j] })
	for _, userID := range creditedIDs {
		result.Attempted++
		result.addRecipient(userID, credited[userID])
	}
	if len(credited) > 0 {
		log.WarnContext(ctx, "resuming interrupted distribution",
			"date", dateKey,
			"credited", len(credited),
			"remainingPool", remaining.String())
	}
	rewards := AllocateRewards(pending, remaining, result.PerUserCap)

	// 8. 逐个入账，失败不影响其他用户
	for _, r := range rewards {
		if !r.Reward.IsPositive() {
			continue
		}
		result.Attempted++
		amount, err := s.creditWithRetry(ctx, dateKey, r)
		if err != nil {
			metrics.UserFailures.WithLabelValues("credit").Inc()
			log.ErrorContext(ctx, "credit daily reward failed",
				"userID", r.UserID,
				"stage", "credit",
				"amount", r.Reward.String(),
				"err", err)
			continue
		}
		result.addRecipient(r.UserID, amount)
	}
	if result.Recipients > 0 {
		result.AverageReward = result.Distributed.Div(decimal.NewFromInt(int64(result.Recipients))).Truncate(amountPlaces)
	}

	// 9. 写汇总，唯一日期约束兜底并发重复执行
	record := &model.DailyRewardDistribution{
		DistributionDate:    dateKey,
		TotalPool:           result.Pool,
		ActiveUsersCount:    len(userIDs),
		TotalPoints:         totalPoints,
		VcnDistributed:      result.Distributed,
		AvgRewardPerUser:    result.AverageReward,
		TopEarnerUserID:     result.TopEarnerUserID,
		TopEarnerAmount:     result.TopEarnerAmount,
		RecipientsAttempted: result.Attempted,
		RecipientsSucceeded: result.Recipients,
		CreatedAt:           time.Now(),
	}
	if err = s.distributionRepo.CreateDistribution(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, getErr := s.distributionRepo.GetDistributionByDate(ctx, dateKey)
			if getErr != nil {
				return nil, getErr
			}
			return s.already(ctx, result, existing), nil
		}
		metrics.DistributionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save distribution of %s: %w", dateKey, err)
	}

	result.Success = true
	result.Record = record
	metrics.DistributionRuns.WithLabelValues("completed").Inc()
	metrics.DistributedVCN.Add(result.Distributed.InexactFloat64())
	log.InfoContext(ctx, "daily distribution completed",
		"date", dateKey,
		"pool", result.Pool.String(),
		"distributed", result.Distributed.String(),
		"attempted", result.Attempted,
		"recipients", result.Recipients)
	return result, nil
}

// perUserCap maxDailyRewardUSD / 当前价格，价格不可用时回退到配置价格
func (s *distributionServiceImpl) perUserCap(ctx context.Context) decimal.Decimal {
	price := s.cfg.VcnPriceUSD
	if s.price != nil {
		p, err := s.price.VcnPriceUSD(ctx)
		if err != nil {
			log.WarnContext(ctx, "load vcn price error, fallback to config", "err", err)
		} else if p > 0 {
			price = p
		}
	}
	if price <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(s.cfg.MaxDailyRewardUSD).Div(decimal.NewFromFloat(price)).Truncate(amountPlaces)
}

// scoreUsers 并发计算积分，返回达到最低积分的用户
func (s *distributionServiceImpl) scoreUsers(ctx context.Context, userIDs []uint64, windowEnd time.Time) map[uint64]int64 {
	finals := make([]int64, len(userIDs))
	ok := make([]bool, len(userIDs))

	var g errgroup.Group
	g.SetLimit(max(s.cfg.ScoringWorkers, 1))
	for i, userID := range userIDs {
		g.Go(func() error {
			breakdown, err := s.calculateWithRetry(ctx, userID, windowEnd)
			if err != nil {
				metrics.UserFailures.WithLabelValues("score").Inc()
				log.ErrorContext(ctx, "score user failed, excluded from run",
					"userID", userID,
					"stage", "score",
					"err", err)
				return nil
			}
			finals[i] = breakdown.FinalPoints
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	points := make(map[uint64]int64)
	for i, userID := range userIDs {
		if ok[i] && finals[i] >= s.cfg.MinPoints && finals[i] > 0 {
			points[userID] = finals[i]
		}
	}
	return points
}

func (s *distributionServiceImpl) calculateWithRetry(ctx context.Context, userID uint64, windowEnd time.Time) (*PointsBreakdown, error) {
	var breakdown *PointsBreakdown
	err := s.retry(ctx, func() error {
		var err error
		breakdown, err = s.pointsSvc.Calculate(ctx, userID, windowEnd)
		return err
	})
	return breakdown, err
}

// creditWithRetry 返回实际入账金额，幂等键已存在时以已有流水为准
func (s *distributionServiceImpl) creditWithRetry(ctx context.Context, dateKey string, r *UserReward) (decimal.Decimal, error) {
	key := RewardIdempotencyKey(dateKey, r.UserID)
	amount := r.Reward
	err := s.retry(ctx, func() error {
		_, err := s.ledgerSvc.CreditOnce(ctx, r.UserID, r.Reward, model.SourceDailyReward, dateKey, key)
		if !errors.Is(err, ErrAlreadyCredited) {
			return err
		}
		existing, err := s.ledgerSvc.GetCreditByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("credit %s reported duplicate but not found", key)
		}
		log.WarnContext(ctx, "daily reward already credited",
			"userID", r.UserID,
			"date", dateKey,
			"amount", existing.Amount.String())
		amount = existing.Amount
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// creditedRewards 当日已按幂等键入账的用户及金额
func (s *distributionServiceImpl) creditedRewards(ctx context.Context, dateKey string) (map[uint64]decimal.Decimal, error) {
	txs, err := s.ledgerSvc.ListCredits(ctx, model.SourceDailyReward, dateKey)
	if err != nil {
		return nil, err
	}
	credited := make(map[uint64]decimal.Decimal, len(txs))
	for _, tx := range txs {
		if tx.IdempotencyKey == nil || *tx.IdempotencyKey != RewardIdempotencyKey(dateKey, tx.UserID) {
			continue
		}
		credited[tx.UserID] = tx.Amount
	}
	return credited, nil
}

// retry 业务错误不重试，其余错误按退避重试 CreditRetries 次
func (s *distributionServiceImpl) retry(ctx context.Context, fn func() error) error {
	attempts := max(s.cfg.CreditRetries, 1)
	interval := retryBackoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if _, known := CodeOf(err); known {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		interval *= 2
	}
	return err
}

func (s *distributionServiceImpl) already(ctx context.Context, result *DistributionResult, existing *model.DailyRewardDistribution) *DistributionResult {
	metrics.DistributionRuns.WithLabelValues("already_distributed").Inc()
	log.InfoContext(ctx, "daily distribution skipped", "date", result.Date, "reason", ErrAlreadyDistributed.Error())
	result.Success = false
	result.Reason = ErrAlreadyDistributed.Error()
	result.Record = existing
	return result
}

func (s *distributionServiceImpl) skipped(ctx context.Context, result *DistributionResult, reason error) *DistributionResult {
	label := "no_active_users"
	if errors.Is(reason, ErrNoQualifyingUsers) {
		label = "no_qualifying_users"
	}
	metrics.DistributionRuns.WithLabelValues(label).Inc()
	log.InfoContext(ctx, "daily distribution skipped", "date", result.Date, "reason", reason.Error())
	result.Reason = reason.Error()
	return result
}
