package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"VCoin/internal/pkg/metrics"
	"VCoin/internal/repository"
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnstakeResult 提取结果，Returned = Principal + Rewards
type UnstakeResult struct {
	Stake     *model.VCoinStake `json:"stake"`
	Principal decimal.Decimal   `json:"principal"`
	Rewards   decimal.Decimal   `json:"rewards"`
	Returned  decimal.Decimal   `json:"returned"`
}

type StakingService interface {
	// Stake 将可用余额锁仓，收益在锁仓时按 amount × apy × lockDays/365 确定
	Stake(ctx context.Context, userID uint64, amount decimal.Decimal, featureType string, lockDays int) (*model.VCoinStake, error)
	// Unstake 到期后提取本金与收益
	Unstake(ctx context.Context, stakeID uint64, userID uint64) (*UnstakeResult, error)
	// SweepUnlocked 将到期的锁仓标记为 UNLOCKED，仅改变状态
	SweepUnlocked(ctx context.Context, now time.Time) (int64, error)
	ListStakes(ctx context.Context, userID uint64) ([]*model.VCoinStake, error)
	// APYFor 锁仓天数对应的年化
	APYFor(lockDays int) (decimal.Decimal, error)
}

type stakingServiceImpl struct {
	tiers      []config.APYTier
	db         *gorm.DB
	ledgerRepo repository.LedgerRepo
	now        func() time.Time
}

func NewStakingService(cfg config.StakingConfig, db *gorm.DB, ledgerRepo repository.LedgerRepo) StakingService {
	tiers := make([]config.APYTier, len(cfg.APYTiers))
	copy(tiers, cfg.APYTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinDays > tiers[j].MinDays })

	return &stakingServiceImpl{
		tiers:      tiers,
		db:         db,
		ledgerRepo: ledgerRepo,
		now:        time.Now,
	}
}

func (s *stakingServiceImpl) APYFor(lockDays int) (decimal.Decimal, error) {
	for _, tier := range s.tiers {
		if lockDays >= tier.MinDays {
			return decimal.NewFromFloat(tier.APY), nil
		}
	}
	return decimal.Zero, ErrInvalidLockPeriod
}

func (s *stakingServiceImpl) Stake(ctx context.Context, userID uint64, amount decimal.Decimal, featureType string, lockDays int) (*model.VCoinStake, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	apy, err := s.APYFor(lockDays)
	if err != nil {
		return nil, err
	}

	amount = amount.Truncate(amountPlaces)
	now := s.now()
	stake := &model.VCoinStake{
		UserID:         userID,
		Amount:         amount,
		FeatureType:    featureType,
		LockPeriodDays: lockDays,
		StartDate:      now,
		UnlockDate:     now.AddDate(0, 0, lockDays),
		Status:         model.StakeStatusActive,
		Apy:            apy,
		RewardsEarned:  StakeRewards(amount, apy, lockDays),
	}

	err = database.Transaction(ctx, s.db, func(ctx context.Context) error {
		balance, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if balance.Available.LessThan(amount) {
			return ErrInsufficientBalance
		}

		if err = s.ledgerRepo.CreateStake(ctx, stake); err != nil {
			return err
		}
		tx := newTransaction(userID, amount.Neg(), model.TxTypeStake, model.SourceStaking, strconv.FormatUint(stake.ID, 10))
		if err = s.ledgerRepo.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		balance.Available = balance.Available.Sub(amount)
		balance.Staked = balance.Staked.Add(amount)
		return s.ledgerRepo.UpdateBalance(ctx, balance)
	})
	if err != nil {
		metrics.LedgerOps.WithLabelValues("stake", "fail").Inc()
		return nil, err
	}

	metrics.LedgerOps.WithLabelValues("stake", "ok").Inc()
	return stake, nil
}

// StakeRewards amount × apy × lockDays / 365，截断到账本精度
func StakeRewards(amount, apy decimal.Decimal, lockDays int) decimal.Decimal {
	return amount.Mul(apy).
		Mul(decimal.NewFromInt(int64(lockDays))).
		Div(decimal.NewFromInt(365)).
		Truncate(amountPlaces)
}

func (s *stakingServiceImpl) Unstake(ctx context.Context, stakeID uint64, userID uint64) (*UnstakeResult, error) {
	var result *UnstakeResult
	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		stake, err := s.ledgerRepo.LockStake(ctx, stakeID)
		if err != nil {
			return err
		}
		if stake == nil {
			return ErrStakeNotFound
		}
		if stake.UserID != userID {
			return ErrNotStakeOwner
		}
		if stake.Status == model.StakeStatusWithdrawn {
			return ErrStakeNotActive
		}
		now := s.now()
		if now.Before(stake.UnlockDate) {
			return ErrStakeStillLocked
		}

		balance, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if balance.Staked.LessThan(stake.Amount) {
			return ErrInsufficientBalance
		}

		ref := strconv.FormatUint(stake.ID, 10)
		principalTx := newTransaction(userID, stake.Amount, model.TxTypeUnstake, model.SourceStaking, ref)
		if err = s.ledgerRepo.CreateTransaction(ctx, principalTx); err != nil {
			return err
		}
		if stake.RewardsEarned.IsPositive() {
			rewardTx := newTransaction(userID, stake.RewardsEarned, model.TxTypeStakeReward, model.SourceStaking, ref)
			if err = s.ledgerRepo.CreateTransaction(ctx, rewardTx); err != nil {
				return err
			}
		}

		returned := stake.Amount.Add(stake.RewardsEarned)
		balance.Staked = balance.Staked.Sub(stake.Amount)
		balance.Available = balance.Available.Add(returned)
		balance.EarnedTotal = balance.EarnedTotal.Add(stake.RewardsEarned)
		if err = s.ledgerRepo.UpdateBalance(ctx, balance); err != nil {
			return err
		}

		stake.Status = model.StakeStatusWithdrawn
		stake.WithdrawnAt = &now
		if err = s.ledgerRepo.UpdateStake(ctx, stake); err != nil {
			return err
		}

		result = &UnstakeResult{
			Stake:     stake,
			Principal: stake.Amount,
			Rewards:   stake.RewardsEarned,
			Returned:  returned,
		}
		return nil
	})
	if err != nil {
		metrics.LedgerOps.WithLabelValues("unstake", "fail").Inc()
		return nil, err
	}

	metrics.LedgerOps.WithLabelValues("unstake", "ok").Inc()
	return result, nil
}

func (s *stakingServiceImpl) SweepUnlocked(ctx context.Context, now time.Time) (int64, error) {
	return s.ledgerRepo.UnlockDueStakes(ctx, now)
}

func (s *stakingServiceImpl) ListStakes(ctx context.Context, userID uint64) ([]*model.VCoinStake, error) {
	return s.ledgerRepo.GetStakesByUser(ctx, userID)
}
