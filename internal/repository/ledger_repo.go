package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepo 余额、流水、锁仓的持久化。写操作必须在 database.Transaction 内调用
type LedgerRepo interface {
	GetBalance(ctx context.Context, userID uint64) (*model.VCoinBalance, error)
	LockBalance(ctx context.Context, userID uint64) (*model.VCoinBalance, error)
	UpdateBalance(ctx context.Context, balance *model.VCoinBalance) error
	CreateTransaction(ctx context.Context, tx *model.VCoinTransaction) error
	GetTransactions(ctx context.Context, userID uint64, offset, limit int) ([]*model.VCoinTransaction, int64, error)
	GetTransactionByKey(ctx context.Context, key string) (*model.VCoinTransaction, error)
	GetTransactionsBySource(ctx context.Context, source, relatedID string) ([]*model.VCoinTransaction, error)
	SumTransactions(ctx context.Context, userID uint64, excludeTypes ...string) (decimal.Decimal, error)
	AddSystemBalance(ctx context.Context, code string, amount decimal.Decimal) error
	GetSystemBalance(ctx context.Context, code string) (decimal.Decimal, error)

	CreateStake(ctx context.Context, stake *model.VCoinStake) error
	GetStake(ctx context.Context, id uint64) (*model.VCoinStake, error)
	LockStake(ctx context.Context, id uint64) (*model.VCoinStake, error)
	UpdateStake(ctx context.Context, stake *model.VCoinStake) error
	GetStakesByUser(ctx context.Context, userID uint64) ([]*model.VCoinStake, error)
	UnlockDueStakes(ctx context.Context, now time.Time) (int64, error)

	GetEarningsRanking(ctx context.Context, since time.Time, limit int) ([]*EarningsRow, error)
}

// EarningsRow 排行榜聚合行
type EarningsRow struct {
	UserID uint64          `json:"userId"`
	Total  decimal.Decimal `json:"total"`
}

type ledgerRepoImpl struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepo {
	return &ledgerRepoImpl{db: db}
}

func (s *ledgerRepoImpl) GetBalance(ctx context.Context, userID uint64) (*model.VCoinBalance, error) {
	balance := &model.VCoinBalance{}
	err := database.Conn(ctx, s.db).Where("user_id = ?", userID).First(balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return balance, nil
}

// LockBalance 对余额行加 FOR UPDATE 锁，行不存在时先建一条零余额记录
func (s *ledgerRepoImpl) LockBalance(ctx context.Context, userID uint64) (*model.VCoinBalance, error) {
	conn := database.Conn(ctx, s.db)
	err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.VCoinBalance{
		UserID:      userID,
		Available:   decimal.Zero,
		Staked:      decimal.Zero,
		EarnedTotal: decimal.Zero,
		SpentTotal:  decimal.Zero,
	}).Error
	if err != nil {
		return nil, err
	}

	balance := &model.VCoinBalance{}
	err = conn.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(balance).Error
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *ledgerRepoImpl) UpdateBalance(ctx context.Context, balance *model.VCoinBalance) error {
	return database.Conn(ctx, s.db).
		Model(&model.VCoinBalance{}).
		Where("user_id = ?", balance.UserID).
		Updates(map[string]any{
			"available":    balance.Available,
			"staked":       balance.Staked,
			"earned_total": balance.EarnedTotal,
			"spent_total":  balance.SpentTotal,
			"updated_at":   time.Now(),
		}).Error
}

// CreateTransaction 幂等键冲突时返回 gorm.ErrDuplicatedKey
func (s *ledgerRepoImpl) CreateTransaction(ctx context.Context, tx *model.VCoinTransaction) error {
	return database.Conn(ctx, s.db).Create(tx).Error
}

func (s *ledgerRepoImpl) GetTransactionByKey(ctx context.Context, key string) (*model.VCoinTransaction, error) {
	tx := &model.VCoinTransaction{}
	err := database.Conn(ctx, s.db).Where("idempotency_key = ?", key).First(tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

func (s *ledgerRepoImpl) GetTransactionsBySource(ctx context.Context, source, relatedID string) ([]*model.VCoinTransaction, error) {
	txs := make([]*model.VCoinTransaction, 0)
	err := database.Conn(ctx, s.db).
		Where("source = ? AND related_entity_id = ?", source, relatedID).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *ledgerRepoImpl) GetTransactions(ctx context.Context, userID uint64, offset, limit int) ([]*model.VCoinTransaction, int64, error) {
	var total int64
	txs := make([]*model.VCoinTransaction, 0)

	conn := database.Conn(ctx, s.db)
	if err := conn.Model(&model.VCoinTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := conn.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// SumTransactions 用户流水金额合计，可排除指定类型
func (s *ledgerRepoImpl) SumTransactions(ctx context.Context, userID uint64, excludeTypes ...string) (decimal.Decimal, error) {
	query := database.Conn(ctx, s.db).
		Model(&model.VCoinTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID)
	if len(excludeTypes) > 0 {
		query = query.Where("type NOT IN ?", excludeTypes)
	}

	var sum decimal.Decimal
	if err := query.Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// AddSystemBalance 平台账户加款，账户不存在时创建
func (s *ledgerRepoImpl) AddSystemBalance(ctx context.Context, code string, amount decimal.Decimal) error {
	return database.Conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		}),
	}).Create(&model.SystemAccount{Code: code, Balance: amount}).Error
}

func (s *ledgerRepoImpl) GetSystemBalance(ctx context.Context, code string) (decimal.Decimal, error) {
	account := &model.SystemAccount{}
	err := database.Conn(ctx, s.db).Where("code = ?", code).First(account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *ledgerRepoImpl) CreateStake(ctx context.Context, stake *model.VCoinStake) error {
	return database.Conn(ctx, s.db).Create(stake).Error
}

func (s *ledgerRepoImpl) GetStake(ctx context.Context, id uint64) (*model.VCoinStake, error) {
	stake := &model.VCoinStake{}
	err := database.Conn(ctx, s.db).First(stake, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return stake, nil
}

func (s *ledgerRepoImpl) LockStake(ctx context.Context, id uint64) (*model.VCoinStake, error) {
	stake := &model.VCoinStake{}
	err := database.Conn(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(stake, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return stake, nil
}

func (s *ledgerRepoImpl) UpdateStake(ctx context.Context, stake *model.VCoinStake) error {
	return database.Conn(ctx, s.db).
		Model(&model.VCoinStake{}).
		Where("id = ?", stake.ID).
		Updates(map[string]any{
			"status":       stake.Status,
			"withdrawn_at": stake.WithdrawnAt,
			"updated_at":   time.Now(),
		}).Error
}

func (s *ledgerRepoImpl) GetStakesByUser(ctx context.Context, userID uint64) ([]*model.VCoinStake, error) {
	stakes := make([]*model.VCoinStake, 0)
	err := database.Conn(ctx, s.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&stakes).Error
	if err != nil {
		return nil, err
	}
	return stakes, nil
}

// UnlockDueStakes 将到期的 ACTIVE 锁仓置为 UNLOCKED，资金仍在 staked 中
func (s *ledgerRepoImpl) UnlockDueStakes(ctx context.Context, now time.Time) (int64, error) {
	result := database.Conn(ctx, s.db).
		Model(&model.VCoinStake{}).
		Where("status = ? AND unlock_date <= ?", model.StakeStatusActive, now).
		Updates(map[string]any{
			"status":     model.StakeStatusUnlocked,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// GetEarningsRanking since 之后正向入账合计排行，不含本金返还与平台账户
func (s *ledgerRepoImpl) GetEarningsRanking(ctx context.Context, since time.Time, limit int) ([]*EarningsRow, error) {
	rows := make([]*EarningsRow, 0)
	err := database.Conn(ctx, s.db).
		Model(&model.VCoinTransaction{}).
		Select("user_id, SUM(amount) AS total").
		Where("amount > 0 AND created_at >= ? AND user_id <> ?", since, model.SystemUserID).
		Where("type <> ?", model.TxTypeUnstake).
		Group("user_id").
		Order("total DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
