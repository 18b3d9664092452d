package service

import (
	"VCoin/internal/api/config"
	"VCoin/internal/api/dto"
	"VCoin/internal/model"
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/database"
	"VCoin/internal/pkg/metrics"
	"VCoin/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// amountPlaces 账本金额精度
const amountPlaces = 8

// TransferResult 转账结果，Fee = Burned + Treasury + RewardsPool
type TransferResult struct {
	FromTx      *model.VCoinTransaction `json:"fromTx"`
	ToTx        *model.VCoinTransaction `json:"toTx"`
	Amount      decimal.Decimal         `json:"amount"`
	Fee         decimal.Decimal         `json:"fee"`
	NetAmount   decimal.Decimal         `json:"netAmount"`
	Burned      decimal.Decimal         `json:"burned"`
	Treasury    decimal.Decimal         `json:"treasury"`
	RewardsPool decimal.Decimal         `json:"rewardsPool"`
}

// ReconcileReport 流水与余额的核对结果
type ReconcileReport struct {
	UserID      uint64          `json:"userId"`
	Available   decimal.Decimal `json:"available"`
	Staked      decimal.Decimal `json:"staked"`
	TxSum       decimal.Decimal `json:"txSum"`
	HoldingsSum decimal.Decimal `json:"holdingsSum"`
	NetEarned   decimal.Decimal `json:"netEarned"`
	Consistent  bool            `json:"consistent"`
}

type LedgerService interface {
	// Credit 入账：available += amount, earnedTotal += amount
	Credit(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID string) (*model.VCoinTransaction, error)
	// CreditOnce 带幂等键入账，重复时返回 ErrAlreadyCredited
	CreditOnce(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID, idempotencyKey string) (*model.VCoinTransaction, error)
	// Debit 扣款，余额不足返回 ErrInsufficientBalance
	Debit(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID string) (*model.VCoinTransaction, error)
	// Transfer 转账并按比例拆分手续费，feeRate 为负时使用配置费率，超过 1 返回 ErrParamInvalid
	Transfer(ctx context.Context, fromID, toID uint64, amount decimal.Decimal, feeRate decimal.Decimal) (*TransferResult, error)
	GetBalance(ctx context.Context, userID uint64) (*model.VCoinBalance, error)
	GetTransactions(ctx context.Context, userID uint64, page, limit int) ([]*model.VCoinTransaction, int64, error)
	// GetCreditByKey 按幂等键查入账流水，不存在时返回 nil
	GetCreditByKey(ctx context.Context, idempotencyKey string) (*model.VCoinTransaction, error)
	// ListCredits 某来源下关联同一实体的全部流水
	ListCredits(ctx context.Context, source, relatedID string) ([]*model.VCoinTransaction, error)
	Reconcile(ctx context.Context, userID uint64) (*ReconcileReport, error)
}

type ledgerServiceImpl struct {
	cfg        config.LedgerConfig
	db         *gorm.DB
	ledgerRepo repository.LedgerRepo
	publisher  EventPublisher
}

// NewLedgerService cfg 须通过 LedgerConfig.Validate，否则 panic
func NewLedgerService(cfg config.LedgerConfig, db *gorm.DB, ledgerRepo repository.LedgerRepo, publisher EventPublisher) LedgerService {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &ledgerServiceImpl{
		cfg:        cfg,
		db:         db,
		ledgerRepo: ledgerRepo,
		publisher:  publisher,
	}
}

func (s *ledgerServiceImpl) Credit(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID string) (*model.VCoinTransaction, error) {
	return s.credit(ctx, userID, amount, source, relatedID, nil)
}

func (s *ledgerServiceImpl) CreditOnce(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID, idempotencyKey string) (*model.VCoinTransaction, error) {
	if idempotencyKey == "" {
		return nil, ErrParamInvalid
	}
	return s.credit(ctx, userID, amount, source, relatedID, &idempotencyKey)
}

func (s *ledgerServiceImpl) credit(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID string, key *string) (*model.VCoinTransaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	amount = amount.Truncate(amountPlaces)

	var tx *model.VCoinTransaction
	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		balance, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}

		tx = newTransaction(userID, amount, model.TxTypeCredit, source, relatedID)
		tx.IdempotencyKey = key
		if err = s.ledgerRepo.CreateTransaction(ctx, tx); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCredited
			}
			return err
		}

		balance.Available = balance.Available.Add(amount)
		balance.EarnedTotal = balance.EarnedTotal.Add(amount)
		return s.ledgerRepo.UpdateBalance(ctx, balance)
	})
	if err != nil {
		metrics.LedgerOps.WithLabelValues("credit", "fail").Inc()
		return nil, err
	}

	metrics.LedgerOps.WithLabelValues("credit", "ok").Inc()
	s.publishCredit(ctx, tx)
	return tx, nil
}

func (s *ledgerServiceImpl) Debit(ctx context.Context, userID uint64, amount decimal.Decimal, source, relatedID string) (*model.VCoinTransaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	amount = amount.Truncate(amountPlaces)

	var tx *model.VCoinTransaction
	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		balance, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if balance.Available.LessThan(amount) {
			return ErrInsufficientBalance
		}

		tx = newTransaction(userID, amount.Neg(), model.TxTypeDebit, source, relatedID)
		if err = s.ledgerRepo.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		balance.Available = balance.Available.Sub(amount)
		balance.SpentTotal = balance.SpentTotal.Add(amount)
		return s.ledgerRepo.UpdateBalance(ctx, balance)
	})
	if err != nil {
		metrics.LedgerOps.WithLabelValues("debit", "fail").Inc()
		return nil, err
	}

	metrics.LedgerOps.WithLabelValues("debit", "ok").Inc()
	return tx, nil
}

func (s *ledgerServiceImpl) Transfer(ctx context.Context, fromID, toID uint64, amount decimal.Decimal, feeRate decimal.Decimal) (*TransferResult, error) {
	if fromID == toID {
		return nil, ErrSelfTransfer
	}
	if fromID == model.SystemUserID || toID == model.SystemUserID {
		return nil, ErrParamInvalid
	}
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if feeRate.IsNegative() {
		feeRate = decimal.NewFromFloat(s.cfg.TransferFeeRate)
	}
	if feeRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrParamInvalid
	}

	amount = amount.Truncate(amountPlaces)
	result := s.splitFee(amount, feeRate)

	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		// 固定加锁顺序
		first, second := fromID, toID
		if first > second {
			first, second = second, first
		}
		locked := make(map[uint64]*model.VCoinBalance, 2)
		for _, id := range []uint64{first, second} {
			balance, err := s.ledgerRepo.LockBalance(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = balance
		}

		sender, recipient := locked[fromID], locked[toID]
		if sender.Available.LessThan(amount) {
			return ErrInsufficientBalance
		}

		relatedID := strconv.FormatUint(fromID, 10) + "->" + strconv.FormatUint(toID, 10)
		result.FromTx = newTransaction(fromID, amount.Neg(), model.TxTypeTransferOut, model.SourceTransfer, relatedID)
		if err := s.ledgerRepo.CreateTransaction(ctx, result.FromTx); err != nil {
			return err
		}
		transferRef := strconv.FormatUint(result.FromTx.ID, 10)
		result.ToTx = newTransaction(toID, result.NetAmount, model.TxTypeTransferIn, model.SourceTransfer, transferRef)
		if err := s.ledgerRepo.CreateTransaction(ctx, result.ToTx); err != nil {
			return err
		}

		shares := []struct {
			txType string
			amount decimal.Decimal
		}{
			{model.TxTypeBurn, result.Burned},
			{model.TxTypeTreasury, result.Treasury},
			{model.TxTypeRewardsPool, result.RewardsPool},
		}
		for _, share := range shares {
			if share.amount.IsZero() {
				continue
			}
			entry := newTransaction(model.SystemUserID, share.amount, share.txType, model.SourceTransfer, transferRef)
			if err := s.ledgerRepo.CreateTransaction(ctx, entry); err != nil {
				return err
			}
			if err := s.ledgerRepo.AddSystemBalance(ctx, share.txType, share.amount); err != nil {
				return err
			}
		}

		sender.Available = sender.Available.Sub(amount)
		sender.SpentTotal = sender.SpentTotal.Add(amount)
		if err := s.ledgerRepo.UpdateBalance(ctx, sender); err != nil {
			return err
		}
		recipient.Available = recipient.Available.Add(result.NetAmount)
		recipient.EarnedTotal = recipient.EarnedTotal.Add(result.NetAmount)
		return s.ledgerRepo.UpdateBalance(ctx, recipient)
	})
	if err != nil {
		metrics.LedgerOps.WithLabelValues("transfer", "fail").Inc()
		return nil, err
	}

	metrics.LedgerOps.WithLabelValues("transfer", "ok").Inc()
	if result.NetAmount.IsPositive() {
		s.publishCredit(ctx, result.ToTx)
	}
	return result, nil
}

// splitFee 手续费按比例拆分，尾差计入奖励池
func (s *ledgerServiceImpl) splitFee(amount, feeRate decimal.Decimal) *TransferResult {
	fee := amount.Mul(feeRate).Truncate(amountPlaces)
	burned := fee.Mul(decimal.NewFromFloat(s.cfg.BurnShare)).Truncate(amountPlaces)
	treasury := fee.Mul(decimal.NewFromFloat(s.cfg.TreasuryShare)).Truncate(amountPlaces)
	return &TransferResult{
		Amount:      amount,
		Fee:         fee,
		NetAmount:   amount.Sub(fee),
		Burned:      burned,
		Treasury:    treasury,
		RewardsPool: fee.Sub(burned).Sub(treasury),
	}
}

func (s *ledgerServiceImpl) GetBalance(ctx context.Context, userID uint64) (*model.VCoinBalance, error) {
	balance, err := s.ledgerRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &model.VCoinBalance{
			UserID:      userID,
			Available:   decimal.Zero,
			Staked:      decimal.Zero,
			EarnedTotal: decimal.Zero,
			SpentTotal:  decimal.Zero,
		}, nil
	}
	return balance, nil
}

func (s *ledgerServiceImpl) GetTransactions(ctx context.Context, userID uint64, page, limit int) ([]*model.VCoinTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = consts.DefaultPageSize
	}
	return s.ledgerRepo.GetTransactions(ctx, userID, (page-1)*limit, limit)
}

func (s *ledgerServiceImpl) GetCreditByKey(ctx context.Context, idempotencyKey string) (*model.VCoinTransaction, error) {
	return s.ledgerRepo.GetTransactionByKey(ctx, idempotencyKey)
}

func (s *ledgerServiceImpl) ListCredits(ctx context.Context, source, relatedID string) ([]*model.VCoinTransaction, error) {
	return s.ledgerRepo.GetTransactionsBySource(ctx, source, relatedID)
}

func (s *ledgerServiceImpl) Reconcile(ctx context.Context, userID uint64) (*ReconcileReport, error) {
	report := &ReconcileReport{UserID: userID}
	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		balance, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		report.Available = balance.Available
		report.Staked = balance.Staked
		report.NetEarned = balance.EarnedTotal.Sub(balance.SpentTotal)

		if report.TxSum, err = s.ledgerRepo.SumTransactions(ctx, userID); err != nil {
			return err
		}
		report.HoldingsSum, err = s.ledgerRepo.SumTransactions(ctx, userID, model.TxTypeStake, model.TxTypeUnstake)
		return err
	})
	if err != nil {
		return nil, err
	}

	holdings := report.Available.Add(report.Staked)
	report.Consistent = report.TxSum.Equal(report.Available) &&
		report.HoldingsSum.Equal(holdings) &&
		report.NetEarned.Equal(holdings)
	if !report.Consistent {
		log.WarnContext(ctx, "ledger reconcile mismatch",
			"userID", userID,
			"available", report.Available.String(),
			"staked", report.Staked.String(),
			"txSum", report.TxSum.String(),
			"holdingsSum", report.HoldingsSum.String())
	}
	return report, nil
}

func (s *ledgerServiceImpl) publishCredit(ctx context.Context, tx *model.VCoinTransaction) {
	event := &dto.CreditEvent{
		UserID:    tx.UserID,
		Amount:    tx.Amount,
		Source:    tx.Source,
		RelatedID: tx.RelatedEntityID,
		TxID:      tx.ID,
	}
	if err := s.publisher.PublishCredit(ctx, event); err != nil {
		log.WarnContext(ctx, "publish credit event error", "userID", tx.UserID, "txID", tx.ID, "err", err)
	}
}

func newTransaction(userID uint64, amount decimal.Decimal, txType, source, relatedID string) *model.VCoinTransaction {
	return &model.VCoinTransaction{
		UserID:          userID,
		Amount:          amount,
		Type:            txType,
		Source:          source,
		RelatedEntityID: relatedID,
		Status:          model.TxStatusCompleted,
		CreatedAt:       time.Now(),
	}
}
