package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BotFlagRepo interface {
	CreateFlags(ctx context.Context, flags []*model.BotDetectionFlag) (int64, error)
	GetFlagByID(ctx context.Context, id uint64) (*model.BotDetectionFlag, error)
	GetActiveFlagsByUser(ctx context.Context, userID uint64) ([]*model.BotDetectionFlag, error)
	ResolveFlag(ctx context.Context, id uint64, resolverID uint64, at time.Time) (int64, error)
}

type botFlagRepoImpl struct {
	db *gorm.DB
}

func NewBotFlagRepo(db *gorm.DB) BotFlagRepo {
	return &botFlagRepoImpl{db: db}
}

// CreateFlags 同一窗口已记录的标记忽略，返回新写入条数
func (s *botFlagRepoImpl) CreateFlags(ctx context.Context, flags []*model.BotDetectionFlag) (int64, error) {
	if len(flags) == 0 {
		return 0, nil
	}
	result := database.Conn(ctx, s.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&flags)
	return result.RowsAffected, result.Error
}

func (s *botFlagRepoImpl) GetFlagByID(ctx context.Context, id uint64) (*model.BotDetectionFlag, error) {
	flag := &model.BotDetectionFlag{}
	err := database.Conn(ctx, s.db).First(flag, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return flag, nil
}

func (s *botFlagRepoImpl) GetActiveFlagsByUser(ctx context.Context, userID uint64) ([]*model.BotDetectionFlag, error) {
	flags := make([]*model.BotDetectionFlag, 0)
	err := database.Conn(ctx, s.db).
		Where("user_id = ? AND status = ?", userID, model.FlagStatusActive).
		Order("flagged_at DESC").
		Find(&flags).Error
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// ResolveFlag 仅处理 ACTIVE 状态的标记，返回受影响行数
func (s *botFlagRepoImpl) ResolveFlag(ctx context.Context, id uint64, resolverID uint64, at time.Time) (int64, error) {
	result := database.Conn(ctx, s.db).
		Model(&model.BotDetectionFlag{}).
		Where("id = ? AND status = ?", id, model.FlagStatusActive).
		Updates(map[string]any{
			"status":      model.FlagStatusResolved,
			"resolved_at": at,
			"resolved_by": resolverID,
		})
	return result.RowsAffected, result.Error
}
