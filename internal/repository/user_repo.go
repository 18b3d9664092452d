package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserRepo 账号读模型，只读
type UserRepo interface {
	// GetUserByID 连同 UserDetail 一起加载，已注销的账号视为不存在
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
	// GetActiveUserIDsSince since 之后产生过行为的用户
	GetActiveUserIDsSince(ctx context.Context, since time.Time, limit int) ([]uint64, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepoImpl{db: db}
}

func (s *userRepoImpl) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	err := database.Conn(ctx, s.db).
		Preload("UserDetail").
		Where("is_delete = ?", false).
		First(user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *userRepoImpl) GetActiveUserIDsSince(ctx context.Context, since time.Time, limit int) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := database.Conn(ctx, s.db).
		Model(&model.ActivityEvent{}).
		Where("occurred_at >= ?", since).
		Distinct("user_id").
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
