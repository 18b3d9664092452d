package repository

import (
	"VCoin/internal/model"
	"VCoin/internal/pkg/database"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PostRepo interface {
	GetPostByID(ctx context.Context, id uint64) (*model.Post, error)
	GetPostByIds(ctx context.Context, ids []uint64) ([]*model.Post, error)
	GetPostIDsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]uint64, error)
}

type postRepoImpl struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepo {
	return &postRepoImpl{db: db}
}

func (s *postRepoImpl) GetPostByID(ctx context.Context, id uint64) (*model.Post, error) {
	post := &model.Post{}
	err := database.Conn(ctx, s.db).
		Where("id = ? AND is_deleted = ?", id, false).
		First(post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return post, nil
}

func (s *postRepoImpl) GetPostByIds(ctx context.Context, ids []uint64) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	if len(ids) == 0 {
		return posts, nil
	}
	err := database.Conn(ctx, s.db).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostIDsUpdatedSince 计数在 since 之后变化过的帖子
func (s *postRepoImpl) GetPostIDsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := database.Conn(ctx, s.db).
		Model(&model.Post{}).
		Where("updated_at >= ? AND is_deleted = ?", since, false).
		Order("updated_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
