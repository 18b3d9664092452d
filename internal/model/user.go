package model

import (
	"time"
)

// User 账号读模型，注册/登录由账号服务负责
type User struct {
	ID        uint64 `gorm:"primaryKey"`
	IsBan     bool   `gorm:"not null;default:false"`
	IsDelete  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserDetail UserDetail `gorm:"foreignKey:UserID;references:ID"`
}

func (User) TableName() string {
	return "users"
}
