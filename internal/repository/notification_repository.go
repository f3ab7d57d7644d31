package repository

import (
	"gorm.io/gorm"

	"linktrack/internal/model"
)

// NotificationRepository 通知仓库接口
type NotificationRepository interface {
	Create(notification *model.Notification) error
	FindByUser(userID uint, limit int) ([]*model.Notification, error)
}

// GormNotificationRepository 基于GORM的通知仓库实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 写入通知
func (r *GormNotificationRepository) Create(notification *model.Notification) error {
	return r.db.Create(notification).Error
}

// FindByUser 查询用户最近的通知
func (r *GormNotificationRepository) FindByUser(userID uint, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []*model.Notification
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications)
	if result.Error != nil {
		return nil, result.Error
	}
	return notifications, nil
}
