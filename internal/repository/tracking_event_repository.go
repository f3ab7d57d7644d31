package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"linktrack/internal/model"
)

// TrackingEventRepository 访问事件仓库接口
type TrackingEventRepository interface {
	Create(event *model.TrackingEvent) error
	Update(event *model.TrackingEvent) error
	FindLatestByUniqueID(uniqueID string) (*model.TrackingEvent, error)
	FindLatestByLinkID(linkID uint) (*model.TrackingEvent, error)
	CountByUserSince(userID uint, since time.Time) (clicks int64, blocked int64, err error)
}

// GormTrackingEventRepository 基于GORM的访问事件仓库实现
type GormTrackingEventRepository struct {
	db *gorm.DB
}

// NewTrackingEventRepository 创建访问事件仓库
func NewTrackingEventRepository(db *gorm.DB) TrackingEventRepository {
	return &GormTrackingEventRepository{db: db}
}

// Create 写入访问事件
func (r *GormTrackingEventRepository) Create(event *model.TrackingEvent) error {
	return r.db.Create(event).Error
}

// Update 更新访问事件
func (r *GormTrackingEventRepository) Update(event *model.TrackingEvent) error {
	return r.db.Save(event).Error
}

// FindLatestByUniqueID 根据关联标识查找最新事件
func (r *GormTrackingEventRepository) FindLatestByUniqueID(uniqueID string) (*model.TrackingEvent, error) {
	var event model.TrackingEvent
	result := r.db.Where("unique_id = ?", uniqueID).
		Order("timestamp DESC").
		First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &event, nil
}

// FindLatestByLinkID 查找链接下最新事件
func (r *GormTrackingEventRepository) FindLatestByLinkID(linkID uint) (*model.TrackingEvent, error) {
	var event model.TrackingEvent
	result := r.db.Where("link_id = ?", linkID).
		Order("timestamp DESC").
		First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &event, nil
}

// CountByUserSince 统计用户某时间后的点击与拦截数，用于汇总通知
func (r *GormTrackingEventRepository) CountByUserSince(userID uint, since time.Time) (int64, int64, error) {
	base := r.db.Model(&model.TrackingEvent{}).
		Joins("JOIN links ON links.id = tracking_events.link_id").
		Where("links.user_id = ? AND tracking_events.timestamp > ?", userID, since)

	var clicks int64
	if err := base.Session(&gorm.Session{}).Count(&clicks).Error; err != nil {
		return 0, 0, err
	}

	var blocked int64
	if err := base.Session(&gorm.Session{}).
		Where("tracking_events.status IN ?", []model.EventStatus{model.EventStatusBlocked, model.EventStatusBot}).
		Count(&blocked).Error; err != nil {
		return 0, 0, err
	}

	return clicks, blocked, nil
}
