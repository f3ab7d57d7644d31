package model

import (
	"time"
)

// NotificationCategory 通知类别
type NotificationCategory string

const (
	NotificationCategoryClick    NotificationCategory = "click"
	NotificationCategorySecurity NotificationCategory = "security"
	NotificationCategorySummary  NotificationCategory = "summary"
)

// Notification 站内通知，每次告警写入一行
type Notification struct {
	ID        uint                 `json:"id"`
	UserID    uint                 `json:"user_id" gorm:"index"`
	Title     string               `json:"title"`
	Message   string               `json:"message" gorm:"type:text"`
	Category  NotificationCategory `json:"category"`
	Priority  int                  `json:"priority"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}
