package service

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"linktrack/internal/model"
	"linktrack/internal/repository"
	"linktrack/internal/service/notify"
)

// SummaryService 汇总通知服务，由定时任务触发
type SummaryService struct {
	links    repository.LinkRepository
	events   repository.TrackingEventRepository
	notifier notify.Notifier
}

// NewSummaryService 创建汇总服务
func NewSummaryService(links repository.LinkRepository, events repository.TrackingEventRepository, notifier notify.Notifier) *SummaryService {
	return &SummaryService{links: links, events: events, notifier: notifier}
}

// SendDailySummary 给每个有链接的用户发送过去24小时的点击与拦截统计
func (s *SummaryService) SendDailySummary() {
	userIDs, err := s.links.DistinctUserIDs()
	if err != nil {
		log.Errorf("failed to list users for daily summary: %v", err)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	for _, userID := range userIDs {
		clicks, blocked, err := s.events.CountByUserSince(userID, since)
		if err != nil {
			log.Warnf("failed to count events for user %d: %v", userID, err)
			continue
		}
		if clicks == 0 && blocked == 0 {
			continue
		}
		s.notifier.Notify(userID, "Daily summary",
			fmt.Sprintf("Last 24h: %d visits, %d blocked", clicks, blocked),
			model.NotificationCategorySummary, 1)
	}
}
