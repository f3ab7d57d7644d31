package service

import (
	"gorm.io/gorm"

	"linktrack/config"
	"linktrack/internal/antibot"
	"linktrack/internal/cache"
	"linktrack/internal/detector/geolocation"
	"linktrack/internal/eventbus"
	"linktrack/internal/repository"
	"linktrack/internal/service/notify"
)

// Services 服务集合
type Services struct {
	Links         repository.LinkRepository
	Events        repository.TrackingEventRepository
	Notifications repository.NotificationRepository
	Engine        *antibot.Engine
	Geo           geolocation.Resolver
	Notifier      *notify.Service
	Bus           eventbus.EventBus
	Track         *TrackService
	Summary       *SummaryService
}

// NewServices 初始化所有服务
func NewServices(cfg *config.Config, db *gorm.DB, redisCache *cache.RedisCache) *Services {
	links := repository.NewLinkRepository(db)
	events := repository.NewTrackingEventRepository(db)
	notifications := repository.NewNotificationRepository(db)

	engine := antibot.NewEngine(
		antibot.NewScoringState(),
		cfg.AntiBot.BotScoreThreshold,
		cfg.AntiBot.BlacklistScoreThreshold,
		cfg.AntiBot.RapidRequestsPerMinute,
	)

	geo := geolocation.NewIPAPIResolver(cfg.Geo.Endpoint, cfg.Geo.Timeout(), redisCache, cfg.Geo.CacheTTL())
	notifier := notify.NewService(notifications, cfg.Telegram)
	bus := eventbus.NewEventBus()

	track := NewTrackService(links, events, geo, engine, notifier, bus, redisCache, cfg.BaseURL)
	summary := NewSummaryService(links, events, notifier)

	return &Services{
		Links:         links,
		Events:        events,
		Notifications: notifications,
		Engine:        engine,
		Geo:           geo,
		Notifier:      notifier,
		Bus:           bus,
		Track:         track,
		Summary:       summary,
	}
}
