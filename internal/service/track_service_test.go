package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linktrack/internal/antibot"
	"linktrack/internal/cache"
	"linktrack/internal/detector/geolocation"
	"linktrack/internal/eventbus"
	"linktrack/internal/model"
	"linktrack/internal/repository"
)

// stubResolver 返回固定位置，避免测试访问外部服务
type stubResolver struct {
	loc *geolocation.Location
}

func (r *stubResolver) Resolve(_ context.Context, _ string) *geolocation.Location {
	if r.loc == nil {
		return geolocation.UnknownLocation()
	}
	return r.loc
}

// recordingNotifier 记录通知调用，需要并发安全
type recordingNotifier struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (n *recordingNotifier) Notify(_ uint, title, message string, _ model.NotificationCategory, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) hasTitle(title string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, t := range n.titles {
		if t == title {
			return true
		}
	}
	return false
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Link{}, &model.TrackingEvent{}, &model.Notification{}))
	return db
}

func newTestTrackService(t *testing.T, db *gorm.DB, loc *geolocation.Location) (*TrackService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := NewTrackService(
		repository.NewLinkRepository(db),
		repository.NewTrackingEventRepository(db),
		&stubResolver{loc: loc},
		antibot.NewEngine(antibot.NewScoringState(), 70, 80, 10),
		notifier,
		eventbus.NewEventBus(),
		cache.NewRedisCache(""),
		"https://t.example.com",
	)
	return svc, notifier
}

func usLoc() *geolocation.Location {
	return &geolocation.Location{Country: "United States", Region: "California", City: "Los Angeles"}
}

func browserRequest(ip string) antibot.VisitRequest {
	return antibot.VisitRequest{
		IPAddress: ip,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml",
			"Accept-Language": "en-US,en;q=0.9",
			"Accept-Encoding": "gzip, deflate, br",
			"Connection":      "keep-alive",
		},
		Timestamp: time.Now(),
	}
}

func createLink(t *testing.T, db *gorm.DB, link *model.Link) *model.Link {
	t.Helper()
	if link.TargetURL == "" {
		link.TargetURL = "https://example.com/offer"
	}
	if link.ShortCode == "" {
		link.ShortCode = "abc12345"
	}
	link.UserID = 1
	require.NoError(t, db.Create(link).Error)
	return link
}

func TestHandleClickAllowed(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{})

	result, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.10"), "", false)
	require.NoError(t, err)

	assert.False(t, result.Blocked)
	assert.NotEmpty(t, result.UniqueID)
	assert.Contains(t, result.RedirectURL, "google.com/search")
	assert.Contains(t, result.RedirectURL, "example.com")

	// 事件落库
	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.Equal(t, model.EventStatusRedirected, event.Status)
	assert.True(t, event.Redirected)
	assert.Equal(t, "United States", event.Country)
	assert.Equal(t, "Chrome", event.Browser)
	assert.False(t, event.IsBot)

	// 计数器更新
	var reloaded model.Link
	require.NoError(t, db.First(&reloaded, link.ID).Error)
	assert.Equal(t, int64(1), reloaded.TotalClicks)
	assert.Equal(t, int64(1), reloaded.RealVisitors)
	assert.Equal(t, int64(0), reloaded.BlockedAttempts)
}

func TestHandleClickBotBlocked(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{BotBlockingEnabled: true})

	req := antibot.VisitRequest{
		IPAddress: "203.0.113.20",
		UserAgent: "python-requests/2.31.0",
		Headers:   map[string]string{"Accept": "*/*"},
		Timestamp: time.Now(),
	}
	result, err := svc.HandleClick(context.Background(), link.ShortCode, req, "", false)
	require.NoError(t, err)

	assert.True(t, result.Blocked)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, result.RedirectURL)

	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.Equal(t, model.EventStatusBot, event.Status)
	assert.True(t, event.IsBot)
	assert.NotEmpty(t, event.BlockedReason)

	var reloaded model.Link
	require.NoError(t, db.First(&reloaded, link.ID).Error)
	assert.Equal(t, int64(1), reloaded.TotalClicks)
	assert.Equal(t, int64(0), reloaded.RealVisitors)
	assert.Equal(t, int64(1), reloaded.BlockedAttempts)
}

func TestHandleClickGeoBlocked(t *testing.T) {
	db := openTestDB(t)
	loc := &geolocation.Location{Country: "Russia", Region: "Moscow", City: "Moscow"}
	svc, notifier := newTestTrackService(t, db, loc)
	link := createLink(t, db, &model.Link{
		GeoTargetingEnabled: true,
		GeoTargetingType:    model.GeoTargetingBlock,
		BlockedCountries:    model.StringList{"Russia"},
	})

	result, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.30"), "", false)
	require.NoError(t, err)

	assert.True(t, result.Blocked)
	assert.Equal(t, antibot.ReasonCountryBlocked, result.Reason)

	// 地理拦截记为Blocked而不是Bot
	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.Equal(t, model.EventStatusBlocked, event.Status)

	// 非机器人拦截同样产生一条安全通知
	require.Eventually(t, func() bool {
		return notifier.hasTitle("Visit blocked")
	}, time.Second, 10*time.Millisecond)
}

func TestHandleClickUnknownCode(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())

	_, err := svc.HandleClick(context.Background(), "missing1", browserRequest("203.0.113.40"), "", false)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestHandleClickDatabaseFailure(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())

	// 连接关闭后查询报错，不能伪装成短码不存在
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.HandleClick(context.Background(), "abc12345", browserRequest("203.0.113.51"), "", false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLinkNotFound)
}

func TestHandleClickPausedLink(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{Status: model.LinkStatusPaused})

	_, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.50"), "", false)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestHandleClickPreviewURL(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{PreviewTemplateURL: "https://preview.example.com/landing"})

	result, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.60"), "uid12345", false)
	require.NoError(t, err)
	assert.Contains(t, result.RedirectURL, "https://preview.example.com/landing?target=")
	assert.Contains(t, result.RedirectURL, "uid=uid12345")

	// 显式跳过预览时直接走间接跳转
	result, err = svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.61"), "uid12345", true)
	require.NoError(t, err)
	assert.Contains(t, result.RedirectURL, "google.com/search")
}

func TestHandlePixelUnknownCodeSilent(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())

	// 未知短码不报错也不落库
	svc.HandlePixel(context.Background(), "missing1", browserRequest("203.0.113.70"), "", "uid1")

	var count int64
	require.NoError(t, db.Model(&model.TrackingEvent{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestHandlePixelEmailCapture(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{CaptureEmail: true})

	svc.HandlePixel(context.Background(), link.ShortCode, browserRequest("203.0.113.80"), "user@example.com", "uid2")

	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.Equal(t, model.EventStatusEmailOpened, event.Status)
	assert.True(t, event.EmailOpened)
	assert.Equal(t, "user@example.com", event.CapturedEmail)
}

func TestHandlePixelEmailCaptureDisabled(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{CaptureEmail: false})

	svc.HandlePixel(context.Background(), link.ShortCode, browserRequest("203.0.113.90"), "user@example.com", "uid3")

	// 未开启采集时丢弃邮箱参数
	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.Empty(t, event.CapturedEmail)
	assert.True(t, event.EmailOpened)
}

func TestPageLanded(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{})

	result, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.100"), "", false)
	require.NoError(t, err)

	require.NoError(t, svc.PageLanded(result.UniqueID, 0))

	var event model.TrackingEvent
	require.NoError(t, db.Where("unique_id = ?", result.UniqueID).First(&event).Error)
	assert.Equal(t, model.EventStatusOnPage, event.Status)
	assert.True(t, event.OnPage)

	// 重复上报保持on_page
	require.NoError(t, svc.PageLanded(result.UniqueID, 0))
	require.NoError(t, db.Where("unique_id = ?", result.UniqueID).First(&event).Error)
	assert.True(t, event.OnPage)
}

func TestPageLandedByLinkFallback(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{})

	_, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.110"), "", false)
	require.NoError(t, err)

	// 未带关联标识时用链接兜底
	require.NoError(t, svc.PageLanded("", link.ID))

	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.True(t, event.OnPage)
}

func TestPageLandedNotFound(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())

	assert.ErrorIs(t, svc.PageLanded("nope", 0), ErrEventNotFound)
	assert.ErrorIs(t, svc.PageLanded("", 999), ErrEventNotFound)
}

func TestCaptureLead(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestTrackService(t, db, usLoc())
	link := createLink(t, db, &model.Link{})

	_, err := svc.HandleClick(context.Background(), link.ShortCode, browserRequest("203.0.113.120"), "", false)
	require.NoError(t, err)

	require.NoError(t, svc.CaptureLead(link.ID, "lead@example.com"))

	var event model.TrackingEvent
	require.NoError(t, db.Where("link_id = ?", link.ID).First(&event).Error)
	assert.Equal(t, "lead@example.com", event.CapturedEmail)
	assert.True(t, event.OnPage)

	assert.ErrorIs(t, svc.CaptureLead(999, "x@example.com"), ErrEventNotFound)
}

func TestIndirectionURL(t *testing.T) {
	t.Run("正常目标地址", func(t *testing.T) {
		got := indirectionURL("https://example.com/offer?a=1")
		assert.Contains(t, got, "https://www.google.com/search?q=site%3Aexample.com")
		assert.Contains(t, got, "url=https%3A%2F%2Fexample.com%2Foffer%3Fa%3D1")
	})

	t.Run("无法解析时原样返回", func(t *testing.T) {
		assert.Equal(t, "not a url", indirectionURL("not a url"))
	})
}
