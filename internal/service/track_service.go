package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"linktrack/internal/antibot"
	"linktrack/internal/cache"
	"linktrack/internal/detector/geolocation"
	"linktrack/internal/eventbus"
	"linktrack/internal/model"
	"linktrack/internal/repository"
	"linktrack/internal/service/notify"
	"linktrack/internal/util"
)

// ErrLinkNotFound 短码不存在或链接不可用
var ErrLinkNotFound = errors.New("link not found")

// ErrEventNotFound 找不到可更新的访问事件
var ErrEventNotFound = errors.New("tracking event not found")

// 链接查询缓存TTL
const linkCacheTTL = 5 * time.Minute

// ClickResult 点击处理结果
type ClickResult struct {
	Blocked     bool
	Reason      string
	RedirectURL string
	UniqueID    string
	Event       *model.TrackingEvent
}

// TrackService 访问编排服务
// 负责单次访问的完整流程：解析、判定、落库、通知、跳转决策
type TrackService struct {
	links    repository.LinkRepository
	events   repository.TrackingEventRepository
	geo      geolocation.Resolver
	engine   *antibot.Engine
	notifier notify.Notifier
	bus      eventbus.EventBus
	cache    *cache.RedisCache
	baseURL  string
}

// NewTrackService 创建访问编排服务
func NewTrackService(
	links repository.LinkRepository,
	events repository.TrackingEventRepository,
	geo geolocation.Resolver,
	engine *antibot.Engine,
	notifier notify.Notifier,
	bus eventbus.EventBus,
	redisCache *cache.RedisCache,
	baseURL string,
) *TrackService {
	return &TrackService{
		links:    links,
		events:   events,
		geo:      geo,
		engine:   engine,
		notifier: notifier,
		bus:      bus,
		cache:    redisCache,
		baseURL:  baseURL,
	}
}

// shortURL 拼出对外的短链接地址，用于通知展示
func (s *TrackService) shortURL(code string) string {
	if s.baseURL == "" {
		return "/t/" + code
	}
	return strings.TrimRight(s.baseURL, "/") + "/t/" + code
}

// getLink 查找链接，优先命中缓存
func (s *TrackService) getLink(ctx context.Context, code string) (*model.Link, error) {
	cacheKey := "link:" + code
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		var link model.Link
		if err := json.Unmarshal([]byte(cached), &link); err == nil {
			return &link, nil
		}
	}

	link, err := s.links.FindByShortCode(code)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(link); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(data), linkCacheTTL); err != nil {
			log.Debugf("link cache write failed for %s: %v", code, err)
		}
	}

	return link, nil
}

// resolve 执行地理位置与威胁评估，两者互不依赖
func (s *TrackService) resolve(ctx context.Context, req antibot.VisitRequest) (*geolocation.Location, antibot.Assessment) {
	loc := s.geo.Resolve(ctx, req.IPAddress)
	assessment := s.engine.Analyze(req)
	return loc, assessment
}

// buildEvent 由解析结果组装访问事件
func buildEvent(link *model.Link, req antibot.VisitRequest, loc *geolocation.Location, assessment antibot.Assessment, uniqueID string) *model.TrackingEvent {
	return &model.TrackingEvent{
		LinkID:          link.ID,
		Timestamp:       req.Timestamp,
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
		Referrer:        req.Referrer,
		Country:         loc.Country,
		Region:          loc.Region,
		City:            loc.City,
		ZipCode:         loc.ZipCode,
		ISP:             loc.ISP,
		Organization:    loc.Organization,
		ASNumber:        loc.ASNumber,
		Timezone:        loc.Timezone,
		Latitude:        loc.Latitude,
		Longitude:       loc.Longitude,
		DeviceType:      assessment.Device.DeviceType,
		Browser:         assessment.Device.Browser,
		BrowserVersion:  assessment.Device.BrowserVersion,
		OS:              assessment.Device.OS,
		OSVersion:       assessment.Device.OSVersion,
		IsBot:           assessment.IsBot,
		ThreatScore:     assessment.ThreatScore,
		BotType:         string(assessment.BotType),
		UniqueID:        uniqueID,
		SessionDuration: assessment.Behavior.SessionDuration,
		PageViews:       assessment.Behavior.PageViews,
	}
}

// HandleClick 处理点击访问
// 判定结果决定响应：放行返回跳转地址，拦截返回原因；事件写入失败不影响响应
func (s *TrackService) HandleClick(ctx context.Context, shortCode string, req antibot.VisitRequest, uniqueID string, skipPreview bool) (*ClickResult, error) {
	link, err := s.getLink(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		// 数据库故障不能伪装成短码不存在
		return nil, err
	}
	if !link.IsActive() {
		return nil, ErrLinkNotFound
	}

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	if uniqueID == "" {
		uniqueID = util.GenerateUniqueID()
	}

	// 地理位置、UA、威胁评估相互独立，访问规则在三者齐备后执行
	loc, assessment := s.resolve(ctx, req)
	decision := antibot.EvaluateAccess(antibot.RuleInput{
		Link:       link,
		Location:   loc,
		Assessment: &assessment,
		Referrer:   req.Referrer,
	})

	event := buildEvent(link, req, loc, assessment, uniqueID)
	if decision.Blocked {
		event.BlockedReason = decision.Reason
		if decision.Rule == antibot.RuleBotBlocking {
			event.Status = model.EventStatusBot
		} else {
			event.Status = model.EventStatusBlocked
		}
	} else {
		event.Status = model.EventStatusRedirected
		event.Redirected = true
	}

	s.persistEvent(event)
	s.updateCounters(link, decision, assessment)
	s.dispatchVisit(link, event, decision)

	result := &ClickResult{
		Blocked:  decision.Blocked,
		Reason:   decision.Reason,
		UniqueID: uniqueID,
		Event:    event,
	}
	if !decision.Blocked {
		result.RedirectURL = s.redirectURL(link, uniqueID, skipPreview)
	}
	return result, nil
}

// HandlePixel 处理像素访问
// 永不失败：无论链接是否存在、是否被拦截，调用方都返回像素图
func (s *TrackService) HandlePixel(ctx context.Context, shortCode string, req antibot.VisitRequest, capturedEmail, uniqueID string) {
	link, err := s.getLink(ctx, shortCode)
	if err != nil {
		// 像素通道不暴露短码是否有效，真实故障只记录
		if !errors.Is(err, repository.ErrNotFound) {
			log.Errorf("pixel link lookup failed for %s: %v", shortCode, err)
		}
		return
	}

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	loc, assessment := s.resolve(ctx, req)
	decision := antibot.EvaluateAccess(antibot.RuleInput{
		Link:       link,
		Location:   loc,
		Assessment: &assessment,
		Referrer:   req.Referrer,
	})

	event := buildEvent(link, req, loc, assessment, uniqueID)
	event.EmailOpened = true
	if link.CaptureEmail {
		event.CapturedEmail = capturedEmail
	}
	if decision.Blocked {
		event.Status = model.EventStatusBlocked
		event.BlockedReason = decision.Reason
	} else {
		event.Status = model.EventStatusEmailOpened
	}

	s.persistEvent(event)
	s.dispatchVisit(link, event, decision)
}

// PageLanded 落地页回调，优先按关联标识查找，其次按链接查找
// 幂等：重复调用只会保持on_page为真
func (s *TrackService) PageLanded(uniqueID string, linkID uint) error {
	var event *model.TrackingEvent
	var err error

	if uniqueID != "" {
		event, err = s.events.FindLatestByUniqueID(uniqueID)
	}
	if event == nil && linkID != 0 {
		event, err = s.events.FindLatestByLinkID(linkID)
	}
	if event == nil {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return ErrEventNotFound
	}

	event.Status = model.EventStatusOnPage
	event.OnPage = true
	return s.events.Update(event)
}

// CaptureLead 将访客提交的邮箱附加到链接最近的访问事件上
func (s *TrackService) CaptureLead(linkID uint, email string) error {
	event, err := s.events.FindLatestByLinkID(linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	event.CapturedEmail = email
	event.OnPage = true
	return s.events.Update(event)
}

// persistEvent 写入访问事件，失败只记录，响应已独立决定
func (s *TrackService) persistEvent(event *model.TrackingEvent) {
	if err := s.events.Create(event); err != nil {
		log.Errorf("failed to record tracking event for link %d: %v", event.LinkID, err)
	}
}

// updateCounters 更新链接计数器
func (s *TrackService) updateCounters(link *model.Link, decision antibot.Decision, assessment antibot.Assessment) {
	if err := s.links.IncrTotalClicks(link.ID); err != nil {
		log.Warnf("failed to increment clicks for link %d: %v", link.ID, err)
	}
	if decision.Blocked {
		if err := s.links.IncrBlockedAttempts(link.ID); err != nil {
			log.Warnf("failed to increment blocked attempts for link %d: %v", link.ID, err)
		}
	} else if !assessment.IsBot {
		if err := s.links.IncrRealVisitors(link.ID); err != nil {
			log.Warnf("failed to increment real visitors for link %d: %v", link.ID, err)
		}
	}
}

// dispatchVisit 发出访问通知与实时事件，不阻塞响应
func (s *TrackService) dispatchVisit(link *model.Link, event *model.TrackingEvent, decision antibot.Decision) {
	go func() {
		if decision.Blocked && decision.Rule == antibot.RuleBotBlocking {
			s.notifier.Notify(link.UserID, "Bot blocked",
				fmt.Sprintf("Campaign %q blocked a bot visit from %s (%s, score %d)",
					link.CampaignName, event.IPAddress, event.BlockedReason, event.ThreatScore),
				model.NotificationCategorySecurity, 2)
		} else if decision.Blocked {
			// 地理定向或社交来源拦截，同样走安全类通知
			s.notifier.Notify(link.UserID, "Visit blocked",
				fmt.Sprintf("Campaign %q blocked a visit from %s (%s)",
					link.CampaignName, event.IPAddress, event.BlockedReason),
				model.NotificationCategorySecurity, 2)
		} else if !decision.Blocked && event.Status == model.EventStatusRedirected {
			s.notifier.Notify(link.UserID, "New click",
				fmt.Sprintf("Campaign %q (%s) got a visit from %s, %s (%s)",
					link.CampaignName, s.shortURL(link.ShortCode), event.City, event.Country, event.IPAddress),
				model.NotificationCategoryClick, 1)
		}
	}()

	if s.bus != nil {
		_ = s.bus.Publish(eventbus.NewBaseEvent(eventbus.EventTypeVisit, map[string]interface{}{
			"link_id":      event.LinkID,
			"short_code":   link.ShortCode,
			"status":       string(event.Status),
			"ip_address":   event.IPAddress,
			"country":      event.Country,
			"city":         event.City,
			"is_bot":       event.IsBot,
			"threat_score": event.ThreatScore,
			"reason":       event.BlockedReason,
			"unique_id":    event.UniqueID,
		}))
	}
}

// redirectURL 计算跳转地址
// 配置了预览页且未显式跳过时先经预览页，否则走搜索引擎间接跳转
func (s *TrackService) redirectURL(link *model.Link, uniqueID string, skipPreview bool) string {
	if link.PreviewTemplateURL != "" && !skipPreview {
		return fmt.Sprintf("%s?target=%s&uid=%s",
			link.PreviewTemplateURL, url.QueryEscape(link.TargetURL), url.QueryEscape(uniqueID))
	}
	return indirectionURL(link.TargetURL)
}

// indirectionURL 构造搜索引擎间接跳转地址，避免目标站看到原始来源
func indirectionURL(target string) string {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return target
	}
	return fmt.Sprintf("https://www.google.com/search?q=site%%3A%s&btnI=I&safe=active&url=%s",
		url.QueryEscape(parsed.Host), url.QueryEscape(target))
}
