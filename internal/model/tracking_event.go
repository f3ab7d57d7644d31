package model

import (
	"time"
)

// EventStatus 访问事件状态
type EventStatus string

const (
	EventStatusOpen        EventStatus = "Open"         // 点击已接收
	EventStatusRedirected  EventStatus = "Redirected"   // 已跳转到目标地址
	EventStatusBlocked     EventStatus = "Blocked"      // 被访问规则拦截
	EventStatusBot         EventStatus = "Bot"          // 被机器人规则拦截
	EventStatusEmailOpened EventStatus = "email_opened" // 像素加载（邮件打开）
	EventStatusOnPage      EventStatus = "on_page"      // 已到达落地页
)

// TrackingEvent 访问追踪事件，每次访问写入一行
type TrackingEvent struct {
	ID        uint      `json:"id"`
	LinkID    uint      `json:"link_id" gorm:"index"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`

	// 请求侧信息
	IPAddress string `json:"ip_address" gorm:"size:45"`
	UserAgent string `json:"user_agent" gorm:"type:text"`
	Referrer  string `json:"referrer" gorm:"type:text"`

	// 地理位置信息
	Country      string  `json:"country"`
	Region       string  `json:"region"`
	City         string  `json:"city"`
	ZipCode      string  `json:"zip_code"`
	ISP          string  `json:"isp"`
	Organization string  `json:"organization"`
	ASNumber     string  `json:"as_number"`
	Timezone     string  `json:"timezone"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	// 设备信息
	DeviceType     string `json:"device_type"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	OS             string `json:"os"`
	OSVersion      string `json:"os_version"`

	// 状态与判定结果
	Status        EventStatus `json:"status"`
	BlockedReason string      `json:"blocked_reason"`
	IsBot         bool        `json:"is_bot"`
	ThreatScore   int         `json:"threat_score"`
	BotType       string      `json:"bot_type"`

	// 同一访问的关联标识，点击、像素、落地页回调共用
	UniqueID string `json:"unique_id" gorm:"index"`

	CapturedEmail   string `json:"captured_email"`
	EmailOpened     bool   `json:"email_opened"`
	Redirected      bool   `json:"redirected"`
	OnPage          bool   `json:"on_page"`
	SessionDuration int    `json:"session_duration"` // 秒
	PageViews       int    `json:"page_views"`
}
