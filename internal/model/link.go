package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LinkStatus 链接状态
type LinkStatus string

const (
	LinkStatusActive  LinkStatus = "active"
	LinkStatusPaused  LinkStatus = "paused"
	LinkStatusExpired LinkStatus = "expired"
)

// GeoTargetingType 地理定向模式
type GeoTargetingType string

const (
	GeoTargetingAllow GeoTargetingType = "allow" // 只允许名单内的位置
	GeoTargetingBlock GeoTargetingType = "block" // 只屏蔽名单内的位置
)

// StringList 以JSON文本存储的字符串列表
// 解析失败时降级为空列表，不影响请求处理
type StringList []string

// Scan 实现sql.Scanner接口
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		// 配置损坏按空列表处理
		*l = nil
		return nil
	}
	*l = list
	return nil
}

// Value 实现driver.Valuer接口
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Contains 判断列表是否包含指定值
func (l StringList) Contains(value string) bool {
	for _, item := range l {
		if item == value {
			return true
		}
	}
	return false
}

// Link 追踪链接模型
type Link struct {
	ID                  uint             `json:"id"`
	UserID              uint             `json:"user_id"`
	TargetURL           string           `json:"target_url"`
	ShortCode           string           `json:"short_code" gorm:"uniqueIndex"`
	CampaignName        string           `json:"campaign_name"`
	Status              LinkStatus       `json:"status"`
	TotalClicks         int64            `json:"total_clicks"`
	RealVisitors        int64            `json:"real_visitors"`
	BlockedAttempts     int64            `json:"blocked_attempts"`
	CaptureEmail        bool             `json:"capture_email"`
	BotBlockingEnabled  bool             `json:"bot_blocking_enabled"`
	GeoTargetingEnabled bool             `json:"geo_targeting_enabled"`
	GeoTargetingType    GeoTargetingType `json:"geo_targeting_type"`
	RateLimitingEnabled bool             `json:"rate_limiting_enabled"`
	PreviewTemplateURL  string           `json:"preview_template_url"`
	AllowedCountries    StringList       `json:"allowed_countries" gorm:"type:text"`
	BlockedCountries    StringList       `json:"blocked_countries" gorm:"type:text"`
	AllowedRegions      StringList       `json:"allowed_regions" gorm:"type:text"`
	BlockedRegions      StringList       `json:"blocked_regions" gorm:"type:text"`
	AllowedCities       StringList       `json:"allowed_cities" gorm:"type:text"`
	BlockedCities       StringList       `json:"blocked_cities" gorm:"type:text"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// IsActive 判断链接是否可用
func (l *Link) IsActive() bool {
	return l.Status == "" || l.Status == LinkStatusActive
}
