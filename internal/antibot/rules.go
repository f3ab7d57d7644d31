package antibot

import (
	"strings"

	"linktrack/internal/detector/geolocation"
	"linktrack/internal/model"
)

// 拦截原因
const (
	ReasonUnknownLocation   = "unknown_location"
	ReasonCountryNotAllowed = "country_not_allowed"
	ReasonRegionNotAllowed  = "region_not_allowed"
	ReasonCityNotAllowed    = "city_not_allowed"
	ReasonCountryBlocked    = "country_blocked"
	ReasonRegionBlocked     = "region_blocked"
	ReasonCityBlocked       = "city_blocked"
	ReasonBotDetected       = "bot_detected_advanced"
	ReasonIPBlacklisted     = "ip_blacklisted"
)

// 规则名称
const (
	RuleSocialReferrer = "social_referrer"
	RuleGeoTargeting   = "geo_targeting"
	RuleBotBlocking    = "bot_blocking"
)

// Decision 访问判定结果，拦截时Reason有且只有一个
type Decision struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
	Rule    string `json:"rule,omitempty"` // 命中的规则名
}

// RuleInput 访问规则的输入
type RuleInput struct {
	Link       *model.Link
	Location   *geolocation.Location
	Assessment *Assessment
	Referrer   string
}

// Rule 单条访问规则，返回拦截原因，允许通过时返回空串
type Rule struct {
	Name     string
	Evaluate func(in RuleInput) string
}

// AccessRules 按优先级排列的访问规则，第一条命中的规则决定拦截原因
var AccessRules = []Rule{
	{Name: RuleSocialReferrer, Evaluate: evaluateSocialReferrer},
	{Name: RuleGeoTargeting, Evaluate: evaluateGeoTargeting},
	{Name: RuleBotBlocking, Evaluate: evaluateBotBlocking},
}

// EvaluateAccess 依次执行访问规则，短路返回第一个命中的拦截原因
func EvaluateAccess(in RuleInput) Decision {
	for _, rule := range AccessRules {
		if reason := rule.Evaluate(in); reason != "" {
			return Decision{Blocked: true, Reason: reason, Rule: rule.Name}
		}
	}
	return Decision{}
}

// evaluateSocialReferrer 社交平台来源检查，始终生效
func evaluateSocialReferrer(in RuleInput) string {
	if in.Referrer == "" {
		return ""
	}
	referrer := strings.ToLower(in.Referrer)
	for _, platform := range socialPlatforms {
		if strings.Contains(referrer, platform.Domain) {
			return "social_referrer_" + platform.Name
		}
	}
	return ""
}

// evaluateGeoTargeting 地理定向检查，仅在链接启用时生效
// 位置未知按拦截处理，避免解析服务降级时放行不该放行的访问
func evaluateGeoTargeting(in RuleInput) string {
	link := in.Link
	if link == nil || !link.GeoTargetingEnabled {
		return ""
	}

	loc := in.Location
	if loc == nil || loc.Country == geolocation.Unknown || loc.Country == "" {
		return ReasonUnknownLocation
	}

	if link.GeoTargetingType == model.GeoTargetingAllow {
		// 允许模式：各粒度的名单为空或包含当前位置才放行
		// 国家、地区、城市按序检查，第一个不通过的粒度决定原因
		if len(link.AllowedCountries) > 0 && !link.AllowedCountries.Contains(loc.Country) {
			return ReasonCountryNotAllowed
		}
		if len(link.AllowedRegions) > 0 && !link.AllowedRegions.Contains(loc.Region) {
			return ReasonRegionNotAllowed
		}
		if len(link.AllowedCities) > 0 && !link.AllowedCities.Contains(loc.City) {
			return ReasonCityNotAllowed
		}
		return ""
	}

	// 屏蔽模式：位置出现在对应名单中即拦截，国家优先
	if link.BlockedCountries.Contains(loc.Country) {
		return ReasonCountryBlocked
	}
	if link.BlockedRegions.Contains(loc.Region) {
		return ReasonRegionBlocked
	}
	if link.BlockedCities.Contains(loc.City) {
		return ReasonCityBlocked
	}
	return ""
}

// evaluateBotBlocking 机器人拦截，仅在链接启用且判定为机器人时生效
func evaluateBotBlocking(in RuleInput) string {
	link := in.Link
	if link == nil || !link.BotBlockingEnabled {
		return ""
	}
	if in.Assessment == nil || !in.Assessment.IsBot {
		return ""
	}
	if in.Assessment.BlockedReason != "" {
		return in.Assessment.BlockedReason
	}
	return ReasonBotDetected
}
