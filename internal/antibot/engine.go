package antibot

import (
	"fmt"
	"strings"
	"time"

	"linktrack/internal/detector/useragent"
)

// 各项指标的权重
const (
	scoreBotUserAgent      = 30 // UA命中机器人特征
	scoreAutomation        = 25 // 自动化工具特征
	scoreRapidRequests     = 20 // 请求频率超过阈值
	scoreVeryRapidRequests = 15 // 请求频率超过阈值两倍，叠加计分
	scoreMissingHeader     = 3  // 每缺失一个预期请求头
	scoreSuspiciousHeader  = 5  // 每出现一个可疑请求头值
	scoreDatacenterIP      = 15 // 数据中心IP
	scoreTorExit           = 20 // Tor出口节点
	scoreVPN               = 10 // VPN出口
	scoreScraper           = 40 // 采集器类机器人
	scoreTool              = 35 // 工具类机器人
	scoreSearchEngine      = 5  // 正规搜索引擎，默认不拦截所以低分
)

// VisitRequest 单次访问的请求信号
type VisitRequest struct {
	IPAddress string
	UserAgent string
	Headers   map[string]string
	Referrer  string
	Timestamp time.Time
}

// Assessment 威胁评估结果
type Assessment struct {
	IsBot                bool             `json:"is_bot"`
	BotType              BotType          `json:"bot_type"`
	ThreatScore          int              `json:"threat_score"`
	BlockedReason        string           `json:"blocked_reason"`
	SuspiciousIndicators []string         `json:"suspicious_indicators"`
	Device               useragent.Device `json:"device_info"`
	Behavior             BehaviorStats    `json:"behavior_analysis"`
}

// Engine 威胁计分引擎
// 无论输入如何都返回评估结果，子分析失败按零分处理
type Engine struct {
	state              *ScoringState
	botThreshold       int
	blacklistThreshold int
	rapidThreshold     int
}

// NewEngine 创建威胁计分引擎
func NewEngine(state *ScoringState, botThreshold, blacklistThreshold, rapidThreshold int) *Engine {
	if botThreshold <= 0 {
		botThreshold = 70
	}
	if blacklistThreshold <= 0 {
		blacklistThreshold = 80
	}
	if rapidThreshold <= 0 {
		rapidThreshold = 10
	}
	return &Engine{
		state:              state,
		botThreshold:       botThreshold,
		blacklistThreshold: blacklistThreshold,
		rapidThreshold:     rapidThreshold,
	}
}

// State 暴露计分状态，供统计接口与定时清理使用
func (e *Engine) State() *ScoringState {
	return e.state
}

// Analyze 对一次访问做完整威胁评估
func (e *Engine) Analyze(req VisitRequest) Assessment {
	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	assessment := Assessment{
		Device: useragent.Parse(req.UserAgent),
	}

	// 白名单IP直接视为可信
	if e.state.IsWhitelisted(req.IPAddress) {
		return assessment
	}

	// 黑名单IP直接满分判定，不再进入计分流程
	if e.state.IsBlacklisted(req.IPAddress) {
		assessment.IsBot = true
		assessment.ThreatScore = 100
		assessment.BlockedReason = ReasonIPBlacklisted
		assessment.SuspiciousIndicators = []string{ReasonIPBlacklisted}
		return assessment
	}

	score := 0
	var indicators []string

	// 1. UA分析
	botUA, automation := analyzeUserAgent(req.UserAgent)
	if req.UserAgent == "" {
		indicators = append(indicators, "missing_user_agent")
	}
	if botUA {
		score += scoreBotUserAgent
		indicators = append(indicators, "bot_user_agent")
	}
	if automation {
		score += scoreAutomation
		indicators = append(indicators, "automation_tools")
	}

	// 2. 机器人分类
	assessment.BotType = classifyBot(req.UserAgent)
	switch assessment.BotType {
	case BotTypeScraper:
		score += scoreScraper
	case BotTypeTool:
		score += scoreTool
	case BotTypeSearchEngine:
		score += scoreSearchEngine
	}

	// 3. 行为分析（滑动窗口频率统计）
	assessment.Behavior = e.state.Touch(req.IPAddress, now, e.rapidThreshold)
	if assessment.Behavior.RapidRequests {
		score += scoreRapidRequests
		indicators = append(indicators, "rapid_requests")
	}
	if assessment.Behavior.RequestFrequency > e.rapidThreshold*2 {
		score += scoreVeryRapidRequests
	}

	// 4. 请求头分析
	missing, suspicious := analyzeHeaders(req.Headers)
	score += len(missing) * scoreMissingHeader
	score += len(suspicious) * scoreSuspiciousHeader
	for _, h := range missing {
		indicators = append(indicators, "missing_header_"+h)
	}
	indicators = append(indicators, suspicious...)

	// 5. IP分析
	datacenter := isDatacenterIP(req.IPAddress)
	if datacenter {
		score += scoreDatacenterIP
		indicators = append(indicators, "datacenter_ip")
	}
	if e.state.IsTorExit(req.IPAddress) {
		score += scoreTorExit
		indicators = append(indicators, "tor_exit_node")
	}
	if e.state.IsVPN(req.IPAddress) {
		score += scoreVPN
		indicators = append(indicators, "vpn_detected")
	}

	// 6. 总分限制在[0,100]
	if score > 100 {
		score = 100
	}
	assessment.ThreatScore = score
	assessment.SuspiciousIndicators = indicators

	// 7. 判定
	if score > e.botThreshold {
		assessment.IsBot = true
		assessment.BlockedReason = blockReason(botUA, automation, assessment.Behavior.RapidRequests, datacenter, len(suspicious) > 0)
	}

	// 8. 更新跟踪状态，分数过高自动拉黑
	e.state.RecordScore(req.IPAddress, score)
	if score > e.blacklistThreshold {
		e.state.AddBlacklist(req.IPAddress)
	}

	return assessment
}

// analyzeUserAgent 检查UA是否命中机器人或自动化特征
func analyzeUserAgent(ua string) (botUA, automation bool) {
	if ua == "" {
		return false, false
	}
	lower := strings.ToLower(ua)
	for _, pattern := range botUserAgentPatterns {
		if strings.Contains(lower, pattern) {
			botUA = true
			break
		}
	}
	for _, sig := range automationSignatures {
		if strings.Contains(lower, sig) {
			automation = true
			break
		}
	}
	return botUA, automation
}

// classifyBot 对UA做机器人分类，先命中的类别生效，最多归入一类
func classifyBot(ua string) BotType {
	if ua == "" {
		return BotTypeNone
	}
	lower := strings.ToLower(ua)
	for _, sig := range searchEngineSignatures {
		if strings.Contains(lower, sig) {
			return BotTypeSearchEngine
		}
	}
	for _, sig := range scraperSignatures {
		if strings.Contains(lower, sig) {
			return BotTypeScraper
		}
	}
	for _, sig := range toolSignatures {
		if strings.Contains(lower, sig) {
			return BotTypeTool
		}
	}
	return BotTypeNone
}

// analyzeHeaders 检查缺失的预期请求头与可疑的请求头值
func analyzeHeaders(headers map[string]string) (missing []string, suspicious []string) {
	lowered := make(map[string]string, len(headers))
	for k, v := range headers {
		lowered[strings.ToLower(k)] = strings.ToLower(v)
	}

	for _, expected := range expectedHeaders {
		if _, ok := lowered[expected]; !ok {
			missing = append(missing, expected)
		}
	}

	seen := make(map[string]struct{})
	add := func(indicator string) {
		if _, ok := seen[indicator]; !ok {
			seen[indicator] = struct{}{}
			suspicious = append(suspicious, indicator)
		}
	}

	for name, value := range lowered {
		if name == "accept" && value == "*/*" {
			add("generic_accept")
		}
		if strings.Contains(value, "bot") || strings.Contains(value, "crawler") {
			add("bot_in_headers")
		}
		for _, sig := range automationSignatures {
			if strings.Contains(value, sig) {
				add(fmt.Sprintf("automation_%s", sig))
			}
		}
	}

	return missing, suspicious
}

// isDatacenterIP 判断IP是否属于已知数据中心段
func isDatacenterIP(ip string) bool {
	for _, prefix := range datacenterPrefixes {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}

// blockReason 按优先级确定主要拦截原因
func blockReason(botUA, automation, rapid, datacenter, suspiciousHeaders bool) string {
	switch {
	case botUA:
		return "bot_user_agent"
	case automation:
		return "automation_tools"
	case rapid:
		return "rapid_requests"
	case datacenter:
		return "datacenter_ip"
	case suspiciousHeaders:
		return "suspicious_headers"
	default:
		return "high_threat_score"
	}
}
