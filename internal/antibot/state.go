package antibot

import (
	"sync"
	"time"
)

// 滑动窗口长度，频率统计只保留最近60秒的请求
const velocityWindow = 60 * time.Second

// BehaviorStats 单次请求的行为统计
type BehaviorStats struct {
	RequestFrequency int  `json:"request_frequency"` // 最近60秒请求数
	SessionDuration  int  `json:"session_duration"`  // 秒
	PageViews        int  `json:"page_views"`
	RapidRequests    bool `json:"rapid_requests"`
}

// session 按IP跟踪的会话记录
type session struct {
	startTime time.Time
	lastSeen  time.Time
	pageViews int
}

// StateStats 计分状态快照
type StateStats struct {
	BlacklistedIPs     int     `json:"blacklisted_ips"`
	WhitelistedIPs     int     `json:"whitelisted_ips"`
	ActiveSessions     int     `json:"active_sessions"`
	TrackedIPs         int     `json:"tracked_ips"`
	AverageThreatScore float64 `json:"average_threat_score"`
}

// ScoringState 计分引擎的进程内状态
// 所有map由同一把读写锁保护，竞争只影响计分精度，不影响响应正确性
// 多实例部署时各实例独立统计，属于已接受的近似
type ScoringState struct {
	mu        sync.RWMutex
	velocity  map[string][]time.Time
	sessions  map[string]*session
	scores    map[string]int
	blacklist map[string]struct{}
	whitelist map[string]struct{}
	torExits  map[string]struct{}
	vpnIPs    map[string]struct{}
}

// NewScoringState 创建计分状态
func NewScoringState() *ScoringState {
	return &ScoringState{
		velocity:  make(map[string][]time.Time),
		sessions:  make(map[string]*session),
		scores:    make(map[string]int),
		blacklist: make(map[string]struct{}),
		whitelist: make(map[string]struct{}),
		torExits:  make(map[string]struct{}),
		vpnIPs:    make(map[string]struct{}),
	}
}

// Touch 记录一次请求并返回该IP的行为统计
// 先剔除窗口外的时间戳，再追加本次请求
func (s *ScoringState) Touch(ip string, now time.Time, rapidThreshold int) BehaviorStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-velocityWindow)
	timestamps := s.velocity[ip]
	kept := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	s.velocity[ip] = kept

	stats := BehaviorStats{
		RequestFrequency: len(kept),
		RapidRequests:    len(kept) > rapidThreshold,
	}

	if sess, ok := s.sessions[ip]; ok {
		sess.pageViews++
		sess.lastSeen = now
		stats.SessionDuration = int(now.Sub(sess.startTime).Seconds())
		stats.PageViews = sess.pageViews
	} else {
		s.sessions[ip] = &session{startTime: now, lastSeen: now, pageViews: 1}
		stats.PageViews = 1
	}

	return stats
}

// RecordScore 记录IP最近一次威胁分数
func (s *ScoringState) RecordScore(ip string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[ip] = score
}

// AddBlacklist 加入黑名单
func (s *ScoringState) AddBlacklist(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[ip] = struct{}{}
}

// AddWhitelist 加入白名单，同时从黑名单移除
func (s *ScoringState) AddWhitelist(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whitelist[ip] = struct{}{}
	delete(s.blacklist, ip)
}

// IsBlacklisted 是否在黑名单中
func (s *ScoringState) IsBlacklisted(ip string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blacklist[ip]
	return ok
}

// IsWhitelisted 是否在白名单中
func (s *ScoringState) IsWhitelisted(ip string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.whitelist[ip]
	return ok
}

// MarkTorExit 标记Tor出口节点
func (s *ScoringState) MarkTorExit(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.torExits[ip] = struct{}{}
}

// MarkVPN 标记VPN出口IP
func (s *ScoringState) MarkVPN(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vpnIPs[ip] = struct{}{}
}

// IsTorExit 是否为已知Tor出口节点
func (s *ScoringState) IsTorExit(ip string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.torExits[ip]
	return ok
}

// IsVPN 是否为已知VPN出口IP
func (s *ScoringState) IsVPN(ip string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vpnIPs[ip]
	return ok
}

// Stats 返回状态快照
func (s *ScoringState) Stats() StateStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StateStats{
		BlacklistedIPs: len(s.blacklist),
		WhitelistedIPs: len(s.whitelist),
		ActiveSessions: len(s.sessions),
		TrackedIPs:     len(s.velocity),
	}

	if len(s.scores) > 0 {
		total := 0
		for _, score := range s.scores {
			total += score
		}
		stats.AverageThreatScore = float64(total) / float64(len(s.scores))
	}

	return stats
}

// Cleanup 清理超过maxAge未活动的跟踪数据，由定时任务调用
func (s *ScoringState) Cleanup(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)

	for ip, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, ip)
			delete(s.scores, ip)
		}
	}

	for ip, timestamps := range s.velocity {
		kept := timestamps[:0]
		for _, t := range timestamps {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(s.velocity, ip)
		} else {
			s.velocity[ip] = kept
		}
	}
}
