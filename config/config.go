package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	Token    string    `yaml:"token"`
	BaseURL  string    `yaml:"base_url"`
	Server   Server    `yaml:"server"`
	Database Database  `yaml:"database"`
	Redis    Redis     `yaml:"redis"`
	Geo      Geo       `yaml:"geo"`
	AntiBot  AntiBot   `yaml:"antibot"`
	Telegram Telegram  `yaml:"telegram"`
	CronJobs []CronJob `yaml:"cron_jobs"`
}

// Server 服务器配置
type Server struct {
	Address string `yaml:"address"`
}

// Database 数据库配置
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Redis 缓存配置，address为空时不启用缓存
type Redis struct {
	Address string `yaml:"address"`
}

// Geo 地理位置解析配置
type Geo struct {
	Endpoint        string `yaml:"endpoint"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

// Timeout 请求超时
func (g Geo) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// CacheTTL 解析结果缓存时长
func (g Geo) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLMinutes) * time.Minute
}

// AntiBot 反机器人引擎配置
type AntiBot struct {
	BotScoreThreshold       int `yaml:"bot_score_threshold"`       // 超过该分数判定为机器人
	BlacklistScoreThreshold int `yaml:"blacklist_score_threshold"` // 超过该分数自动加入黑名单
	RapidRequestsPerMinute  int `yaml:"rapid_requests_per_minute"` // 每分钟请求数超过该值视为高频
}

// Telegram 通知配置
type Telegram struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// CronJob 定时任务配置
type CronJob struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"`
	Cleanup  bool   `yaml:"cleanup"`
	Summary  bool   `yaml:"summary"`
}

// LoadConfig 从文件加载配置
func LoadConfig() (*Config, error) {
	// 1. 尝试从环境变量获取配置文件路径
	configPath := os.Getenv("CONFIG_PATH")

	// 2. 如果环境变量未设置，使用默认路径
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 3. 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// 4. 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// 5. 验证配置并设置默认值
	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = "127.0.0.1:8080"
	}

	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
		config.Database.DSN = "linktrack.db"
	}

	if config.Geo.Endpoint == "" {
		config.Geo.Endpoint = "http://ip-api.com/json"
	}
	if config.Geo.TimeoutSeconds == 0 {
		config.Geo.TimeoutSeconds = 10
	}
	if config.Geo.CacheTTLMinutes == 0 {
		config.Geo.CacheTTLMinutes = 60
	}

	if config.AntiBot.BotScoreThreshold == 0 {
		config.AntiBot.BotScoreThreshold = 70
	}
	if config.AntiBot.BlacklistScoreThreshold == 0 {
		config.AntiBot.BlacklistScoreThreshold = 80
	}
	if config.AntiBot.RapidRequestsPerMinute == 0 {
		config.AntiBot.RapidRequestsPerMinute = 10
	}
}
