package antibot

// BotType 机器人类别
type BotType string

const (
	BotTypeSearchEngine BotType = "search_engine"
	BotTypeScraper      BotType = "scraper"
	BotTypeTool         BotType = "tool"
	BotTypeNone         BotType = ""
)

// 通用机器人特征，命中任意一个即认为是机器人UA
var botUserAgentPatterns = []string{
	"bot", "crawler", "spider", "scraper", "curl", "wget",
	"python-requests", "scrapy", "selenium", "phantomjs",
	"headless", "automated", "monitor", "scan",
	"audit", "validator", "archiver", "harvester",
}

// 自动化工具特征，出现在UA或任意请求头的值中都算命中
var automationSignatures = []string{
	"selenium", "phantomjs", "headless", "automated",
	"curl", "wget", "python-requests", "scrapy",
}

// 分类特征表，按搜索引擎、采集器、工具的顺序匹配，先命中先生效
var searchEngineSignatures = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "whatsapp", "telegrambot",
}

var scraperSignatures = []string{
	"ahrefsbot", "mj12bot", "dotbot", "semrushbot",
	"majesticsseo", "blexbot", "ccbot", "gptbot",
	"claude-web", "anthropic-ai", "perplexitybot",
}

var toolSignatures = []string{
	"wget", "curl", "python-requests", "scrapy",
	"selenium", "phantomjs", "headless", "postman",
	"insomnia", "httpie", "node-fetch",
}

// 数据中心IP前缀（AWS、Azure、Google Cloud）
var datacenterPrefixes = []string{
	"54.", "52.", "18.", "3.",
	"40.", "13.",
	"35.", "34.", "104.",
}

// 正常浏览器应携带的请求头
var expectedHeaders = []string{
	"accept", "accept-language", "accept-encoding", "connection",
}

// 社交平台来源域名，始终拦截，不随链接配置变化
var socialPlatforms = []struct {
	Domain string
	Name   string
}{
	{"facebook.com", "facebook"},
	{"twitter.com", "twitter"},
	{"instagram.com", "instagram"},
	{"linkedin.com", "linkedin"},
	{"tiktok.com", "tiktok"},
}
