package useragent

import (
	"regexp"
	"strings"
)

// 设备类型
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceUnknown = "Unknown"
)

// Device 用户代理解析结果
type Device struct {
	DeviceType     string `json:"device_type"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	OS             string `json:"os"`
	OSVersion      string `json:"os_version"`
}

// 浏览器匹配规则，按顺序匹配，第一个命中的生效
type browserRule struct {
	name    string
	match   func(ua string) bool
	version *regexp.Regexp
}

var browserRules = []browserRule{
	{
		name:    "Chrome",
		match:   func(ua string) bool { return strings.Contains(ua, "chrome") && !strings.Contains(ua, "chromium") },
		version: regexp.MustCompile(`chrome/(\d+\.\d+)`),
	},
	{
		name:    "Firefox",
		match:   func(ua string) bool { return strings.Contains(ua, "firefox") },
		version: regexp.MustCompile(`firefox/(\d+\.\d+)`),
	},
	{
		name:    "Safari",
		match:   func(ua string) bool { return strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome") },
		version: regexp.MustCompile(`version/(\d+\.\d+)`),
	},
	{
		name:    "Edge",
		match:   func(ua string) bool { return strings.Contains(ua, "edge") },
		version: regexp.MustCompile(`edge/(\d+\.\d+)`),
	},
	{
		name:    "Opera",
		match:   func(ua string) bool { return strings.Contains(ua, "opera") || strings.Contains(ua, "opr") },
		version: regexp.MustCompile(`(?:opera|opr)/(\d+\.\d+)`),
	},
}

var (
	macVersionRe     = regexp.MustCompile(`mac os x (\d+[._]\d+)`)
	androidVersionRe = regexp.MustCompile(`android (\d+(?:\.\d+)?)`)
	iosVersionRe     = regexp.MustCompile(`(?:iphone )?os (\d+[._]\d+)`)
)

// Parse 解析用户代理字符串，提取设备与浏览器信息
// 纯函数，任何输入都返回有效结果，无法识别的字段为Unknown
func Parse(userAgent string) Device {
	if userAgent == "" {
		return Device{
			DeviceType:     DeviceUnknown,
			Browser:        DeviceUnknown,
			BrowserVersion: DeviceUnknown,
			OS:             DeviceUnknown,
			OSVersion:      DeviceUnknown,
		}
	}

	ua := strings.ToLower(userAgent)

	return Device{
		DeviceType:     parseDeviceType(ua),
		Browser:        parseBrowser(ua).name,
		BrowserVersion: parseBrowserVersion(ua),
		OS:             parseOS(ua),
		OSVersion:      parseOSVersion(ua),
	}
}

func parseDeviceType(ua string) string {
	switch {
	// iPad的UA也带"Mobile"标记，平板判断必须在前
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return DeviceTablet
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"),
		strings.Contains(ua, "iphone"), strings.Contains(ua, "ipod"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func parseBrowser(ua string) browserRule {
	for _, rule := range browserRules {
		if rule.match(ua) {
			return rule
		}
	}
	return browserRule{name: DeviceUnknown}
}

func parseBrowserVersion(ua string) string {
	rule := parseBrowser(ua)
	if rule.version == nil {
		return DeviceUnknown
	}
	if m := rule.version.FindStringSubmatch(ua); m != nil {
		return m[1]
	}
	return DeviceUnknown
}

func parseOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows nt"):
		return "Windows"
	case strings.Contains(ua, "android"):
		return "Android"
	// iPhone的UA里也带"like Mac OS X"，必须先于macOS判断
	case strings.Contains(ua, "iphone os"), strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "mac os x"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return DeviceUnknown
	}
}

// Windows NT内核版本到产品版本的映射
var windowsVersions = []struct {
	token   string
	version string
}{
	{"windows nt 10.0", "10"},
	{"windows nt 6.3", "8.1"},
	{"windows nt 6.2", "8"},
	{"windows nt 6.1", "7"},
}

func parseOSVersion(ua string) string {
	switch parseOS(ua) {
	case "Windows":
		for _, w := range windowsVersions {
			if strings.Contains(ua, w.token) {
				return w.version
			}
		}
	case "macOS":
		if m := macVersionRe.FindStringSubmatch(ua); m != nil {
			return strings.ReplaceAll(m[1], "_", ".")
		}
	case "Android":
		if m := androidVersionRe.FindStringSubmatch(ua); m != nil {
			return m[1]
		}
	case "iOS":
		if m := iosVersionRe.FindStringSubmatch(ua); m != nil {
			return strings.ReplaceAll(m[1], "_", ".")
		}
	}
	return DeviceUnknown
}
