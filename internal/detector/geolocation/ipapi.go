package geolocation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"linktrack/internal/cache"
)

// ip-api.com返回字段列表
const ipapiFields = "status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,asname,mobile,proxy,hosting,query"

// IPAPIResolver 基于ip-api.com的地理位置解析器
type IPAPIResolver struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	cache    *cache.RedisCache
	cacheTTL time.Duration
}

// NewIPAPIResolver 创建ip-api解析器
func NewIPAPIResolver(endpoint string, timeout time.Duration, redisCache *cache.RedisCache, cacheTTL time.Duration) *IPAPIResolver {
	if endpoint == "" {
		endpoint = "http://ip-api.com/json"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &IPAPIResolver{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		cache:    redisCache,
		cacheTTL: cacheTTL,
	}
}

// Resolve 解析IP地理位置，失败时返回全Unknown结果
func (r *IPAPIResolver) Resolve(ctx context.Context, ip string) *Location {
	if ip == "" {
		return UnknownLocation()
	}

	// 1. 先查缓存
	cacheKey := "geo:" + ip
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		var loc Location
		if err := json.Unmarshal([]byte(cached), &loc); err == nil {
			return &loc
		}
	}

	// 2. 请求ip-api.com，超时不阻塞响应
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reqURL := r.endpoint + "/" + url.PathEscape(ip) + "?fields=" + ipapiFields
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Warnf("geolocation request build failed for %s: %v", ip, err)
		return UnknownLocation()
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warnf("geolocation lookup failed for %s: %v", ip, err)
		return UnknownLocation()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("geolocation lookup for %s returned status %d", ip, resp.StatusCode)
		return UnknownLocation()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UnknownLocation()
	}

	loc := parseIPAPIResponse(body)
	if loc == nil {
		return UnknownLocation()
	}

	// 3. 写回缓存
	if data, err := json.Marshal(loc); err == nil {
		if err := r.cache.Set(ctx, cacheKey, string(data), r.cacheTTL); err != nil {
			log.Debugf("geolocation cache write failed for %s: %v", ip, err)
		}
	}

	return loc
}

// parseIPAPIResponse 解析ip-api的JSON响应
func parseIPAPIResponse(body []byte) *Location {
	result := gjson.ParseBytes(body)
	if result.Get("status").String() != "success" {
		return nil
	}

	loc := UnknownLocation()
	setIfPresent := func(field string, dst *string) {
		if v := result.Get(field).String(); v != "" {
			*dst = v
		}
	}

	setIfPresent("country", &loc.Country)
	setIfPresent("countryCode", &loc.CountryCode)
	setIfPresent("regionName", &loc.Region)
	setIfPresent("city", &loc.City)
	setIfPresent("zip", &loc.ZipCode)
	setIfPresent("timezone", &loc.Timezone)
	setIfPresent("isp", &loc.ISP)
	setIfPresent("org", &loc.Organization)
	setIfPresent("as", &loc.ASNumber)
	setIfPresent("asname", &loc.ASName)

	loc.Latitude = result.Get("lat").Float()
	loc.Longitude = result.Get("lon").Float()
	loc.IsMobile = result.Get("mobile").Bool()
	loc.IsProxy = result.Get("proxy").Bool()
	loc.IsHosting = result.Get("hosting").Bool()

	return loc
}
