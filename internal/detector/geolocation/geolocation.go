package geolocation

import (
	"context"
)

// Unknown 解析失败时各字段的默认值
const Unknown = "Unknown"

// Location 地理位置解析结果
type Location struct {
	Country      string  `json:"country"`
	CountryCode  string  `json:"country_code"`
	Region       string  `json:"region"`
	City         string  `json:"city"`
	ZipCode      string  `json:"zip_code"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Timezone     string  `json:"timezone"`
	ISP          string  `json:"isp"`
	Organization string  `json:"organization"`
	ASNumber     string  `json:"as_number"`
	ASName       string  `json:"as_name"`
	IsMobile     bool    `json:"is_mobile"`
	IsProxy      bool    `json:"is_proxy"`
	IsHosting    bool    `json:"is_hosting"`
}

// UnknownLocation 返回全Unknown的位置信息
func UnknownLocation() *Location {
	return &Location{
		Country:      Unknown,
		CountryCode:  Unknown,
		Region:       Unknown,
		City:         Unknown,
		ZipCode:      Unknown,
		Timezone:     Unknown,
		ISP:          Unknown,
		Organization: Unknown,
		ASNumber:     Unknown,
		ASName:       Unknown,
	}
}

// Resolver 地理位置解析器接口
// 实现必须是尽力而为的：任何失败都返回UnknownLocation而不是错误中断请求
type Resolver interface {
	Resolve(ctx context.Context, ip string) *Location
}
