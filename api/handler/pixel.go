package handler

import (
	"encoding/hex"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"linktrack/internal/service"
	"linktrack/internal/util"
)

// decodeEmailParam 像素地址中的邮箱参数允许十六进制编码，无法解码时按原文处理
func decodeEmailParam(raw string) string {
	if raw == "" {
		return ""
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil || !utf8.Valid(decoded) {
		return raw
	}
	return string(decoded)
}

// TrackPixel 像素端点
// 无论拦截结果、短码是否有效，都返回1x1透明PNG，不向加载方暴露任何判定信息
func TrackPixel(trackService *service.TrackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")
		capturedEmail := decodeEmailParam(c.Query("email"))
		uniqueID := c.Query("id")
		if uniqueID == "" {
			uniqueID = c.Query("uid")
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("pixel tracking panic for %s: %v", shortCode, r)
				}
			}()
			trackService.HandlePixel(c.Request.Context(), shortCode, visitRequestFrom(c), capturedEmail, uniqueID)
		}()

		writePixel(c)
	}
}

func writePixel(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/png", util.TransparentPixel())
}
