package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linktrack/internal/antibot"
	"linktrack/internal/service"
)

// visitRequestFrom 从HTTP请求提取访问信号
func visitRequestFrom(c *gin.Context) antibot.VisitRequest {
	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return antibot.VisitRequest{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Headers:   headers,
		Referrer:  c.Request.Referer(),
		Timestamp: time.Now(),
	}
}

// TrackClick 点击端点
// 放行时302跳转，拦截时403返回原因文本，短码无效返回404
func TrackClick(trackService *service.TrackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")
		uniqueID := c.Query("uid")
		skipPreview := c.Query("preview") == "skip"

		result, err := trackService.HandleClick(c.Request.Context(), shortCode, visitRequestFrom(c), uniqueID, skipPreview)
		if err != nil {
			if errors.Is(err, service.ErrLinkNotFound) {
				c.String(http.StatusNotFound, "Link not found")
				return
			}
			c.String(http.StatusInternalServerError, "Error processing request")
			return
		}

		if result.Blocked {
			c.String(http.StatusForbidden, "Access blocked: %s", result.Reason)
			return
		}

		c.Redirect(http.StatusFound, result.RedirectURL)
	}
}
