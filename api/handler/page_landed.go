package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linktrack/internal/service"
)

// PageLandedRequest 落地页回调请求
type PageLandedRequest struct {
	UniqueID string `json:"unique_id"`
	LinkID   uint   `json:"link_id"`
}

// PageLanded 落地页回调端点，标记访客已到达目标页面
func PageLanded(trackService *service.TrackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PageLandedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}

		if req.UniqueID == "" && req.LinkID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing unique_id or link_id"})
			return
		}

		if err := trackService.PageLanded(req.UniqueID, req.LinkID); err != nil {
			if errors.Is(err, service.ErrEventNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No tracking event found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update status"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated to On Page"})
	}
}
