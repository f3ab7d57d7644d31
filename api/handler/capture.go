package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linktrack/internal/service"
)

// CaptureRequest 落地页表单提交请求
type CaptureRequest struct {
	LinkID uint   `json:"link_id"`
	Email  string `json:"email"`
}

// CaptureLead 表单回调端点，把访客提交的邮箱关联到最近一次访问
func CaptureLead(trackService *service.TrackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CaptureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No data provided"})
			return
		}

		if req.LinkID == 0 || req.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing link_id or email"})
			return
		}

		if err := trackService.CaptureLead(req.LinkID, req.Email); err != nil {
			if errors.Is(err, service.ErrEventNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No tracking event found for this link"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to capture lead"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Lead captured successfully"})
	}
}
