package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linktrack/internal/antibot"
)

// IPListRequest 黑白名单操作请求
type IPListRequest struct {
	IP string `json:"ip" binding:"required"`
}

// GetAntiBotStats 获取计分引擎状态快照
func GetAntiBotStats(engine *antibot.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"result":      "success",
			"status_code": http.StatusOK,
			"status_msg":  "get antibot stats success",
			"data":        engine.State().Stats(),
		})
	}
}

// AddWhitelist 将IP加入白名单
func AddWhitelist(engine *antibot.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IPListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{
				"result":      "fail",
				"status_code": http.StatusBadRequest,
				"status_msg":  "请求参数无效",
			})
			return
		}

		engine.State().AddWhitelist(req.IP)
		c.JSON(http.StatusOK, gin.H{
			"result":      "success",
			"status_code": http.StatusOK,
			"status_msg":  "IP whitelisted",
		})
	}
}

// AddBlacklist 将IP加入黑名单
func AddBlacklist(engine *antibot.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IPListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{
				"result":      "fail",
				"status_code": http.StatusBadRequest,
				"status_msg":  "请求参数无效",
			})
			return
		}

		engine.State().AddBlacklist(req.IP)
		c.JSON(http.StatusOK, gin.H{
			"result":      "success",
			"status_code": http.StatusOK,
			"status_msg":  "IP blacklisted",
		})
	}
}
