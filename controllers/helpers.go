package controllers

import (
	"net/http"
	"strconv"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/msg"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
)

// CurrentProfile 从上下文获取当前档案，RequireRole中间件未加载时按userID查询
func CurrentProfile(c *gin.Context) (*models.Profile, bool) {
	if p, exists := c.Get("profile"); exists {
		if profile, ok := p.(*models.Profile); ok {
			return profile, true
		}
	}

	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "code": utils.CodeUnauthorized, "message": "未登录"})
		return nil, false
	}

	var profile models.Profile
	if err := db.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "档案不存在"})
		return nil, false
	}
	return &profile, true
}

// IsAdmin 判断档案是否为管理员
func IsAdmin(p *models.Profile) bool {
	return p.Role == models.RoleAdmin
}

// ParseIDParam 解析路径中的整数ID参数
func ParseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "ID参数无效"})
		return 0, false
	}
	return id, true
}

// RespondBindingError 输出参数绑定错误，校验错误翻译成中文字段提示
func RespondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, msg.ErrResponse("请求参数错误", err))
}

// containsString 检查字符串是否在切片中
func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
