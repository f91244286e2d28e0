package controllers

import (
	"log"
	"net/http"
	"time"

	"kol_crm/config"
	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthController 认证控制器

type AuthController struct{}

// Register 注册账号并创建待审核档案
func (ac *AuthController) Register(c *gin.Context) {
	var registerData struct {
		Email          string `json:"email" binding:"required,email"`
		Password       string `json:"password" binding:"required,min=8"`
		Name           string `json:"name" binding:"required"`
		Role           string `json:"role" binding:"required"`
		ShopName       string `json:"shop_name"`
		Region         string `json:"region"`
		NaverPlaceLink string `json:"naver_place_link"`
		Phone          string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&registerData); err != nil {
		RespondBindingError(c, err)
		return
	}

	// 注册只允许业务角色，管理员账号由运维直接写库
	validRoles := []string{models.RoleKOL, models.RoleOL, models.RoleShopOwner}
	if !containsString(validRoles, registerData.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "无效的角色"})
		return
	}

	// 检查邮箱是否已注册
	var existing models.User
	if err := db.DB.Where("email = ?", registerData.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeAlreadyExists, "message": "邮箱已注册"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerData.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("密码加密失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "注册失败"})
		return
	}

	var profile models.Profile
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Email:    registerData.Email,
			Password: string(hashedPassword),
			IsActive: true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		profile = models.Profile{
			UserID:         user.ID,
			Email:          registerData.Email,
			Name:           registerData.Name,
			Role:           registerData.Role,
			Status:         models.ProfileStatusPending,
			ShopName:       registerData.ShopName,
			Region:         registerData.Region,
			NaverPlaceLink: registerData.NaverPlaceLink,
			Phone:          registerData.Phone,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		// 通知所有管理员有新档案待审核
		var admins []models.Profile
		if err := tx.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err == nil {
			for _, admin := range admins {
				if err := notify.CreateNotification(tx, admin.ID, models.NotifyApprovalRequired,
					"新会员注册申请", registerData.Name+" 提交了注册申请，请审核",
					"profile", "", models.PriorityHigh); err != nil {
					log.Printf("通知管理员失败: %v", err)
				}
			}
		}

		return notify.WriteAuditLog(tx, "profiles", "", models.AuditInsert, nil, registerData.Role,
			nil, map[string]interface{}{"email": registerData.Email, "role": registerData.Role}, nil)
	})
	if err != nil {
		log.Printf("注册失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "注册失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "注册成功，等待管理员审核",
		"data":    gin.H{"profile_id": profile.ID},
	})
}

// TokenObtainPair 登录获取访问令牌和刷新令牌
func (ac *AuthController) TokenObtainPair(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", loginData.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "code": utils.CodeUnauthorized, "message": "邮箱或密码错误"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "账号已停用"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginData.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "code": utils.CodeUnauthorized, "message": "邮箱或密码错误"})
		return
	}

	cfg := config.LoadConfig()
	accessToken, refreshToken, err := utils.GenerateTokens(user.ID, cfg)
	if err != nil {
		log.Printf("生成令牌失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "生成令牌失败"})
		return
	}

	// 记录最后登录时间
	now := time.Now()
	db.DB.Model(&user).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"access":  accessToken,
		"refresh": refreshToken,
	})
}

// TokenRefresh 刷新访问令牌
func (ac *AuthController) TokenRefresh(c *gin.Context) {
	var refreshData struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	if err := c.ShouldBindJSON(&refreshData); err != nil {
		RespondBindingError(c, err)
		return
	}

	cfg := config.LoadConfig()
	accessToken, err := utils.RefreshAccessToken(refreshData.Refresh, cfg)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "code": utils.CodeInvalidToken, "message": "刷新令牌无效或已过期"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"access": accessToken,
	})
}

// Me 获取当前登录账号的档案信息
func (ac *AuthController) Me(c *gin.Context) {
	profile, ok := CurrentProfile(c)
	if !ok {
		return
	}

	// 计算档案完整度
	completeness := profileCompleteness(profile)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"profile":      profile,
			"completeness": completeness,
		},
	})
}

// profileCompleteness 计算档案完整度百分比
func profileCompleteness(p *models.Profile) int {
	fields := []string{p.Name, p.ShopName, p.Region, p.NaverPlaceLink, p.Phone}
	filled := 0
	for _, f := range fields {
		if f != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}
