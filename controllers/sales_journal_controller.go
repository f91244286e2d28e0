package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SalesJournalController 销售日志控制器

type SalesJournalController struct{}

// JournalUpsert 保存销售日志
// 同一用户同一天只有一条记录，重复提交覆盖更新
func (sjc *SalesJournalController) JournalUpsert(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var journalData struct {
		Date         string `json:"date" binding:"required"`
		ShopName     string `json:"shop_name"`
		Content      string `json:"content" binding:"required"`
		SpecialNotes string `json:"special_notes"`
	}
	if err := c.ShouldBindJSON(&journalData); err != nil {
		RespondBindingError(c, err)
		return
	}

	if _, err := time.Parse("2006-01-02", journalData.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidDateRange, "message": "日期格式必须为YYYY-MM-DD"})
		return
	}

	// 按店铺名精确匹配关联店铺档案
	var shopID *int
	if journalData.ShopName != "" {
		var shop models.Profile
		if err := db.DB.Where("shop_name = ?", journalData.ShopName).First(&shop).Error; err == nil {
			shopID = &shop.ID
		}
	}

	var journal models.SalesJournal
	created := false
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND date = ?", operator.ID, journalData.Date).First(&journal).Error
		if err == gorm.ErrRecordNotFound {
			created = true
			journal = models.SalesJournal{
				UserID:       operator.ID,
				Date:         journalData.Date,
				ShopID:       shopID,
				ShopName:     journalData.ShopName,
				Content:      journalData.Content,
				SpecialNotes: journalData.SpecialNotes,
			}
			if err := tx.Create(&journal).Error; err != nil {
				return err
			}
			return notify.WriteAuditLog(tx, "sales_journals", fmt.Sprintf("%d", journal.ID),
				models.AuditInsert, &operator.ID, operator.Role, nil,
				map[string]interface{}{"date": journalData.Date}, nil)
		} else if err != nil {
			return err
		}

		// 覆盖更新
		if err := tx.Model(&journal).Updates(map[string]interface{}{
			"shop_id":       shopID,
			"shop_name":     journalData.ShopName,
			"content":       journalData.Content,
			"special_notes": journalData.SpecialNotes,
		}).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "sales_journals", fmt.Sprintf("%d", journal.ID),
			models.AuditUpdate, &operator.ID, operator.Role, nil,
			map[string]interface{}{"date": journalData.Date}, []string{"content"})
	})
	if err != nil {
		log.Printf("保存销售日志失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "保存失败"})
		return
	}

	message := "日志已更新"
	if created {
		message = "日志已创建"
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message, "data": journal})
}

// JournalList 日志列表，支持日期范围和店铺过滤
func (sjc *SalesJournalController) JournalList(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var queryData struct {
		BeginDate string `json:"begin_date"`
		EndDate   string `json:"end_date"`
		ShopName  string `json:"shop_name"`
		UserID    int    `json:"user_id"`
		Page      int    `json:"page" binding:"required,min=1"`
		PageSize  int    `json:"page_size" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.SalesJournal{})
	// 管理员可以按用户过滤，其他角色只能看自己的
	if IsAdmin(operator) {
		if queryData.UserID > 0 {
			query = query.Where("user_id = ?", queryData.UserID)
		}
	} else {
		query = query.Where("user_id = ?", operator.ID)
	}
	if queryData.BeginDate != "" {
		query = query.Where("date >= ?", queryData.BeginDate)
	}
	if queryData.EndDate != "" {
		query = query.Where("date <= ?", queryData.EndDate)
	}
	if queryData.ShopName != "" {
		query = query.Where("shop_name LIKE ?", "%"+queryData.ShopName+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计日志总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var journals []models.SalesJournal
	if err := query.Offset(offset).Limit(limit).Order("date DESC").Find(&journals).Error; err != nil {
		log.Printf("查询日志列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      journals,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}

// JournalDetail 日志详情
func (sjc *SalesJournalController) JournalDetail(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var journal models.SalesJournal
	if err := db.DB.First(&journal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "日志不存在"})
		return
	}
	if !IsAdmin(operator) && journal.UserID != operator.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能查看自己的日志"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": journal})
}

// JournalDelete 删除日志
func (sjc *SalesJournalController) JournalDelete(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var journal models.SalesJournal
	if err := db.DB.First(&journal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "日志不存在"})
		return
	}
	if !IsAdmin(operator) && journal.UserID != operator.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能删除自己的日志"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&journal).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "sales_journals", fmt.Sprintf("%d", journal.ID),
			models.AuditDelete, &operator.ID, operator.Role,
			map[string]interface{}{"date": journal.Date}, nil, nil)
	})
	if err != nil {
		log.Printf("删除日志失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "日志已删除"})
}

// JournalStats 日志统计：总数、覆盖天数、涉及店铺数、最近5条摘要
func (sjc *SalesJournalController) JournalStats(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	query := db.DB.Model(&models.SalesJournal{})
	if !IsAdmin(operator) {
		query = query.Where("user_id = ?", operator.ID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计日志失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	var uniqueDates int64
	query.Session(&gorm.Session{}).Distinct("date").Count(&uniqueDates)

	var uniqueShops int64
	query.Session(&gorm.Session{}).Where("shop_name != ''").Distinct("shop_name").Count(&uniqueShops)

	var recent []models.SalesJournal
	recentQuery := db.DB.Model(&models.SalesJournal{})
	if !IsAdmin(operator) {
		recentQuery = recentQuery.Where("user_id = ?", operator.ID)
	}
	recentQuery.Order("date DESC").Limit(5).Find(&recent)

	recentData := make([]gin.H, 0, len(recent))
	for _, journal := range recent {
		recentData = append(recentData, gin.H{
			"id":        journal.ID,
			"date":      journal.Date,
			"shop_name": journal.ShopName,
			// 摘要截断到100字符
			"content": utils.Truncate(journal.Content, 100),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"total_journals": total,
			"unique_dates":   uniqueDates,
			"unique_shops":   uniqueShops,
			"recent":         recentData,
		},
	})
}
