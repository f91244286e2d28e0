package controllers

import (
	"log"
	"net/http"
	"time"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
)

// AuditLogController 审计日志控制器，只读查询

type AuditLogController struct{}

// AuditLogList 按表名/动作/操作人/时间范围筛选审计日志
func (alc *AuditLogController) AuditLogList(c *gin.Context) {
	var queryData struct {
		Table     string `json:"table"`
		RecordID  string `json:"record_id"`
		Action    string `json:"action"`
		UserID    *int   `json:"user_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Page      int    `json:"page" binding:"required,min=1"`
		PageSize  int    `json:"page_size" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.AuditLog{})
	if queryData.Table != "" {
		query = query.Where("table_name = ?", queryData.Table)
	}
	if queryData.RecordID != "" {
		query = query.Where("record_id = ?", queryData.RecordID)
	}
	if queryData.Action != "" {
		if queryData.Action != models.AuditInsert && queryData.Action != models.AuditUpdate && queryData.Action != models.AuditDelete {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "审计动作无效"})
			return
		}
		query = query.Where("action = ?", queryData.Action)
	}
	if queryData.UserID != nil {
		query = query.Where("user_id = ?", *queryData.UserID)
	}
	if queryData.StartDate != "" {
		startDate, err := time.ParseInLocation("2006-01-02", queryData.StartDate, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "开始日期格式错误"})
			return
		}
		query = query.Where("created_at >= ?", startDate)
	}
	if queryData.EndDate != "" {
		endDate, err := time.ParseInLocation("2006-01-02", queryData.EndDate, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "结束日期格式错误"})
			return
		}
		query = query.Where("created_at < ?", endDate.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计审计日志总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var logs []models.AuditLog
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		log.Printf("查询审计日志失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	logList := make([]map[string]interface{}, 0, len(logs))
	for _, auditLog := range logs {
		oldValues, _ := utils.JSONStringToMap(auditLog.OldValues)
		newValues, _ := utils.JSONStringToMap(auditLog.NewValues)
		logList = append(logList, map[string]interface{}{
			"id":             auditLog.ID,
			"table":          auditLog.Table,
			"record_id":      auditLog.RecordID,
			"action":         auditLog.Action,
			"user_id":        auditLog.UserID,
			"user_role":      auditLog.UserRole,
			"old_values":     oldValues,
			"new_values":     newValues,
			"changed_fields": auditLog.ChangedFields,
			"created_at":     auditLog.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      logList,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}
