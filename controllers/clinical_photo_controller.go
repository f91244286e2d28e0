package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"kol_crm/config"
	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClinicalPhotoController 临床照片与同意书控制器

type ClinicalPhotoController struct{}

// PhotoRegister 将已上传的文件绑定为案例照片
// 同一(案例, 回合, 角度)槽位重复上传时替换旧照片，旧文件一并删除
func (cpc *ClinicalPhotoController) PhotoRegister(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var registerData struct {
		CaseID        int    `json:"case_id" binding:"required"`
		SessionNumber int    `json:"session_number" binding:"required,min=1"`
		PhotoType     string `json:"photo_type" binding:"required"`
		StorageID     string `json:"storage_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&registerData); err != nil {
		RespondBindingError(c, err)
		return
	}

	if !containsString(models.ValidPhotoTypes, registerData.PhotoType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "照片角度无效"})
		return
	}

	var clinicalCase models.ClinicalCase
	if err := db.DB.First(&clinicalCase, registerData.CaseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "案例不存在"})
		return
	}
	if !IsAdmin(operator) && operator.ID != clinicalCase.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权操作该案例"})
		return
	}

	var meta models.FileMetadata
	if err := db.DB.Where("storage_id = ?", registerData.StorageID).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "文件未上传"})
		return
	}

	cfg := config.LoadConfig()
	var supersededStorageID string

	var photo models.ClinicalPhoto
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		// 槽位已有照片时先删旧记录
		var old models.ClinicalPhoto
		if err := tx.Where("case_id = ? AND session_number = ? AND photo_type = ?",
			registerData.CaseID, registerData.SessionNumber, registerData.PhotoType).
			First(&old).Error; err == nil {
			if err := tx.Delete(&old).Error; err != nil {
				return err
			}
			supersededStorageID = old.StorageID
		}

		photo = models.ClinicalPhoto{
			CaseID:        registerData.CaseID,
			SessionNumber: registerData.SessionNumber,
			PhotoType:     registerData.PhotoType,
			StorageID:     registerData.StorageID,
			FileSize:      meta.FileSize,
			UploadDate:    time.Now(),
			UploadedBy:    operator.ID,
		}
		if err := tx.Create(&photo).Error; err != nil {
			return err
		}

		if err := recalcCasePhotoStats(tx, registerData.CaseID); err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "clinical_photos", fmt.Sprintf("%d", photo.ID),
			models.AuditInsert, &operator.ID, operator.Role, nil,
			map[string]interface{}{"case_id": registerData.CaseID, "session": registerData.SessionNumber, "type": registerData.PhotoType},
			nil)
	})
	if err != nil {
		log.Printf("登记照片失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "登记照片失败"})
		return
	}

	// 被替换的旧文件删除尽力而为
	if supersededStorageID != "" {
		if err := removeStorageFile(cfg, supersededStorageID); err != nil {
			log.Printf("删除被替换照片文件失败 storage_id=%s: %v", supersededStorageID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "照片登记成功", "data": photo})
}

// recalcCasePhotoStats 重算案例的照片数量和最新回合号
func recalcCasePhotoStats(tx *gorm.DB, caseID int) error {
	var count int64
	if err := tx.Model(&models.ClinicalPhoto{}).Where("case_id = ?", caseID).Count(&count).Error; err != nil {
		return err
	}
	var latest int
	row := tx.Model(&models.ClinicalPhoto{}).Where("case_id = ?", caseID).
		Select("COALESCE(MAX(session_number), 0)").Row()
	if err := row.Scan(&latest); err != nil {
		return err
	}
	return tx.Model(&models.ClinicalCase{}).Where("id = ?", caseID).Updates(map[string]interface{}{
		"photo_count":    count,
		"latest_session": latest,
	}).Error
}

// PhotoList 案例照片列表，可按回合过滤
func (cpc *ClinicalPhotoController) PhotoList(c *gin.Context) {
	caseID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var clinicalCase models.ClinicalCase
	if err := db.DB.First(&clinicalCase, caseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "案例不存在"})
		return
	}
	if !IsAdmin(operator) && operator.ID != clinicalCase.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权查看该案例"})
		return
	}

	query := db.DB.Where("case_id = ?", caseID)
	if session := c.Query("session"); session != "" {
		query = query.Where("session_number = ?", session)
	}

	var photos []models.ClinicalPhoto
	if err := query.Order("session_number ASC, photo_type ASC").Find(&photos).Error; err != nil {
		log.Printf("查询照片列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": photos, "total": len(photos)})
}

// PhotoDelete 删除照片并重算案例计数
func (cpc *ClinicalPhotoController) PhotoDelete(c *gin.Context) {
	photoID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var photo models.ClinicalPhoto
	if err := db.DB.First(&photo, photoID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "照片不存在"})
		return
	}

	var clinicalCase models.ClinicalCase
	if err := db.DB.First(&clinicalCase, photo.CaseID).Error; err == nil {
		if !IsAdmin(operator) && operator.ID != clinicalCase.ShopID {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权删除该照片"})
			return
		}
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&photo).Error; err != nil {
			return err
		}
		if err := recalcCasePhotoStats(tx, photo.CaseID); err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "clinical_photos", fmt.Sprintf("%d", photo.ID),
			models.AuditDelete, &operator.ID, operator.Role,
			map[string]interface{}{"case_id": photo.CaseID, "session": photo.SessionNumber, "type": photo.PhotoType},
			nil, nil)
	})
	if err != nil {
		log.Printf("删除照片失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "删除失败"})
		return
	}

	cfg := config.LoadConfig()
	if err := removeStorageFile(cfg, photo.StorageID); err != nil {
		log.Printf("删除照片文件失败 storage_id=%s: %v", photo.StorageID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "照片已删除"})
}

// ConsentRegister 绑定案例同意书文件，已存在时替换并更新案例同意状态
func (cpc *ClinicalPhotoController) ConsentRegister(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var registerData struct {
		CaseID    int    `json:"case_id" binding:"required"`
		StorageID string `json:"storage_id" binding:"required"`
		FileName  string `json:"file_name"`
		FileType  string `json:"file_type"`
	}
	if err := c.ShouldBindJSON(&registerData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var clinicalCase models.ClinicalCase
	if err := db.DB.First(&clinicalCase, registerData.CaseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "案例不存在"})
		return
	}
	if !IsAdmin(operator) && operator.ID != clinicalCase.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权操作该案例"})
		return
	}

	var meta models.FileMetadata
	if err := db.DB.Where("storage_id = ?", registerData.StorageID).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "文件未上传"})
		return
	}

	now := time.Now()
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.ConsentFile
		if err := tx.Where("case_id = ?", registerData.CaseID).First(&existing).Error; err == nil {
			// 已有同意书时覆盖更新
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"storage_id":  registerData.StorageID,
				"file_name":   registerData.FileName,
				"file_size":   meta.FileSize,
				"file_type":   registerData.FileType,
				"upload_date": now,
				"uploaded_by": operator.ID,
			}).Error; err != nil {
				return err
			}
		} else {
			consentFile := models.ConsentFile{
				CaseID:     registerData.CaseID,
				StorageID:  registerData.StorageID,
				FileName:   registerData.FileName,
				FileSize:   meta.FileSize,
				FileType:   registerData.FileType,
				UploadDate: now,
				UploadedBy: operator.ID,
			}
			if err := tx.Create(&consentFile).Error; err != nil {
				return err
			}
		}

		// 同意书到位即视为已同意
		if err := tx.Model(&clinicalCase).Updates(map[string]interface{}{
			"consent_status": models.ConsentConsented,
			"consent_date":   &now,
		}).Error; err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "consent_files", fmt.Sprintf("%d", registerData.CaseID),
			models.AuditInsert, &operator.ID, operator.Role, nil,
			map[string]interface{}{"case_id": registerData.CaseID}, nil)
	})
	if err != nil {
		log.Printf("登记同意书失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "登记同意书失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "同意书已登记"})
}

// ConsentGet 获取案例的同意书文件信息
func (cpc *ClinicalPhotoController) ConsentGet(c *gin.Context) {
	caseID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var clinicalCase models.ClinicalCase
	if err := db.DB.First(&clinicalCase, caseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "案例不存在"})
		return
	}
	if !IsAdmin(operator) && operator.ID != clinicalCase.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权查看该案例"})
		return
	}

	var consentFile models.ConsentFile
	if err := db.DB.Where("case_id = ?", caseID).First(&consentFile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "同意书不存在"})
		return
	}

	var meta models.FileMetadata
	url := ""
	if err := db.DB.Where("storage_id = ?", consentFile.StorageID).First(&meta).Error; err == nil {
		url = "/media/" + meta.FilePath
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"consent_file": consentFile,
			"url":          url,
		},
	})
}
