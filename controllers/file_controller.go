package controllers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"kol_crm/config"
	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
)

// FileController 文件上传控制器
// 上传分三步：申请上传地址 → PUT原始字节 → 业务接口绑定storage_id

type FileController struct{}

// GenerateUploadURL 申请上传地址，返回storage_id和对应的上传URL
func (fc *FileController) GenerateUploadURL(c *gin.Context) {
	_, ok := CurrentProfile(c)
	if !ok {
		return
	}

	storageID := fmt.Sprintf("st_%d_%s", time.Now().UnixNano(), utils.GenerateUniqueFilename("f"))
	// storage_id里不允许路径分隔符
	storageID = strings.ReplaceAll(storageID, "/", "")

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"storage_id": storageID,
		"upload_url": "/files/upload/" + storageID,
	})
}

// Upload 接收原始文件字节并记录元数据
// 文件名通过X-File-Name头或filename参数传递
func (fc *FileController) Upload(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	storageID := c.Param("storage_id")
	if storageID == "" || strings.Contains(storageID, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "storage_id无效"})
		return
	}

	// 同一storage_id只允许上传一次
	var existing models.FileMetadata
	if err := db.DB.Where("storage_id = ?", storageID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeAlreadyExists, "message": "该storage_id已上传过文件"})
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "文件内容为空"})
		return
	}

	fileName := c.GetHeader("X-File-Name")
	if fileName == "" {
		fileName = c.Query("filename")
	}
	if fileName == "" {
		fileName = storageID
	}

	cfg := config.LoadConfig()
	relPath, err := utils.SaveRawFile(cfg.MediaDir, "uploads", utils.GenerateUniqueFilename(fileName), data)
	if err != nil {
		log.Printf("保存上传文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "保存文件失败"})
		return
	}

	// 图片类文件记录尺寸
	width, height := utils.ProbeImageDimensions(data)

	meta := models.FileMetadata{
		StorageID:  storageID,
		FilePath:   relPath,
		FileName:   fileName,
		FileSize:   int64(len(data)),
		MimeType:   c.ContentType(),
		Width:      width,
		Height:     height,
		UploadedBy: operator.ID,
	}
	if err := db.DB.Create(&meta).Error; err != nil {
		log.Printf("记录文件元数据失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "记录文件元数据失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"storage_id": storageID,
		"file_size":  meta.FileSize,
		"width":      width,
		"height":     height,
	})
}

// FileURL 获取文件的访问地址
func (fc *FileController) FileURL(c *gin.Context) {
	storageID := c.Param("storage_id")

	var meta models.FileMetadata
	if err := db.DB.Where("storage_id = ?", storageID).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "文件不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"url":    "/media/" + meta.FilePath,
		"data":   meta,
	})
}

// UserFiles 当前用户上传的文件列表
func (fc *FileController) UserFiles(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var files []models.FileMetadata
	if err := db.DB.Where("uploaded_by = ?", operator.ID).
		Order("created_at DESC").Limit(100).Find(&files).Error; err != nil {
		log.Printf("查询用户文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": files, "total": len(files)})
}
