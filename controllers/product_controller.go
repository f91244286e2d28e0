package controllers

import (
	"fmt"
	"log"
	"net/http"

	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProductController 商品控制器

type ProductController struct{}

// ProductList 商品列表，默认只返回在售商品
func (pdc *ProductController) ProductList(c *gin.Context) {
	query := db.DB.Model(&models.Product{})
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if category := c.Query("category"); category != "" {
		if !containsString(models.ValidProductCategories, category) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "商品分类无效"})
			return
		}
		query = query.Where("category = ?", category)
	}

	var products []models.Product
	if err := query.Order("sort_order ASC, id ASC").Find(&products).Error; err != nil {
		log.Printf("查询商品列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": products, "total": len(products)})
}

// ProductCreate 创建商品（管理员）
func (pdc *ProductController) ProductCreate(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var createData struct {
		Name                  string  `json:"name" binding:"required"`
		Code                  string  `json:"code" binding:"required"`
		Category              string  `json:"category" binding:"required"`
		Price                 float64 `json:"price" binding:"required,min=0"`
		DefaultCommissionRate float64 `json:"default_commission_rate"`
		MinCommissionRate     float64 `json:"min_commission_rate"`
		MaxCommissionRate     float64 `json:"max_commission_rate"`
		SortOrder             int     `json:"sort_order"`
		Description           string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&createData); err != nil {
		RespondBindingError(c, err)
		return
	}

	if !containsString(models.ValidProductCategories, createData.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "商品分类无效"})
		return
	}

	var existing models.Product
	if err := db.DB.Where("code = ?", createData.Code).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeAlreadyExists, "message": "商品编码已存在"})
		return
	}

	product := models.Product{
		Name:                  createData.Name,
		Code:                  createData.Code,
		Category:              createData.Category,
		Price:                 createData.Price,
		IsActive:              true,
		DefaultCommissionRate: createData.DefaultCommissionRate,
		MinCommissionRate:     createData.MinCommissionRate,
		MaxCommissionRate:     createData.MaxCommissionRate,
		SortOrder:             createData.SortOrder,
		Description:           createData.Description,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "products", fmt.Sprintf("%d", product.ID), models.AuditInsert,
			&operator.ID, operator.Role, nil,
			map[string]interface{}{"code": product.Code, "name": product.Name}, nil)
	})
	if err != nil {
		log.Printf("创建商品失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "创建失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "商品创建成功", "data": product})
}

// ProductUpdate 更新商品（管理员）
func (pdc *ProductController) ProductUpdate(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var updateData struct {
		Name                  *string  `json:"name"`
		Price                 *float64 `json:"price"`
		IsActive              *bool    `json:"is_active"`
		DefaultCommissionRate *float64 `json:"default_commission_rate"`
		SortOrder             *int     `json:"sort_order"`
		Description           *string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		RespondBindingError(c, err)
		return
	}

	var product models.Product
	if err := db.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "商品不存在"})
		return
	}

	updates := map[string]interface{}{}
	if updateData.Name != nil {
		updates["name"] = *updateData.Name
	}
	if updateData.Price != nil {
		if *updateData.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeInvalidAmount, "message": "价格不能为负"})
			return
		}
		updates["price"] = *updateData.Price
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}
	if updateData.DefaultCommissionRate != nil {
		updates["default_commission_rate"] = *updateData.DefaultCommissionRate
	}
	if updateData.SortOrder != nil {
		updates["sort_order"] = *updateData.SortOrder
	}
	if updateData.Description != nil {
		updates["description"] = *updateData.Description
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "没有需要更新的字段"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "products", fmt.Sprintf("%d", product.ID), models.AuditUpdate,
			&operator.ID, operator.Role, nil, updates, nil)
	})
	if err != nil {
		log.Printf("更新商品失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "商品更新成功"})
}
