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

// RelationshipController 店铺归属关系控制器

type RelationshipController struct{}

// RelationshipCreate 建立店铺与上级KOL/OL的归属关系
// 同一店铺只允许一条活跃关系，切换时旧关系在同一事务内结束
func (rc *RelationshipController) RelationshipCreate(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var createData struct {
		ShopOwnerID      int    `json:"shop_owner_id" binding:"required"`
		ParentID         int    `json:"parent_id" binding:"required"`
		RelationshipType string `json:"relationship_type"`
		Notes            string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&createData); err != nil {
		RespondBindingError(c, err)
		return
	}

	if createData.ShopOwnerID == createData.ParentID {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": utils.CodeCircularRelationship, "message": "店铺不能归属于自己"})
		return
	}

	if createData.RelationshipType == "" {
		createData.RelationshipType = models.RelationshipDirect
	}
	validTypes := []string{models.RelationshipDirect, models.RelationshipTransferred, models.RelationshipTemporary}
	if !containsString(validTypes, createData.RelationshipType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "无效的关系类型"})
		return
	}

	var shop, parent models.Profile
	if err := db.DB.First(&shop, createData.ShopOwnerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "店铺档案不存在"})
		return
	}
	if err := db.DB.First(&parent, createData.ParentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "上级档案不存在"})
		return
	}
	if parent.Role != models.RoleKOL && parent.Role != models.RoleOL {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "上级必须是KOL或OL"})
		return
	}

	// 循环归属检查：沿上级链向上走，不允许遇到目标店铺
	if rc.wouldFormCycle(createData.ShopOwnerID, createData.ParentID) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeCircularRelationship, "message": "不允许形成循环归属关系"})
		return
	}

	now := time.Now()
	var relationship models.ShopRelationship
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		// 结束当前活跃关系
		var oldRel models.ShopRelationship
		if err := tx.Where("shop_owner_id = ? AND is_active = ?", createData.ShopOwnerID, true).
			First(&oldRel).Error; err == nil {
			if err := tx.Model(&oldRel).Updates(map[string]interface{}{
				"is_active": false,
				"ended_at":  &now,
			}).Error; err != nil {
				return err
			}
			// 旧上级的下级计数同步
			if err := recalcSubordinateCounts(tx, oldRel.ParentID); err != nil {
				return err
			}
		}

		relationship = models.ShopRelationship{
			ShopOwnerID:      createData.ShopOwnerID,
			ParentID:         createData.ParentID,
			StartedAt:        now,
			IsActive:         true,
			RelationshipType: createData.RelationshipType,
			Notes:            createData.Notes,
			CreatedBy:        operator.ID,
		}
		if err := tx.Create(&relationship).Error; err != nil {
			return err
		}

		if err := recalcSubordinateCounts(tx, createData.ParentID); err != nil {
			return err
		}

		if err := notify.CreateNotification(tx, createData.ParentID, models.NotifyCRMUpdate,
			"新增下级店铺", shop.Name+" 已归属到您的名下", "relationship",
			fmt.Sprintf("%d", relationship.ID), models.PriorityNormal); err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "shop_relationships", fmt.Sprintf("%d", relationship.ID),
			models.AuditInsert, &operator.ID, operator.Role, nil,
			map[string]interface{}{"shop_owner_id": createData.ShopOwnerID, "parent_id": createData.ParentID},
			nil)
	})
	if err != nil {
		log.Printf("建立归属关系失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "建立归属关系失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "归属关系建立成功", "data": relationship})
}

// wouldFormCycle 检查parent的上级链中是否出现shopOwner
func (rc *RelationshipController) wouldFormCycle(shopOwnerID, parentID int) bool {
	current := parentID
	// 链长上限防御脏数据
	for depth := 0; depth < 20; depth++ {
		var rel models.ShopRelationship
		if err := db.DB.Where("shop_owner_id = ? AND is_active = ?", current, true).
			First(&rel).Error; err != nil {
			return false
		}
		if rel.ParentID == shopOwnerID {
			return true
		}
		current = rel.ParentID
	}
	return false
}

// recalcSubordinateCounts 重算某个上级的下级店铺计数
func recalcSubordinateCounts(tx *gorm.DB, parentID int) error {
	var total, active int64
	if err := tx.Model(&models.ShopRelationship{}).
		Where("parent_id = ?", parentID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.ShopRelationship{}).
		Where("parent_id = ? AND is_active = ?", parentID, true).Count(&active).Error; err != nil {
		return err
	}
	return tx.Model(&models.Profile{}).Where("id = ?", parentID).Updates(map[string]interface{}{
		"total_subordinates":  total,
		"active_subordinates": active,
	}).Error
}

// RelationshipEnd 结束归属关系
func (rc *RelationshipController) RelationshipEnd(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var rel models.ShopRelationship
	if err := db.DB.First(&rel, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "归属关系不存在"})
		return
	}
	if !rel.IsActive {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "code": utils.CodeConflict, "message": "归属关系已结束"})
		return
	}

	now := time.Now()
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&rel).Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  &now,
		}).Error; err != nil {
			return err
		}
		if err := recalcSubordinateCounts(tx, rel.ParentID); err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "shop_relationships", fmt.Sprintf("%d", rel.ID),
			models.AuditUpdate, &operator.ID, operator.Role,
			map[string]interface{}{"is_active": true},
			map[string]interface{}{"is_active": false}, []string{"is_active", "ended_at"})
	})
	if err != nil {
		log.Printf("结束归属关系失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "操作失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "归属关系已结束"})
}

// SubordinateShops 查询某KOL/OL的活跃下级店铺
func (rc *RelationshipController) SubordinateShops(c *gin.Context) {
	parentID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}
	// 非管理员只能查自己的下级
	if !IsAdmin(operator) && operator.ID != parentID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能查询自己的下级店铺"})
		return
	}

	var rels []models.ShopRelationship
	if err := db.DB.Where("parent_id = ? AND is_active = ?", parentID, true).Find(&rels).Error; err != nil {
		log.Printf("查询下级关系失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	result := make([]gin.H, 0, len(rels))
	for _, rel := range rels {
		var shop models.Profile
		if err := db.DB.First(&shop, rel.ShopOwnerID).Error; err != nil {
			continue
		}
		result = append(result, gin.H{
			"relationship": rel,
			"shop":         shop,
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result, "total": len(result)})
}

// ParentChain 查询店铺的上级链
func (rc *RelationshipController) ParentChain(c *gin.Context) {
	shopID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	chain := []gin.H{}
	current := shopID
	for depth := 0; depth < 20; depth++ {
		var rel models.ShopRelationship
		if err := db.DB.Where("shop_owner_id = ? AND is_active = ?", current, true).
			First(&rel).Error; err != nil {
			break
		}
		var parent models.Profile
		if err := db.DB.First(&parent, rel.ParentID).Error; err != nil {
			break
		}
		chain = append(chain, gin.H{
			"profile_id": parent.ID,
			"name":       parent.Name,
			"role":       parent.Role,
			"shop_name":  parent.ShopName,
		})
		current = rel.ParentID
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": chain})
}

// OrganizationTree 组织树（管理员），从所有无上级的KOL/OL向下展开
func (rc *RelationshipController) OrganizationTree(c *gin.Context) {
	var roots []models.Profile
	if err := db.DB.Where("role IN ? AND status = ?",
		[]string{models.RoleKOL, models.RoleOL}, models.ProfileStatusApproved).
		Find(&roots).Error; err != nil {
		log.Printf("查询组织树根节点失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	tree := make([]gin.H, 0, len(roots))
	for _, root := range roots {
		// 自己有活跃上级的不作为根节点
		var upward models.ShopRelationship
		if err := db.DB.Where("shop_owner_id = ? AND is_active = ?", root.ID, true).
			First(&upward).Error; err == nil {
			continue
		}
		tree = append(tree, rc.buildTreeNode(root, 0))
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": tree})
}

// buildTreeNode 递归构建组织树节点，深度上限防御循环数据
func (rc *RelationshipController) buildTreeNode(p models.Profile, depth int) gin.H {
	node := gin.H{
		"profile_id": p.ID,
		"name":       p.Name,
		"role":       p.Role,
		"shop_name":  p.ShopName,
		"children":   []gin.H{},
	}
	if depth >= 10 {
		return node
	}

	var rels []models.ShopRelationship
	if err := db.DB.Where("parent_id = ? AND is_active = ?", p.ID, true).Find(&rels).Error; err != nil {
		return node
	}

	children := make([]gin.H, 0, len(rels))
	for _, rel := range rels {
		var child models.Profile
		if err := db.DB.First(&child, rel.ShopOwnerID).Error; err != nil {
			continue
		}
		children = append(children, rc.buildTreeNode(child, depth+1))
	}
	node["children"] = children
	return node
}
