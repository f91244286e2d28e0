package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"kol_crm/config"
	"kol_crm/db"
	"kol_crm/models"
	"kol_crm/service/notify"
	"kol_crm/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClinicalController 临床案例控制器

type ClinicalController struct{}

// normalizeCaseStatus 兼容旧客户端传来的active状态
func normalizeCaseStatus(status string) string {
	if status == "active" {
		return models.CaseStatusInProgress
	}
	return status
}

// CaseList 案例列表，店铺维度过滤，附带照片数和同意书标记
func (clc *ClinicalController) CaseList(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var queryData struct {
		ShopID      int    `json:"shop_id"`
		Status      string `json:"status"`
		SubjectType string `json:"subject_type"`
		Consent     string `json:"consent_status"`
		Keyword     string `json:"keyword"`
		Page        int    `json:"page" binding:"required,min=1"`
		PageSize    int    `json:"page_size" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&queryData); err != nil {
		RespondBindingError(c, err)
		return
	}

	query := db.DB.Model(&models.ClinicalCase{})

	if !IsAdmin(operator) {
		query = query.Where("shop_id = ?", operator.ID)
	} else if queryData.ShopID > 0 {
		query = query.Where("shop_id = ?", queryData.ShopID)
	}
	if queryData.Status != "" {
		status := normalizeCaseStatus(queryData.Status)
		if !containsString(models.ValidCaseStatuses, status) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "案例状态无效"})
			return
		}
		query = query.Where("status = ?", status)
	}
	if queryData.SubjectType != "" {
		query = query.Where("subject_type = ?", queryData.SubjectType)
	}
	if queryData.Consent != "" {
		query = query.Where("consent_status = ?", queryData.Consent)
	}
	if queryData.Keyword != "" {
		kw := "%" + queryData.Keyword + "%"
		query = query.Where("name LIKE ? OR case_title LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("统计案例总数失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	offset, limit := utils.Pagination(queryData.Page, queryData.PageSize)
	var cases []models.ClinicalCase
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&cases).Error; err != nil {
		log.Printf("查询案例列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	result := make([]gin.H, 0, len(cases))
	for _, clinicalCase := range cases {
		var consentCount int64
		db.DB.Model(&models.ConsentFile{}).Where("case_id = ?", clinicalCase.ID).Count(&consentCount)
		result = append(result, gin.H{
			"case":             clinicalCase,
			"photo_count":      clinicalCase.PhotoCount,
			"has_consent_file": consentCount > 0,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      result,
		"total":     total,
		"page":      queryData.Page,
		"page_size": queryData.PageSize,
	})
}

// CaseDetail 案例详情，包含照片和同意书
func (clc *ClinicalController) CaseDetail(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	clinicalCase, ok := clc.loadCaseWithPermission(c, id)
	if !ok {
		return
	}

	var photos []models.ClinicalPhoto
	db.DB.Where("case_id = ?", clinicalCase.ID).
		Order("session_number ASC, photo_type ASC").Find(&photos)

	var consentFile models.ConsentFile
	hasConsent := db.DB.Where("case_id = ?", clinicalCase.ID).First(&consentFile).Error == nil

	data := gin.H{
		"case":   clinicalCase,
		"photos": photos,
	}
	if hasConsent {
		data["consent_file"] = consentFile
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// loadCaseWithPermission 加载案例并检查归属权限
func (clc *ClinicalController) loadCaseWithPermission(c *gin.Context, id int) (*models.ClinicalCase, bool) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return nil, false
	}

	var clinicalCase models.ClinicalCase
	if err := db.DB.First(&clinicalCase, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": utils.CodeNotFound, "message": "案例不存在"})
		return nil, false
	}

	if !IsAdmin(operator) && operator.ID != clinicalCase.ShopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "无权访问该案例"})
		return nil, false
	}
	return &clinicalCase, true
}

// CaseCreate 创建案例
func (clc *ClinicalController) CaseCreate(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	var createData struct {
		ShopID           int      `json:"shop_id"`
		SubjectType      string   `json:"subject_type"`
		Name             string   `json:"name" binding:"required"`
		Gender           string   `json:"gender"`
		Age              *int     `json:"age"`
		CaseTitle        string   `json:"case_title"`
		ConcernArea      string   `json:"concern_area"`
		TreatmentPlan    string   `json:"treatment_plan"`
		TreatmentItem    string   `json:"treatment_item"`
		StartDate        string   `json:"start_date"`
		TotalSessions    int      `json:"total_sessions"`
		ConsentStatus    string   `json:"consent_status"`
		MarketingConsent bool     `json:"marketing_consent"`
		CureBooster      bool     `json:"cure_booster"`
		CureMask         bool     `json:"cure_mask"`
		PremiumMask      bool     `json:"premium_mask"`
		AllInOneSerum    bool     `json:"all_in_one_serum"`
		SkinRedSensitive bool     `json:"skin_red_sensitive"`
		SkinPigment      bool     `json:"skin_pigment"`
		SkinPore         bool     `json:"skin_pore"`
		SkinTrouble      bool     `json:"skin_trouble"`
		SkinWrinkle      bool     `json:"skin_wrinkle"`
		SkinEtc          string   `json:"skin_etc"`
		Notes            string   `json:"notes"`
		Tags             []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&createData); err != nil {
		RespondBindingError(c, err)
		return
	}

	shopID := createData.ShopID
	if shopID == 0 {
		shopID = operator.ID
	}
	if !IsAdmin(operator) && operator.ID != shopID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "code": utils.CodeForbidden, "message": "只能为自己的店铺创建案例"})
		return
	}

	subjectType := createData.SubjectType
	if subjectType == "" {
		subjectType = "customer"
	}
	if subjectType != "self" && subjectType != "customer" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "对象类型必须是self或customer"})
		return
	}

	consentStatus := createData.ConsentStatus
	if consentStatus == "" {
		consentStatus = models.ConsentNone
	}
	if !containsString([]string{models.ConsentNone, models.ConsentConsented, models.ConsentPending}, consentStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "同意书状态无效"})
		return
	}

	clinicalCase := models.ClinicalCase{
		ShopID:           shopID,
		SubjectType:      subjectType,
		Name:             createData.Name,
		Gender:           createData.Gender,
		Age:              createData.Age,
		Status:           models.CaseStatusInProgress,
		CaseTitle:        createData.CaseTitle,
		ConcernArea:      createData.ConcernArea,
		TreatmentPlan:    createData.TreatmentPlan,
		TreatmentItem:    createData.TreatmentItem,
		TotalSessions:    createData.TotalSessions,
		ConsentStatus:    consentStatus,
		MarketingConsent: createData.MarketingConsent,
		CureBooster:      createData.CureBooster,
		CureMask:         createData.CureMask,
		PremiumMask:      createData.PremiumMask,
		AllInOneSerum:    createData.AllInOneSerum,
		SkinRedSensitive: createData.SkinRedSensitive,
		SkinPigment:      createData.SkinPigment,
		SkinPore:         createData.SkinPore,
		SkinTrouble:      createData.SkinTrouble,
		SkinWrinkle:      createData.SkinWrinkle,
		SkinEtc:          createData.SkinEtc,
		Notes:            createData.Notes,
		Tags:             utils.SliceToJSONString(createData.Tags),
		CreatedBy:        operator.ID,
	}
	if createData.StartDate != "" {
		if startDate, err := time.Parse("2006-01-02", createData.StartDate); err == nil {
			clinicalCase.StartDate = &startDate
		}
	}
	if consentStatus == models.ConsentConsented {
		now := time.Now()
		clinicalCase.ConsentDate = &now
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clinicalCase).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "clinical_cases", fmt.Sprintf("%d", clinicalCase.ID),
			models.AuditInsert, &operator.ID, operator.Role, nil,
			map[string]interface{}{"name": clinicalCase.Name, "subject_type": subjectType}, nil)
	})
	if err != nil {
		log.Printf("创建案例失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "创建案例失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "案例创建成功", "data": clinicalCase})
}

// CaseUpdate 更新案例字段
func (clc *ClinicalController) CaseUpdate(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	clinicalCase, ok := clc.loadCaseWithPermission(c, id)
	if !ok {
		return
	}
	operator, _ := CurrentProfile(c)

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		RespondBindingError(c, err)
		return
	}

	// 允许更新的字段白名单
	allowedFields := map[string]bool{
		"name": true, "gender": true, "age": true, "case_title": true,
		"concern_area": true, "treatment_plan": true, "treatment_item": true,
		"total_sessions": true, "marketing_consent": true, "notes": true,
		"cure_booster": true, "cure_mask": true, "premium_mask": true, "all_in_one_serum": true,
		"skin_red_sensitive": true, "skin_pigment": true, "skin_pore": true,
		"skin_trouble": true, "skin_wrinkle": true, "skin_etc": true,
	}

	updates := map[string]interface{}{}
	changedFields := []string{}
	for key, value := range updateData {
		if allowedFields[key] {
			updates[key] = value
			changedFields = append(changedFields, key)
		}
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "没有可更新的字段"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(clinicalCase).Updates(updates).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "clinical_cases", fmt.Sprintf("%d", clinicalCase.ID),
			models.AuditUpdate, &operator.ID, operator.Role, nil, updates, changedFields)
	})
	if err != nil {
		log.Printf("更新案例失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "案例更新成功"})
}

// CaseUpdateStatus 更新案例状态，完成时记录结束日期
func (clc *ClinicalController) CaseUpdateStatus(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	clinicalCase, ok := clc.loadCaseWithPermission(c, id)
	if !ok {
		return
	}
	operator, _ := CurrentProfile(c)

	var statusData struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&statusData); err != nil {
		RespondBindingError(c, err)
		return
	}

	newStatus := normalizeCaseStatus(statusData.Status)
	if !containsString(models.ValidCaseStatuses, newStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "案例状态无效"})
		return
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == models.CaseStatusCompleted {
		now := time.Now()
		updates["end_date"] = &now
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(clinicalCase).Updates(updates).Error; err != nil {
			return err
		}

		if err := notify.CreateNotification(tx, clinicalCase.ShopID, models.NotifyClinicalProgress,
			"案例状态变更", fmt.Sprintf("案例 %s 状态变更为 %s", clinicalCase.Name, newStatus),
			"clinical_case", fmt.Sprintf("%d", clinicalCase.ID), models.PriorityNormal); err != nil {
			return err
		}

		return notify.WriteAuditLog(tx, "clinical_cases", fmt.Sprintf("%d", clinicalCase.ID),
			models.AuditUpdate, &operator.ID, operator.Role,
			map[string]interface{}{"status": clinicalCase.Status},
			map[string]interface{}{"status": newStatus}, []string{"status"})
	})
	if err != nil {
		log.Printf("更新案例状态失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "更新失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "案例状态已更新"})
}

// CaseDelete 删除案例
// 数据库行在同一事务内级联删除，存储文件删除尽力而为
func (clc *ClinicalController) CaseDelete(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	clinicalCase, ok := clc.loadCaseWithPermission(c, id)
	if !ok {
		return
	}
	operator, _ := CurrentProfile(c)

	var photos []models.ClinicalPhoto
	db.DB.Where("case_id = ?", clinicalCase.ID).Find(&photos)

	var consentFile models.ConsentFile
	hasConsent := db.DB.Where("case_id = ?", clinicalCase.ID).First(&consentFile).Error == nil

	cfg := config.LoadConfig()

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", clinicalCase.ID).Delete(&models.ClinicalPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", clinicalCase.ID).Delete(&models.ConsentFile{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(clinicalCase).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "clinical_cases", fmt.Sprintf("%d", clinicalCase.ID),
			models.AuditDelete, &operator.ID, operator.Role,
			map[string]interface{}{"name": clinicalCase.Name},
			map[string]interface{}{"deleted_photos": len(photos)}, nil)
	})
	if err != nil {
		log.Printf("删除案例失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "删除失败"})
		return
	}

	// 存储文件删除失败只记日志，不影响结果
	for _, photo := range photos {
		if err := removeStorageFile(cfg, photo.StorageID); err != nil {
			log.Printf("删除照片文件失败 storage_id=%s: %v", photo.StorageID, err)
		}
	}
	if hasConsent {
		if err := removeStorageFile(cfg, consentFile.StorageID); err != nil {
			log.Printf("删除同意书文件失败 storage_id=%s: %v", consentFile.StorageID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"message":        "案例已删除",
		"deleted_photos": len(photos),
	})
}

// CaseStats 案例统计
func (clc *ClinicalController) CaseStats(c *gin.Context) {
	operator, ok := CurrentProfile(c)
	if !ok {
		return
	}

	query := db.DB.Model(&models.ClinicalCase{})
	if !IsAdmin(operator) {
		query = query.Where("shop_id = ?", operator.ID)
	}

	type statRow struct {
		Status string
		Count  int64
	}
	var rows []statRow
	if err := query.Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		log.Printf("案例统计失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "查询失败"})
		return
	}

	byStatus := map[string]int64{}
	var total int64
	for _, row := range rows {
		byStatus[row.Status] = row.Count
		total += row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"total":     total,
			"by_status": byStatus,
		},
	})
}

// roundInfoRecord 回合顾客信息，写入前在边界做结构校验
type roundInfoRecord struct {
	Age           *int     `json:"age"`
	Gender        string   `json:"gender"`
	TreatmentType string   `json:"treatmentType"`
	TreatmentDate string   `json:"treatmentDate"`
	Products      []string `json:"products"`
	SkinTypes     []string `json:"skinTypes"`
	Memo          string   `json:"memo"`
}

// SaveRoundInfo 保存指定回合的顾客信息到案例metadata
func (clc *ClinicalController) SaveRoundInfo(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	clinicalCase, ok := clc.loadCaseWithPermission(c, id)
	if !ok {
		return
	}
	operator, _ := CurrentProfile(c)

	var roundData struct {
		RoundNumber int             `json:"round_number" binding:"required,min=1"`
		Info        roundInfoRecord `json:"info" binding:"required"`
	}
	if err := c.ShouldBindJSON(&roundData); err != nil {
		RespondBindingError(c, err)
		return
	}
	if roundData.Info.TreatmentDate != "" {
		if _, err := time.Parse("2006-01-02", roundData.Info.TreatmentDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "护理日期格式必须为YYYY-MM-DD"})
			return
		}
	}

	metadata, err := utils.JSONStringToMap(clinicalCase.Metadata)
	if err != nil {
		metadata = map[string]interface{}{}
	}
	roundInfo, _ := metadata["roundInfo"].(map[string]interface{})
	if roundInfo == nil {
		roundInfo = map[string]interface{}{}
	}
	roundInfo[strconv.Itoa(roundData.RoundNumber)] = map[string]interface{}{
		"age":           roundData.Info.Age,
		"gender":        roundData.Info.Gender,
		"treatmentType": roundData.Info.TreatmentType,
		"treatmentDate": roundData.Info.TreatmentDate,
		"products":      roundData.Info.Products,
		"skinTypes":     roundData.Info.SkinTypes,
		"memo":          roundData.Info.Memo,
	}
	metadata["roundInfo"] = roundInfo
	metadataJSON, _ := utils.MapToJSONString(metadata)

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(clinicalCase).Update("metadata", metadataJSON).Error; err != nil {
			return err
		}
		return notify.WriteAuditLog(tx, "clinical_cases", fmt.Sprintf("%d", clinicalCase.ID),
			models.AuditUpdate, &operator.ID, operator.Role, nil,
			map[string]interface{}{"round_number": roundData.RoundNumber}, []string{"metadata"})
	})
	if err != nil {
		log.Printf("保存回合信息失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": utils.CodeDatabaseError, "message": "保存失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "回合信息已保存"})
}

// GetRoundInfo 获取案例所有回合信息
// 旧数据没有roundInfo时，用案例基础字段合成第1回合
func (clc *ClinicalController) GetRoundInfo(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	clinicalCase, ok := clc.loadCaseWithPermission(c, id)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   BuildRoundInfo(clinicalCase),
	})
}

// BuildRoundInfo 从案例构造回合信息映射，无记录时合成第1回合
func BuildRoundInfo(clinicalCase *models.ClinicalCase) map[string]interface{} {
	metadata, err := utils.JSONStringToMap(clinicalCase.Metadata)
	if err == nil {
		if roundInfo, ok := metadata["roundInfo"].(map[string]interface{}); ok && len(roundInfo) > 0 {
			return roundInfo
		}
	}

	// 从旧版布尔标记合成商品和皮肤类型列表
	products := []string{}
	if clinicalCase.CureBooster {
		products = append(products, "cure_booster")
	}
	if clinicalCase.CureMask {
		products = append(products, "cure_mask")
	}
	if clinicalCase.PremiumMask {
		products = append(products, "premium_mask")
	}
	if clinicalCase.AllInOneSerum {
		products = append(products, "all_in_one_serum")
	}

	skinTypes := []string{}
	if clinicalCase.SkinRedSensitive {
		skinTypes = append(skinTypes, "red_sensitive")
	}
	if clinicalCase.SkinPigment {
		skinTypes = append(skinTypes, "pigment")
	}
	if clinicalCase.SkinPore {
		skinTypes = append(skinTypes, "pore")
	}
	if clinicalCase.SkinTrouble {
		skinTypes = append(skinTypes, "trouble")
	}
	if clinicalCase.SkinWrinkle {
		skinTypes = append(skinTypes, "wrinkle")
	}
	if clinicalCase.SkinEtc != "" {
		skinTypes = append(skinTypes, clinicalCase.SkinEtc)
	}

	treatmentDate := ""
	if clinicalCase.StartDate != nil {
		treatmentDate = clinicalCase.StartDate.Format("2006-01-02")
	}

	return map[string]interface{}{
		"1": map[string]interface{}{
			"age":           clinicalCase.Age,
			"gender":        clinicalCase.Gender,
			"treatmentType": clinicalCase.TreatmentItem,
			"treatmentDate": treatmentDate,
			"products":      products,
			"skinTypes":     skinTypes,
			"memo":          clinicalCase.Notes,
		},
	}
}

// removeStorageFile 按storage_id删除磁盘文件和元数据记录
func removeStorageFile(cfg config.Config, storageID string) error {
	var meta models.FileMetadata
	if err := db.DB.Where("storage_id = ?", storageID).First(&meta).Error; err != nil {
		return err
	}
	if err := utils.RemoveMediaFile(cfg.MediaDir, meta.FilePath); err != nil {
		return err
	}
	return db.DB.Delete(&meta).Error
}
