package controllers

import (
	"net/http"
	"testing"
	"time"

	"kol_crm/models"
	"kol_crm/utils"
)

// TestBuildRoundInfoFromLegacyFlags 无回合记录时从旧版布尔标记合成第1回合
func TestBuildRoundInfoFromLegacyFlags(t *testing.T) {
	startDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	age := 32
	clinicalCase := &models.ClinicalCase{
		Name:          "顾客A",
		Gender:        "female",
		Age:           &age,
		TreatmentItem: "再生管理",
		StartDate:     &startDate,
		Notes:         "初诊备注",
		CureBooster:   true,
		PremiumMask:   true,
		SkinPigment:   true,
		SkinEtc:       "干燥",
	}

	roundInfo := BuildRoundInfo(clinicalCase)
	round1, ok := roundInfo["1"].(map[string]interface{})
	if !ok {
		t.Fatalf("应合成第1回合: %v", roundInfo)
	}

	if round1["treatmentDate"] != "2025-03-01" {
		t.Errorf("护理日期应取开始日期: %v", round1["treatmentDate"])
	}
	if round1["treatmentType"] != "再生管理" {
		t.Errorf("护理类型错误: %v", round1["treatmentType"])
	}
	if round1["memo"] != "初诊备注" {
		t.Errorf("备注错误: %v", round1["memo"])
	}

	products, ok := round1["products"].([]string)
	if !ok || len(products) != 2 {
		t.Fatalf("应合成2个商品标记: %v", round1["products"])
	}
	if products[0] != "cure_booster" || products[1] != "premium_mask" {
		t.Errorf("商品标记错误: %v", products)
	}

	skinTypes, ok := round1["skinTypes"].([]string)
	if !ok || len(skinTypes) != 2 {
		t.Fatalf("应合成2个皮肤类型: %v", round1["skinTypes"])
	}
	if skinTypes[0] != "pigment" || skinTypes[1] != "干燥" {
		t.Errorf("皮肤类型错误: %v", skinTypes)
	}
}

// TestBuildRoundInfoPrefersStoredRounds 已有回合记录时不合成
func TestBuildRoundInfoPrefersStoredRounds(t *testing.T) {
	metadata, _ := utils.MapToJSONString(map[string]interface{}{
		"roundInfo": map[string]interface{}{
			"2": map[string]interface{}{"treatmentDate": "2025-03-10", "memo": "第二回合"},
		},
	})
	clinicalCase := &models.ClinicalCase{
		Name:        "顾客A",
		CureBooster: true, // 有存储记录时旧标记被忽略
		Metadata:    metadata,
	}

	roundInfo := BuildRoundInfo(clinicalCase)
	if _, exists := roundInfo["1"]; exists {
		t.Errorf("有存储回合时不应合成第1回合: %v", roundInfo)
	}
	round2, ok := roundInfo["2"].(map[string]interface{})
	if !ok || round2["memo"] != "第二回合" {
		t.Errorf("应返回存储的回合记录: %v", roundInfo)
	}
}

// TestSaveRoundInfoAndReadBack 保存回合信息后按回合号读取
func TestSaveRoundInfoAndReadBack(t *testing.T) {
	testDB := setupControllerTest(t)
	shop := createTestProfile(t, testDB, 1, models.RoleShopOwner)

	clinicalCase := models.ClinicalCase{
		ShopID: shop.ID, SubjectType: "customer", Name: "顾客A",
		Status: models.CaseStatusInProgress, CreatedBy: shop.ID,
	}
	if err := testDB.Create(&clinicalCase).Error; err != nil {
		t.Fatalf("创建案例失败: %v", err)
	}

	clc := &ClinicalController{}
	c, w := newTestContext(t, shop, "POST",
		`{"round_number":2,"info":{"treatmentDate":"2025-03-10","treatmentType":"美白管理","memo":"状态好转"}}`)
	setIDParam(c, clinicalCase.ID)
	clc.SaveRoundInfo(c)
	assertStatus(t, w, http.StatusOK)

	var updated models.ClinicalCase
	testDB.First(&updated, clinicalCase.ID)
	metadata, err := utils.JSONStringToMap(updated.Metadata)
	if err != nil {
		t.Fatalf("解析metadata失败: %v", err)
	}
	roundInfo, ok := metadata["roundInfo"].(map[string]interface{})
	if !ok {
		t.Fatalf("metadata中应有roundInfo: %v", metadata)
	}
	round2, ok := roundInfo["2"].(map[string]interface{})
	if !ok {
		t.Fatalf("应按回合号2存储: %v", roundInfo)
	}
	if round2["treatmentDate"] != "2025-03-10" {
		t.Errorf("护理日期错误: %v", round2["treatmentDate"])
	}

	// 非法日期被拒绝
	c, w = newTestContext(t, shop, "POST",
		`{"round_number":3,"info":{"treatmentDate":"03/10/2025"}}`)
	setIDParam(c, clinicalCase.ID)
	clc.SaveRoundInfo(c)
	assertStatus(t, w, http.StatusBadRequest)
}

// TestCaseDeleteCascades 删除案例时级联删除照片和同意书记录
func TestCaseDeleteCascades(t *testing.T) {
	testDB := setupControllerTest(t)
	shop := createTestProfile(t, testDB, 1, models.RoleShopOwner)

	clinicalCase := models.ClinicalCase{
		ShopID: shop.ID, SubjectType: "customer", Name: "顾客A",
		Status: models.CaseStatusInProgress, CreatedBy: shop.ID,
	}
	if err := testDB.Create(&clinicalCase).Error; err != nil {
		t.Fatalf("创建案例失败: %v", err)
	}
	for i := 0; i < 2; i++ {
		photo := models.ClinicalPhoto{
			CaseID: clinicalCase.ID, PhotoType: "front",
			SessionNumber: i + 1, StorageID: "st_test_" + string(rune('a'+i)),
		}
		if err := testDB.Create(&photo).Error; err != nil {
			t.Fatalf("创建照片失败: %v", err)
		}
	}
	consent := models.ConsentFile{CaseID: clinicalCase.ID, StorageID: "st_consent"}
	if err := testDB.Create(&consent).Error; err != nil {
		t.Fatalf("创建同意书失败: %v", err)
	}

	clc := &ClinicalController{}
	c, w := newTestContext(t, shop, "POST", "")
	setIDParam(c, clinicalCase.ID)
	clc.CaseDelete(c)
	assertStatus(t, w, http.StatusOK)

	var caseCount, photoCount, consentCount int64
	testDB.Model(&models.ClinicalCase{}).Count(&caseCount)
	testDB.Model(&models.ClinicalPhoto{}).Count(&photoCount)
	testDB.Model(&models.ConsentFile{}).Count(&consentCount)
	if caseCount != 0 || photoCount != 0 || consentCount != 0 {
		t.Errorf("级联删除不彻底: cases=%d photos=%d consents=%d", caseCount, photoCount, consentCount)
	}

	// 删除动作写审计日志
	var auditCount int64
	testDB.Model(&models.AuditLog{}).
		Where("table_name = ? AND action = ?", "clinical_cases", models.AuditDelete).Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("应写一条删除审计日志，实际 %d", auditCount)
	}
}
