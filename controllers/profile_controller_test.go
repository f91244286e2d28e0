package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"kol_crm/models"
	"kol_crm/utils"
)

// TestProfileApprove 审核通过更新状态、记录审核人并通知本人
func TestProfileApprove(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)

	pending := models.Profile{
		UserID: 2, Email: "kol@test.com", Name: "申请人",
		Role: models.RoleKOL, Status: models.ProfileStatusPending,
	}
	if err := testDB.Create(&pending).Error; err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}

	pc := &ProfileController{}
	c, w := newTestContext(t, admin, "POST", "")
	setIDParam(c, pending.ID)
	pc.ProfileApprove(c)
	assertStatus(t, w, http.StatusOK)

	var approved models.Profile
	testDB.First(&approved, pending.ID)
	if approved.Status != models.ProfileStatusApproved {
		t.Errorf("状态应为approved，实际 %s", approved.Status)
	}
	if approved.ApprovedAt == nil || approved.ApprovedBy == nil || *approved.ApprovedBy != admin.ID {
		t.Errorf("应记录审核时间和审核人: %v / %v", approved.ApprovedAt, approved.ApprovedBy)
	}

	// 通知本人
	var notificationCount int64
	testDB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", pending.ID, models.NotifyStatusChanged).Count(&notificationCount)
	if notificationCount != 1 {
		t.Errorf("应给申请人发一条通知，实际 %d", notificationCount)
	}

	// 重复审核被拒
	c, w = newTestContext(t, admin, "POST", "")
	setIDParam(c, pending.ID)
	pc.ProfileApprove(c)
	assertStatus(t, w, http.StatusConflict)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != utils.CodeAlreadyApproved {
		t.Errorf("应返回ALREADY_APPROVED错误码: %v", resp["code"])
	}
}

// TestProfileRejectRequiresReason 驳回必须提供原因
func TestProfileRejectRequiresReason(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)

	pending := models.Profile{
		UserID: 2, Email: "kol@test.com", Name: "申请人",
		Role: models.RoleKOL, Status: models.ProfileStatusPending,
	}
	if err := testDB.Create(&pending).Error; err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}

	pc := &ProfileController{}

	// 无原因
	c, w := newTestContext(t, admin, "POST", "")
	setIDParam(c, pending.ID)
	pc.ProfileReject(c)
	assertStatus(t, w, http.StatusBadRequest)

	// 带原因
	c, w = newTestContext(t, admin, "POST", `{"reason":"资料不完整"}`)
	setIDParam(c, pending.ID)
	pc.ProfileReject(c)
	assertStatus(t, w, http.StatusOK)

	var rejected models.Profile
	testDB.First(&rejected, pending.ID)
	if rejected.Status != models.ProfileStatusRejected {
		t.Errorf("状态应为rejected，实际 %s", rejected.Status)
	}
	if rejected.RejectionReason != "资料不完整" {
		t.Errorf("应记录驳回原因: %s", rejected.RejectionReason)
	}
}

// TestBulkUserActionPartialFailure 批量操作单条失败不影响其他条目
func TestBulkUserActionPartialFailure(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)

	pending := models.Profile{
		UserID: 2, Email: "a@test.com", Name: "待审核",
		Role: models.RoleKOL, Status: models.ProfileStatusPending,
	}
	if err := testDB.Create(&pending).Error; err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}
	// 已审核的重复approve会失败
	approved := createTestProfile(t, testDB, 3, models.RoleOL)

	pc := &ProfileController{}
	body := fmt.Sprintf(`{"profile_ids": [%d, %d, 99999], "action": "approve"}`, pending.ID, approved.ID)
	c, w := newTestContext(t, admin, "POST", body)
	pc.BulkUserAction(c)
	assertStatus(t, w, http.StatusOK)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["processed"] != float64(1) {
		t.Errorf("应成功处理1条，实际 %v", resp["processed"])
	}
	if resp["failed"] != float64(2) {
		t.Errorf("应失败2条，实际 %v", resp["failed"])
	}

	var updated models.Profile
	testDB.First(&updated, pending.ID)
	if updated.Status != models.ProfileStatusApproved {
		t.Errorf("待审核档案应被批准，实际 %s", updated.Status)
	}
}
