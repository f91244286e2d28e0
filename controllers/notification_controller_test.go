package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"kol_crm/models"

	"gorm.io/gorm"
)

func createTestNotification(t *testing.T, testDB *gorm.DB, userID int, isRead bool) *models.Notification {
	t.Helper()
	notification := models.Notification{
		UserID:   userID,
		Type:     models.NotifySystem,
		Title:    "测试通知",
		Message:  "测试内容",
		Priority: models.PriorityNormal,
		IsRead:   isRead,
	}
	if isRead {
		readAt := time.Now().Add(-time.Hour)
		notification.ReadAt = &readAt
	}
	if err := testDB.Create(&notification).Error; err != nil {
		t.Fatalf("创建测试通知失败: %v", err)
	}
	return &notification
}

// TestMarkReadIdempotent 重复标记已读不改动首次已读时间
func TestMarkReadIdempotent(t *testing.T) {
	testDB := setupControllerTest(t)
	profile := createTestProfile(t, testDB, 1, models.RoleKOL)
	notification := createTestNotification(t, testDB, profile.ID, false)

	nc := &NotificationController{}

	// 第一次标记
	c, w := newTestContext(t, profile, "POST", "")
	setIDParam(c, notification.ID)
	nc.MarkRead(c)
	assertStatus(t, w, http.StatusOK)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["already_read"] != false {
		t.Errorf("首次标记already_read应为false: %v", resp)
	}

	var updated models.Notification
	testDB.First(&updated, notification.ID)
	if !updated.IsRead || updated.ReadAt == nil {
		t.Fatal("标记后应为已读且记录已读时间")
	}
	firstReadAt := *updated.ReadAt

	// 第二次标记：幂等，read_at不变
	c, w = newTestContext(t, profile, "POST", "")
	setIDParam(c, notification.ID)
	nc.MarkRead(c)
	assertStatus(t, w, http.StatusOK)

	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["already_read"] != true {
		t.Errorf("重复标记already_read应为true: %v", resp)
	}

	testDB.First(&updated, notification.ID)
	if !updated.ReadAt.Equal(firstReadAt) {
		t.Errorf("重复标记不应改动首次已读时间: %v != %v", updated.ReadAt, firstReadAt)
	}
}

// TestMarkReadForbiddenForOtherUser 不能标记别人的通知
func TestMarkReadForbiddenForOtherUser(t *testing.T) {
	testDB := setupControllerTest(t)
	owner := createTestProfile(t, testDB, 1, models.RoleKOL)
	other := createTestProfile(t, testDB, 2, models.RoleShopOwner)
	notification := createTestNotification(t, testDB, owner.ID, false)

	nc := &NotificationController{}
	c, w := newTestContext(t, other, "POST", "")
	setIDParam(c, notification.ID)
	nc.MarkRead(c)
	assertStatus(t, w, http.StatusForbidden)
}

// TestMarkAllRead 全部标记后未读清零，整批只写一条审计日志
func TestMarkAllRead(t *testing.T) {
	testDB := setupControllerTest(t)
	profile := createTestProfile(t, testDB, 1, models.RoleKOL)
	for i := 0; i < 3; i++ {
		createTestNotification(t, testDB, profile.ID, false)
	}
	// 已读的不计入
	createTestNotification(t, testDB, profile.ID, true)

	nc := &NotificationController{}
	c, w := newTestContext(t, profile, "POST", "")
	nc.MarkAllRead(c)
	assertStatus(t, w, http.StatusOK)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["marked_read"] != float64(3) {
		t.Errorf("应标记3条，实际 %v", resp["marked_read"])
	}

	var unreadCount int64
	testDB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", profile.ID, false).Count(&unreadCount)
	if unreadCount != 0 {
		t.Errorf("未读数应清零，实际 %d", unreadCount)
	}

	var auditCount int64
	testDB.Model(&models.AuditLog{}).Where("table_name = ?", "notifications").Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("整批操作应只写一条审计日志，实际 %d 条", auditCount)
	}
}

// TestNotificationSoftDelete 软删除后列表不再返回
func TestNotificationSoftDelete(t *testing.T) {
	testDB := setupControllerTest(t)
	profile := createTestProfile(t, testDB, 1, models.RoleKOL)
	notification := createTestNotification(t, testDB, profile.ID, false)

	nc := &NotificationController{}
	c, w := newTestContext(t, profile, "POST", "")
	setIDParam(c, notification.ID)
	nc.NotificationDelete(c)
	assertStatus(t, w, http.StatusOK)

	// 软删除后记录仍在表里
	var count int64
	testDB.Model(&models.Notification{}).Count(&count)
	if count != 1 {
		t.Fatalf("软删除不应物理删除记录，实际 %d 条", count)
	}

	// 列表接口不返回
	c, w = newTestContext(t, profile, "POST", `{"page":1,"page_size":10}`)
	nc.NotificationList(c)
	assertStatus(t, w, http.StatusOK)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["total"] != float64(0) {
		t.Errorf("软删除的通知不应出现在列表中: %v", resp["total"])
	}
}
