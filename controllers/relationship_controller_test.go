package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"kol_crm/models"
)

// TestRelationshipCreateReplacesActiveParent 切换上级时旧关系置为不活跃，计数同步
func TestRelationshipCreateReplacesActiveParent(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	oldParent := createTestProfile(t, testDB, 2, models.RoleKOL)
	newParent := createTestProfile(t, testDB, 3, models.RoleOL)
	shop := createTestProfile(t, testDB, 4, models.RoleShopOwner)

	rc := &RelationshipController{}

	// 先归属到旧上级
	body := fmt.Sprintf(`{"shop_owner_id": %d, "parent_id": %d}`, shop.ID, oldParent.ID)
	c, w := newTestContext(t, admin, "POST", body)
	rc.RelationshipCreate(c)
	assertStatus(t, w, http.StatusOK)

	// 切换到新上级
	body = fmt.Sprintf(`{"shop_owner_id": %d, "parent_id": %d, "relationship_type": "transferred"}`, shop.ID, newParent.ID)
	c, w = newTestContext(t, admin, "POST", body)
	rc.RelationshipCreate(c)
	assertStatus(t, w, http.StatusOK)

	// 任一时刻只有一条活跃关系
	var activeCount int64
	testDB.Model(&models.ShopRelationship{}).
		Where("shop_owner_id = ? AND is_active = ?", shop.ID, true).Count(&activeCount)
	if activeCount != 1 {
		t.Fatalf("应只有一条活跃关系，实际 %d", activeCount)
	}

	var active models.ShopRelationship
	testDB.Where("shop_owner_id = ? AND is_active = ?", shop.ID, true).First(&active)
	if active.ParentID != newParent.ID {
		t.Errorf("活跃关系应指向新上级 %d，实际 %d", newParent.ID, active.ParentID)
	}
	if active.RelationshipType != models.RelationshipTransferred {
		t.Errorf("关系类型应为transferred: %s", active.RelationshipType)
	}

	// 旧关系保留历史并记录结束时间
	var old models.ShopRelationship
	testDB.Where("shop_owner_id = ? AND is_active = ?", shop.ID, false).First(&old)
	if old.EndedAt == nil {
		t.Error("旧关系应记录结束时间")
	}

	// 双方计数同步
	var oldP, newP models.Profile
	testDB.First(&oldP, oldParent.ID)
	testDB.First(&newP, newParent.ID)
	if oldP.ActiveSubordinates != 0 {
		t.Errorf("旧上级活跃下级数应为0，实际 %d", oldP.ActiveSubordinates)
	}
	if newP.ActiveSubordinates != 1 {
		t.Errorf("新上级活跃下级数应为1，实际 %d", newP.ActiveSubordinates)
	}
}

// TestRelationshipCreateRejectsSelfParent 店铺不能归属于自己
func TestRelationshipCreateRejectsSelfParent(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	kol := createTestProfile(t, testDB, 2, models.RoleKOL)

	rc := &RelationshipController{}
	body := fmt.Sprintf(`{"shop_owner_id": %d, "parent_id": %d}`, kol.ID, kol.ID)
	c, w := newTestContext(t, admin, "POST", body)
	rc.RelationshipCreate(c)
	assertStatus(t, w, http.StatusBadRequest)
}

// TestRelationshipCreateRejectsCycle 不允许形成循环归属
func TestRelationshipCreateRejectsCycle(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	kolA := createTestProfile(t, testDB, 2, models.RoleKOL)
	kolB := createTestProfile(t, testDB, 3, models.RoleKOL)

	rc := &RelationshipController{}

	// A归属于B
	body := fmt.Sprintf(`{"shop_owner_id": %d, "parent_id": %d}`, kolA.ID, kolB.ID)
	c, w := newTestContext(t, admin, "POST", body)
	rc.RelationshipCreate(c)
	assertStatus(t, w, http.StatusOK)

	// B再归属于A，形成环
	body = fmt.Sprintf(`{"shop_owner_id": %d, "parent_id": %d}`, kolB.ID, kolA.ID)
	c, w = newTestContext(t, admin, "POST", body)
	rc.RelationshipCreate(c)
	assertStatus(t, w, http.StatusConflict)
}

// TestRelationshipCreateRejectsNonKolParent 上级必须是KOL或OL
func TestRelationshipCreateRejectsNonKolParent(t *testing.T) {
	testDB := setupControllerTest(t)
	admin := createTestProfile(t, testDB, 1, models.RoleAdmin)
	shopA := createTestProfile(t, testDB, 2, models.RoleShopOwner)
	shopB := createTestProfile(t, testDB, 3, models.RoleShopOwner)

	rc := &RelationshipController{}
	body := fmt.Sprintf(`{"shop_owner_id": %d, "parent_id": %d}`, shopA.ID, shopB.ID)
	c, w := newTestContext(t, admin, "POST", body)
	rc.RelationshipCreate(c)
	assertStatus(t, w, http.StatusBadRequest)
}
