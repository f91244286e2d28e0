package controllers

import (
	"net/http"
	"testing"

	"kol_crm/models"
)

// TestJournalUpsertSingleRowPerDay 同一用户同一天重复提交只保留一条记录
func TestJournalUpsertSingleRowPerDay(t *testing.T) {
	testDB := setupControllerTest(t)
	profile := createTestProfile(t, testDB, 1, models.RoleKOL)

	sjc := &SalesJournalController{}

	c, w := newTestContext(t, profile, "POST", `{"date":"2025-03-15","content":"第一版内容"}`)
	sjc.JournalUpsert(c)
	assertStatus(t, w, http.StatusOK)

	// 同一天再次提交，覆盖更新
	c, w = newTestContext(t, profile, "POST", `{"date":"2025-03-15","content":"第二版内容","special_notes":"补充说明"}`)
	sjc.JournalUpsert(c)
	assertStatus(t, w, http.StatusOK)

	var count int64
	testDB.Model(&models.SalesJournal{}).
		Where("user_id = ? AND date = ?", profile.ID, "2025-03-15").Count(&count)
	if count != 1 {
		t.Fatalf("同一天应只有一条日志，实际 %d 条", count)
	}

	var journal models.SalesJournal
	testDB.Where("user_id = ? AND date = ?", profile.ID, "2025-03-15").First(&journal)
	if journal.Content != "第二版内容" {
		t.Errorf("内容应被覆盖更新: %s", journal.Content)
	}
	if journal.SpecialNotes != "补充说明" {
		t.Errorf("特记事项应被更新: %s", journal.SpecialNotes)
	}

	// 不同日期生成新记录
	c, w = newTestContext(t, profile, "POST", `{"date":"2025-03-16","content":"另一天"}`)
	sjc.JournalUpsert(c)
	assertStatus(t, w, http.StatusOK)

	testDB.Model(&models.SalesJournal{}).Where("user_id = ?", profile.ID).Count(&count)
	if count != 2 {
		t.Errorf("不同日期应各有一条，实际 %d 条", count)
	}
}

// TestJournalUpsertRejectsBadDate 非法日期格式被拒绝
func TestJournalUpsertRejectsBadDate(t *testing.T) {
	testDB := setupControllerTest(t)
	profile := createTestProfile(t, testDB, 1, models.RoleKOL)

	sjc := &SalesJournalController{}
	c, w := newTestContext(t, profile, "POST", `{"date":"2025/03/15","content":"内容"}`)
	sjc.JournalUpsert(c)
	assertStatus(t, w, http.StatusBadRequest)
}

// TestJournalLinksShopByName 店铺名精确匹配时自动关联店铺档案
func TestJournalLinksShopByName(t *testing.T) {
	testDB := setupControllerTest(t)
	profile := createTestProfile(t, testDB, 1, models.RoleKOL)

	shop := models.Profile{
		UserID: 2, Email: "shop@test.com", Name: "店主",
		Role: models.RoleShopOwner, Status: models.ProfileStatusApproved,
		ShopName: "테스트 샵",
	}
	if err := testDB.Create(&shop).Error; err != nil {
		t.Fatalf("创建店铺失败: %v", err)
	}

	sjc := &SalesJournalController{}
	c, w := newTestContext(t, profile, "POST", `{"date":"2025-03-15","shop_name":"테스트 샵","content":"拜访记录"}`)
	sjc.JournalUpsert(c)
	assertStatus(t, w, http.StatusOK)

	var journal models.SalesJournal
	testDB.Where("user_id = ?", profile.ID).First(&journal)
	if journal.ShopID == nil || *journal.ShopID != shop.ID {
		t.Errorf("应按店铺名关联档案ID %d，实际 %v", shop.ID, journal.ShopID)
	}

	// 不存在的店铺名不关联，但不报错
	c, w = newTestContext(t, profile, "POST", `{"date":"2025-03-16","shop_name":"不存在的店","content":"记录"}`)
	sjc.JournalUpsert(c)
	assertStatus(t, w, http.StatusOK)

	// 重置结构体，避免GORM把上一次查询留下的主键当作查询条件
	journal = models.SalesJournal{}
	testDB.Where("user_id = ? AND date = ?", profile.ID, "2025-03-16").First(&journal)
	if journal.ShopID != nil {
		t.Errorf("未匹配店铺时shop_id应为空，实际 %v", *journal.ShopID)
	}
}

// TestJournalListScopedToSelf 非管理员只能看到自己的日志
func TestJournalListScopedToSelf(t *testing.T) {
	testDB := setupControllerTest(t)
	kol := createTestProfile(t, testDB, 1, models.RoleKOL)
	other := createTestProfile(t, testDB, 2, models.RoleOL)

	journals := []models.SalesJournal{
		{UserID: kol.ID, Date: "2025-03-15", Content: "自己的"},
		{UserID: other.ID, Date: "2025-03-15", Content: "别人的"},
	}
	for i := range journals {
		if err := testDB.Create(&journals[i]).Error; err != nil {
			t.Fatalf("创建日志失败: %v", err)
		}
	}

	sjc := &SalesJournalController{}
	c, w := newTestContext(t, kol, "POST", `{"page":1,"page_size":10}`)
	sjc.JournalList(c)
	assertStatus(t, w, http.StatusOK)

	var listed []models.SalesJournal
	testDB.Where("user_id = ?", kol.ID).Find(&listed)
	if len(listed) != 1 {
		t.Fatalf("应只有1条自己的日志，实际 %d", len(listed))
	}
}
