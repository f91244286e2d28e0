package utils

import (
	"testing"
	"time"
)

// TestCommissionAmount 佣金金额按四舍五入取整
func TestCommissionAmount(t *testing.T) {
	cases := []struct {
		total    float64
		rate     float64
		expected float64
	}{
		{100000, 0.3, 30000},
		{150000, 0.25, 37500},
		{99999, 0.1, 10000}, // 9999.9 四舍五入
		{100, 0.333, 33},    // 33.3 舍去
		{0, 0.3, 0},
	}
	for _, tc := range cases {
		got := CommissionAmount(tc.total, tc.rate)
		if got != tc.expected {
			t.Errorf("CommissionAmount(%v, %v) = %v, 期望 %v", tc.total, tc.rate, got, tc.expected)
		}
	}
}

// TestEffectiveRate 比例回退顺序：行级 > 订单级 > 店铺默认 > 0.1
func TestEffectiveRate(t *testing.T) {
	itemRate := 0.15

	if got := EffectiveRate(&itemRate, 0.2, 0.3); got != 0.15 {
		t.Errorf("行级比例应优先，got %v", got)
	}
	if got := EffectiveRate(nil, 0.2, 0.3); got != 0.2 {
		t.Errorf("无行级比例时应使用订单比例，got %v", got)
	}
	if got := EffectiveRate(nil, 0, 0.3); got != 0.3 {
		t.Errorf("无订单比例时应使用店铺默认，got %v", got)
	}
	if got := EffectiveRate(nil, 0, 0); got != 0.1 {
		t.Errorf("全部缺失时应回退到0.1，got %v", got)
	}
}

// TestGrowthRate 环比增长率保留一位小数，上月为0时返回0
func TestGrowthRate(t *testing.T) {
	cases := []struct {
		current  float64
		previous float64
		expected float64
	}{
		{150000, 90000, 66.7},
		{100, 200, -50},
		{100, 0, 0},
		{0, 0, 0},
		{100, -5, 0},
		{110, 100, 10},
	}
	for _, tc := range cases {
		got := GrowthRate(tc.current, tc.previous)
		if got != tc.expected {
			t.Errorf("GrowthRate(%v, %v) = %v, 期望 %v", tc.current, tc.previous, got, tc.expected)
		}
	}
}

// TestOrderNumber 订单号格式 ORD-YYYYMMDD-NNNN
func TestOrderNumber(t *testing.T) {
	date := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	if got := OrderNumber(date, 1); got != "ORD-20250315-0001" {
		t.Errorf("订单号格式错误: %s", got)
	}
	if got := OrderNumber(date, 42); got != "ORD-20250315-0042" {
		t.Errorf("序号应补零到4位: %s", got)
	}
	if got := OrderNumber(date, 12345); got != "ORD-20250315-12345" {
		t.Errorf("超过4位的序号保持原样: %s", got)
	}
}

// TestParseMonth 月份解析
func TestParseMonth(t *testing.T) {
	monthStart, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("解析月份失败: %v", err)
	}
	if monthStart.Year() != 2025 || monthStart.Month() != time.March || monthStart.Day() != 1 {
		t.Errorf("月份解析结果错误: %v", monthStart)
	}

	if _, err := ParseMonth("2025/03"); err == nil {
		t.Error("非法格式应返回错误")
	}
	if _, err := ParseMonth(""); err == nil {
		t.Error("空字符串应返回错误")
	}
}

// TestMonthRange 月份区间为左闭右开
func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2025, time.January)
	if start.Day() != 1 || start.Month() != time.January {
		t.Errorf("起始日期错误: %v", start)
	}
	if end.Month() != time.February || end.Day() != 1 {
		t.Errorf("结束日期应为下月1日: %v", end)
	}

	// 跨年
	start, end = MonthRange(2025, time.December)
	if end.Year() != 2026 || end.Month() != time.January {
		t.Errorf("12月的结束日期应为次年1月1日: %v", end)
	}
}

// TestPagination 分页偏移计算
func TestPagination(t *testing.T) {
	offset, limit := Pagination(1, 10)
	if offset != 0 || limit != 10 {
		t.Errorf("第一页应从0开始: offset=%d limit=%d", offset, limit)
	}
	offset, limit = Pagination(3, 20)
	if offset != 40 || limit != 20 {
		t.Errorf("第三页偏移错误: offset=%d limit=%d", offset, limit)
	}
}

// TestTruncate 按字符截断，多字节字符不截半
func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("短于上限不应截断: %s", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("截断结果错误: %s", got)
	}
	if got := Truncate("日志内容测试", 3); got != "日志内" {
		t.Errorf("多字节字符截断错误: %s", got)
	}
	if got := Truncate("", 5); got != "" {
		t.Errorf("空串应返回空串: %s", got)
	}
}
