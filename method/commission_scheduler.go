package method

import (
	"log"
	"time"

	"kol_crm/db"
)

// StartCommissionScheduler 启动月度佣金定时调度器
// 每月1日凌晨2点计算上个月的佣金，启动时先补算一次
func StartCommissionScheduler() {
	log.Println("月度佣金调度器启动")

	// 启动时补算上个月，已支付的结算单不会被重算
	runMonthlyCalculation()

	for {
		// 计算下一次执行时间：下个月1日凌晨2点
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), 1, 2, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		waitDuration := next.Sub(now)
		log.Printf("下次佣金计算时间：%s，等待时长：%v", next.Format("2006-01-02 15:04:05"), waitDuration)

		time.Sleep(waitDuration)
		runMonthlyCalculation()
	}
}

// runMonthlyCalculation 计算上个月的佣金
func runMonthlyCalculation() {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)

	log.Printf("开始计算 %s 月度佣金...", monthStart.Format("2006-01"))
	result := CalculateMonthlyCommissions(db.DB, monthStart)
	log.Printf("月度佣金计算完成：处理 %d 条，跳过 %d 条，错误 %d 条",
		result.Processed, result.Skipped, len(result.Errors))
	for _, e := range result.Errors {
		log.Printf("佣金计算错误: %s", e)
	}
}
