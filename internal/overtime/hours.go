package overtime

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

// ReconciliationSummaryBelowIndependent marks a group whose authoritative total
// is smaller than the independent hours recorded locally.
const ReconciliationSummaryBelowIndependent = "summary_below_independent"

// Reconcile applies the monthly summary to every group and returns how many
// groups needed the negative-hours floor.
func Reconcile(groups map[string]*domain.EmployeeGroup, summary []domain.EmployeeSummaryStat) int {
	byEmployee := make(map[string]domain.EmployeeSummaryStat, len(summary))
	for _, row := range summary {
		key := NormalizeString(row.EmployeeID)
		if _, exists := byEmployee[key]; exists {
			continue
		}
		byEmployee[key] = row
	}

	warnings := 0
	for key, group := range groups {
		independent := decimal.NewFromFloat(group.IndependentHours)
		row, ok := byEmployee[key]
		if !ok {
			group.TotalHours = group.IndependentHours
			group.ScheduleHours = 0
			continue
		}

		total := decimal.NewFromFloat(row.OvertimeHours)
		schedule := total.Sub(independent)
		if schedule.IsNegative() {
			log.Printf("[overtime] WARN: summary total %s below independent hours %s employee=%s", total, independent, key)
			warnings++
			group.Reconciliation = ReconciliationSummaryBelowIndependent
			schedule = decimal.Zero
			total = independent
		}
		group.ScheduleHours = schedule.InexactFloat64()
		group.TotalHours = total.InexactFloat64()
	}
	return warnings
}
