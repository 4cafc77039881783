package overtime

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

type GroupInput struct {
	Directory     []domain.Employee
	Independent   []domain.OvertimeRecord
	Schedule      map[string][]domain.ScheduleRecord
	ScheduleOrder []string
	Summary       []domain.EmployeeSummaryStat
	Month         time.Month
}

// BuildGroups seeds one group per summary row, then per schedule employee, then
// folds the independent records in. The returned keys are in seeding order.
func BuildGroups(in GroupInput) (map[string]*domain.EmployeeGroup, []string) {
	groups := make(map[string]*domain.EmployeeGroup)
	independentHours := make(map[string]decimal.Decimal)
	keys := make([]string, 0, len(in.Summary)+len(in.ScheduleOrder))

	seed := func(key string) *domain.EmployeeGroup {
		if group, ok := groups[key]; ok {
			return group
		}
		identity := Resolve(key, ResolveContext{
			Directory:       in.Directory,
			ScheduleRecords: in.Schedule[key],
			Summary:         in.Summary,
			Independent:     in.Independent,
			Month:           in.Month,
		})
		group := &domain.EmployeeGroup{
			Employee: domain.EmployeeIdentity{
				ID:       key,
				Name:     identity.Name,
				Employee: identity.Employee,
			},
			Records:         []domain.OvertimeRecord{},
			ScheduleRecords: []domain.ScheduleRecord{},
		}
		groups[key] = group
		independentHours[key] = decimal.Zero
		keys = append(keys, key)
		return group
	}

	for _, row := range in.Summary {
		seed(NormalizeString(row.EmployeeID))
	}

	for _, key := range in.ScheduleOrder {
		group := seed(key)
		for _, record := range in.Schedule[key] {
			group.ScheduleRecords = append(group.ScheduleRecords, record)
			if date, ok := domain.ParseDate(record.Date); ok && date.After(group.LatestDate) {
				group.LatestDate = date
			}
		}
	}

	for _, record := range in.Independent {
		key := Normalize(record.EmployeeID)
		group := seed(key)
		group.Records = append(group.Records, record)
		independentHours[key] = independentHours[key].Add(decimal.NewFromFloat(record.Hours))
		if date, ok := domain.ParseDate(record.Date); ok && date.After(group.LatestDate) {
			group.LatestDate = date
		}
	}

	for key, group := range groups {
		hours := independentHours[key].InexactFloat64()
		group.IndependentHours = hours
		group.TotalHours = hours
	}

	return groups, keys
}
