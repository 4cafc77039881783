package overtime

import (
	"strings"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

type ScheduleClassification struct {
	Overtime    []domain.ScheduleRecord
	NonOvertime int
	Dropped     int
}

// IsScheduleOvertime reports whether a schedule slot counts as overtime.
func IsScheduleOvertime(record domain.ScheduleRecord) bool {
	return strings.TrimSpace(record.ID) != "" && record.LeaveType == domain.LeaveTypeOvertime
}

// ClassifySchedule keeps overtime slots in input order. Slots without an id are
// dropped and counted rather than failing the batch.
func ClassifySchedule(records []domain.ScheduleRecord) ScheduleClassification {
	result := ScheduleClassification{Overtime: make([]domain.ScheduleRecord, 0, len(records))}
	for _, record := range records {
		if strings.TrimSpace(record.ID) == "" {
			result.Dropped++
			continue
		}
		if !IsScheduleOvertime(record) {
			result.NonOvertime++
			continue
		}
		result.Overtime = append(result.Overtime, record)
	}
	return result
}

// FilterScheduleOvertime returns only the overtime slots, discarding the counts.
func FilterScheduleOvertime(records []domain.ScheduleRecord) []domain.ScheduleRecord {
	return ClassifySchedule(records).Overtime
}

// GroupScheduleByEmployee buckets slots by canonical employee id. keys lists the
// ids in first-seen order so seeding stays deterministic.
func GroupScheduleByEmployee(records []domain.ScheduleRecord) (byEmployee map[string][]domain.ScheduleRecord, keys []string) {
	byEmployee = make(map[string][]domain.ScheduleRecord)
	for _, record := range records {
		key := Normalize(record.EmployeeID)
		if _, seen := byEmployee[key]; !seen {
			keys = append(keys, key)
		}
		byEmployee[key] = append(byEmployee[key], record)
	}
	return byEmployee, keys
}
