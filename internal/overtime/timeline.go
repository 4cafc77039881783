package overtime

import (
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

// ShiftHours is the fixed hour count credited for one overtime shift.
var ShiftHours = map[string]float64{
	domain.ShiftMorning:   3.5,
	domain.ShiftAfternoon: 3,
	domain.ShiftEvening:   1.5,
}

var shiftLabels = map[string]string{
	domain.ShiftMorning:   "早班",
	domain.ShiftAfternoon: "中班",
	domain.ShiftEvening:   "晚班",
}

var errScheduleWithoutID = errors.New("schedule record has no id")

// ShiftLabel returns the display label, or the raw code for unknown shifts.
func ShiftLabel(shift string) string {
	if label, ok := shiftLabels[shift]; ok {
		return label
	}
	return shift
}

// Merge builds one employee's timeline: independent records first, schedule
// records after, then a stable ascending sort by date.
func Merge(group domain.EmployeeGroup, employeeID string, now time.Time) []domain.MergedRecord {
	merged := make([]domain.MergedRecord, 0, len(group.Records)+len(group.ScheduleRecords))

	for _, record := range group.Records {
		merged = append(merged, mergeIndependent(record, employeeID, now))
	}

	for _, record := range group.ScheduleRecords {
		entry, err := mergeSchedule(record, employeeID, now)
		if err != nil {
			log.Printf("[overtime] WARN: skipping schedule record employee=%s: %v", employeeID, err)
			continue
		}
		merged = append(merged, entry)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

func mergeIndependent(record domain.OvertimeRecord, employeeID string, now time.Time) domain.MergedRecord {
	description := strings.TrimSpace(record.Description)
	if description == "" {
		description = "-"
	}
	return domain.MergedRecord{
		ID:          "independent-" + record.ID,
		Type:        domain.MergedIndependent,
		Date:        dateOrNow(record.Date, "independent", record.ID, employeeID, now),
		Hours:       record.Hours,
		Description: description,
		Status:      record.Status,
	}
}

func mergeSchedule(record domain.ScheduleRecord, employeeID string, now time.Time) (domain.MergedRecord, error) {
	if strings.TrimSpace(record.ID) == "" {
		return domain.MergedRecord{}, errScheduleWithoutID
	}
	return domain.MergedRecord{
		ID:          "schedule-" + record.ID,
		Type:        domain.MergedSchedule,
		Date:        dateOrNow(record.Date, "schedule", record.ID, employeeID, now),
		Hours:       ShiftHours[record.Shift],
		Description: ShiftLabel(record.Shift),
		Status:      domain.StatusApproved,
		Shift:       record.Shift,
	}, nil
}

func dateOrNow(raw string, kind string, recordID string, employeeID string, now time.Time) time.Time {
	if date, ok := domain.ParseDate(raw); ok {
		return date
	}
	log.Printf("[overtime] WARN: unparseable %s date %q record=%s employee=%s", kind, raw, recordID, employeeID)
	return now
}
