package overtime

import (
	"testing"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

var fixedNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func TestMergeScenarioC(t *testing.T) {
	data := NewEngine(nil, 0).Process(Inputs{
		Period: domain.Period{Year: 2025, Month: time.March},
		Schedule: []domain.ScheduleRecord{
			{ID: "s1", EmployeeID: domain.StringRef("E3"), Date: "2025-03-07", Shift: domain.ShiftEvening, LeaveType: domain.LeaveTypeOvertime},
		},
	})

	merged := Merge(*data.Groups["E3"], "E3", fixedNow)
	if len(merged) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(merged))
	}
	entry := merged[0]
	if entry.Hours != 1.5 || entry.Status != domain.StatusApproved {
		t.Fatalf("expected 1.5h approved, got %v %q", entry.Hours, entry.Status)
	}
	if entry.Type != domain.MergedSchedule || entry.ID != "schedule-s1" || entry.Description != "晚班" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestMergeOrdersByDateAndKeepsTiesStable(t *testing.T) {
	group := domain.EmployeeGroup{
		Records: []domain.OvertimeRecord{
			{ID: "r1", Date: "2025-03-10", Hours: 2, Status: domain.StatusPending},
			{ID: "r2", Date: "2025-03-05", Hours: 1, Description: "inventory", Status: domain.StatusApproved},
		},
		ScheduleRecords: []domain.ScheduleRecord{
			{ID: "s1", Date: "2025-03-05", Shift: domain.ShiftMorning, LeaveType: domain.LeaveTypeOvertime},
			{ID: "s2", Date: "2025-03-01", Shift: domain.ShiftAfternoon, LeaveType: domain.LeaveTypeOvertime},
		},
	}

	merged := Merge(group, "E1", fixedNow)
	want := []string{"schedule-s2", "independent-r2", "schedule-s1", "independent-r1"}
	if len(merged) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(merged))
	}
	for i := range want {
		if merged[i].ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], merged[i].ID)
		}
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Date.Before(merged[i-1].Date) {
			t.Fatalf("timeline not sorted at %d", i)
		}
	}
	if merged[3].Description != "-" {
		t.Fatalf("expected empty description to render as -, got %q", merged[3].Description)
	}
	if merged[0].Hours != 3 || merged[2].Hours != 3.5 {
		t.Fatalf("unexpected shift hours %v %v", merged[0].Hours, merged[2].Hours)
	}
}

func TestMergeInvalidDateUsesNow(t *testing.T) {
	group := domain.EmployeeGroup{
		Records: []domain.OvertimeRecord{{ID: "r1", Date: "not-a-date", Hours: 1}},
	}
	merged := Merge(group, "E1", fixedNow)
	if len(merged) != 1 || !merged[0].Date.Equal(fixedNow) {
		t.Fatalf("expected invalid date to fall back to now, got %+v", merged)
	}
}

func TestMergeUnknownShiftContributesZeroHours(t *testing.T) {
	group := domain.EmployeeGroup{
		ScheduleRecords: []domain.ScheduleRecord{{ID: "s1", Date: "2025-03-02", Shift: "night", LeaveType: domain.LeaveTypeOvertime}},
	}
	merged := Merge(group, "E1", fixedNow)
	if len(merged) != 1 {
		t.Fatalf("expected unknown shift to stay in the timeline")
	}
	if merged[0].Hours != 0 || merged[0].Description != "night" {
		t.Fatalf("expected 0h with raw label, got %v %q", merged[0].Hours, merged[0].Description)
	}
}

func TestMergeSkipsScheduleWithoutID(t *testing.T) {
	group := domain.EmployeeGroup{
		Records: []domain.OvertimeRecord{{ID: "r1", Date: "2025-03-02", Hours: 1}},
		ScheduleRecords: []domain.ScheduleRecord{
			{ID: "", Date: "2025-03-01", Shift: domain.ShiftMorning, LeaveType: domain.LeaveTypeOvertime},
		},
	}
	merged := Merge(group, "E1", fixedNow)
	if len(merged) != 1 || merged[0].ID != "independent-r1" {
		t.Fatalf("expected only the independent record, got %+v", merged)
	}
}

func TestShiftLabel(t *testing.T) {
	if ShiftLabel(domain.ShiftMorning) != "早班" || ShiftLabel(domain.ShiftAfternoon) != "中班" {
		t.Fatalf("unexpected shift labels")
	}
	if ShiftLabel("custom") != "custom" {
		t.Fatalf("unknown shift must keep its raw code")
	}
}
