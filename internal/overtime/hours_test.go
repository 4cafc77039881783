package overtime

import (
	"math"
	"testing"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

func TestReconcileScenarioA(t *testing.T) {
	data := NewEngine(nil, 0).Process(Inputs{
		Period:      domain.Period{Year: 2025, Month: time.March},
		Independent: []domain.OvertimeRecord{{ID: "r1", EmployeeID: domain.StringRef("E1"), Hours: 2, Date: "2025-03-01"}},
		Summary:     []domain.EmployeeSummaryStat{{EmployeeID: "E1", OvertimeHours: 5}},
	})

	group := data.Groups["E1"]
	if group.IndependentHours != 2 || group.ScheduleHours != 3 || group.TotalHours != 5 {
		t.Fatalf("expected 2/3/5, got %v/%v/%v", group.IndependentHours, group.ScheduleHours, group.TotalHours)
	}
}

func TestReconcileScenarioB(t *testing.T) {
	data := NewEngine(nil, 0).Process(Inputs{
		Summary: []domain.EmployeeSummaryStat{{EmployeeID: "E2", OvertimeHours: 1}},
	})

	group, ok := data.Groups["E2"]
	if !ok {
		t.Fatalf("expected group E2")
	}
	if group.IndependentHours != 0 || group.ScheduleHours != 1 || group.TotalHours != 1 {
		t.Fatalf("expected 0/1/1, got %v/%v/%v", group.IndependentHours, group.ScheduleHours, group.TotalHours)
	}
	if len(group.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(group.Records))
	}
}

func TestReconcileWithoutSummaryKeepsIndependentTotal(t *testing.T) {
	groups := map[string]*domain.EmployeeGroup{
		"E1": {IndependentHours: 4, TotalHours: 4, ScheduleHours: 9},
	}
	if warnings := Reconcile(groups, nil); warnings != 0 {
		t.Fatalf("expected no warnings, got %d", warnings)
	}
	if groups["E1"].TotalHours != 4 || groups["E1"].ScheduleHours != 0 {
		t.Fatalf("expected 4/0, got %v/%v", groups["E1"].TotalHours, groups["E1"].ScheduleHours)
	}
}

func TestReconcileFloorsNegativeScheduleHours(t *testing.T) {
	groups := map[string]*domain.EmployeeGroup{
		"E1": {IndependentHours: 6, TotalHours: 6},
	}
	warnings := Reconcile(groups, []domain.EmployeeSummaryStat{{EmployeeID: "E1", OvertimeHours: 4}})

	group := groups["E1"]
	if warnings != 1 || group.Reconciliation != ReconciliationSummaryBelowIndependent {
		t.Fatalf("expected reconciliation warning, got %d %q", warnings, group.Reconciliation)
	}
	if group.ScheduleHours != 0 {
		t.Fatalf("schedule hours must never be negative, got %v", group.ScheduleHours)
	}
	if group.TotalHours < group.IndependentHours {
		t.Fatalf("total %v below independent %v", group.TotalHours, group.IndependentHours)
	}
}

func TestReconcileMatchesSummaryByExactID(t *testing.T) {
	groups := map[string]*domain.EmployeeGroup{
		"E1": {IndependentHours: 1, TotalHours: 1},
	}
	Reconcile(groups, []domain.EmployeeSummaryStat{{EmployeeID: "E10", OvertimeHours: 8}})
	if groups["E1"].TotalHours != 1 {
		t.Fatalf("substring summary ids must not drive totals, got %v", groups["E1"].TotalHours)
	}
}

func TestReconcileBlankSummaryIDMatchesFallbackGroup(t *testing.T) {
	data := NewEngine(nil, 0).Process(Inputs{
		Summary: []domain.EmployeeSummaryStat{{EmployeeID: "  ", OvertimeHours: 4}},
	})

	group, ok := data.Groups[FallbackKey]
	if !ok {
		t.Fatalf("expected blank summary id to seed the %q group", FallbackKey)
	}
	if group.TotalHours != 4 || group.ScheduleHours != 4 {
		t.Fatalf("expected summary row to drive its own group, got total %v schedule %v", group.TotalHours, group.ScheduleHours)
	}
}

func TestNoDoubleCountingProperty(t *testing.T) {
	independent := []domain.OvertimeRecord{
		{ID: "r1", EmployeeID: domain.StringRef("A"), Hours: 1.5},
		{ID: "r2", EmployeeID: domain.StringRef("A"), Hours: 0.5},
		{ID: "r3", EmployeeID: domain.StringRef("B"), Hours: 7.5},
		{ID: "r4", EmployeeID: domain.StringRef("C"), Hours: 3.3},
	}
	summary := []domain.EmployeeSummaryStat{
		{EmployeeID: "A", OvertimeHours: 9.5},
		{EmployeeID: "B", OvertimeHours: 3},
		{EmployeeID: "C", OvertimeHours: 10.1},
		{EmployeeID: "D", OvertimeHours: 0.7},
	}

	data := NewEngine(nil, 0).Process(Inputs{Independent: independent, Summary: summary})
	for _, row := range summary {
		group := data.Groups[row.EmployeeID]
		if group.ScheduleHours < 0 {
			t.Fatalf("%s: negative schedule hours %v", row.EmployeeID, group.ScheduleHours)
		}
		if math.Abs(group.ScheduleHours+group.IndependentHours-group.TotalHours) > 1e-9 {
			t.Fatalf("%s: %v + %v != %v", row.EmployeeID, group.ScheduleHours, group.IndependentHours, group.TotalHours)
		}
		if group.TotalHours < group.IndependentHours {
			t.Fatalf("%s: total below independent", row.EmployeeID)
		}
	}
}
