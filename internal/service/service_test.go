package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/cache"
	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
	"github.com/henry1266/pharmacy-pos-sub010/internal/overtime"
	"github.com/henry1266/pharmacy-pos-sub010/internal/store"
	"github.com/henry1266/pharmacy-pos-sub010/internal/store/memory"
)

var testPeriod = domain.Period{Year: 2025, Month: time.March}

const (
	employeeWang   = "64f0a1c2e4b0a10000000001"
	employeeLin    = "64f0a1c2e4b0a10000000002"
	employeeChen   = "64f0a1c2e4b0a10000000003"
	employeeNoName = "64f0a1c2e4b0a10000000004"
	employeeChang  = "64f0a1c2e4b0a10000000005"
	employeeHuang  = "64f0a1c2e4b0a10000000006"
)

func newTestService(repo store.Repository) *Service {
	if repo == nil {
		repo = memory.NewSeededFor(testPeriod)
	}
	return New(repo, overtime.NewEngine(cache.NewMemoryTimelineCache(), time.Minute), time.Second)
}

func adminContext() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

type failingRepo struct {
	store.Repository
	failEmployees bool
	failOvertime  bool
	failSchedule  bool
	failSummary   bool
}

var errUpstream = errors.New("upstream unavailable")

func (f failingRepo) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	if f.failEmployees {
		return nil, errUpstream
	}
	return f.Repository.ListEmployees(ctx)
}

func (f failingRepo) ListOvertimeRecords(ctx context.Context, period domain.Period) ([]domain.OvertimeRecord, error) {
	if f.failOvertime {
		return nil, errUpstream
	}
	return f.Repository.ListOvertimeRecords(ctx, period)
}

func (f failingRepo) ListScheduleRecords(ctx context.Context, period domain.Period) ([]domain.ScheduleRecord, error) {
	if f.failSchedule {
		return nil, errUpstream
	}
	return f.Repository.ListScheduleRecords(ctx, period)
}

func (f failingRepo) MonthlySummary(ctx context.Context, period domain.Period) ([]domain.EmployeeSummaryStat, error) {
	if f.failSummary {
		return nil, errUpstream
	}
	return f.Repository.MonthlySummary(ctx, period)
}

func TestOverviewReconcilesSeededSources(t *testing.T) {
	svc := newTestService(nil)

	overview, err := svc.Overview(context.Background(), testPeriod)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview.SourceErrors) != 0 {
		t.Fatalf("expected no source errors, got %+v", overview.SourceErrors)
	}
	if len(overview.Groups) != 7 {
		t.Fatalf("expected 7 groups, got %d", len(overview.Groups))
	}

	wantOrder := []string{employeeChen, employeeLin, employeeChang, employeeWang, employeeHuang, employeeNoName, overtime.FallbackKey}
	for i, id := range wantOrder {
		if overview.Groups[i].Employee.ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, overview.Groups[i].Employee.ID)
		}
	}

	byID := make(map[string]domain.EmployeeGroup, len(overview.Groups))
	for _, group := range overview.Groups {
		byID[group.Employee.ID] = group
	}
	wang := byID[employeeWang]
	if wang.IndependentHours != 2.5 || wang.ScheduleHours != 1.5 || wang.TotalHours != 4 {
		t.Fatalf("unexpected hours for %s: %v/%v/%v", employeeWang, wang.IndependentHours, wang.ScheduleHours, wang.TotalHours)
	}
	if wang.Employee.Name != "王怡君" {
		t.Fatalf("expected directory name, got %q", wang.Employee.Name)
	}
	if byID[employeeChang].Employee.Name != "張家豪" {
		t.Fatalf("expected embedded record name, got %q", byID[employeeChang].Employee.Name)
	}
	if byID[employeeHuang].Employee.Name != "黃建宏" {
		t.Fatalf("expected schedule employee name, got %q", byID[employeeHuang].Employee.Name)
	}
	if byID[employeeNoName].Employee.Name != "員工03" {
		t.Fatalf("expected fallback name, got %q", byID[employeeNoName].Employee.Name)
	}

	if overview.Totals.TotalHours != 24 || overview.Totals.IndependentHours != 11 || overview.Totals.ScheduleHours != 13 {
		t.Fatalf("unexpected totals %+v", overview.Totals)
	}
	if overview.Diagnostics.ScheduleRecordsDropped != 1 || overview.Diagnostics.ScheduleNonOvertime != 2 {
		t.Fatalf("unexpected diagnostics %+v", overview.Diagnostics)
	}
}

func TestOverviewReportsFailedSourceAndKeepsOthers(t *testing.T) {
	svc := newTestService(failingRepo{Repository: memory.NewSeededFor(testPeriod), failSchedule: true})

	overview, err := svc.Overview(context.Background(), testPeriod)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview.SourceErrors) != 1 || overview.SourceErrors[0].Source != SourceSchedule {
		t.Fatalf("expected schedule source error, got %+v", overview.SourceErrors)
	}
	if overview.Totals.TotalHours != 24 {
		t.Fatalf("expected summary totals to survive a schedule outage, got %v", overview.Totals.TotalHours)
	}
	for _, group := range overview.Groups {
		if len(group.ScheduleRecords) != 0 {
			t.Fatalf("expected no schedule records when the source failed")
		}
	}
}

func TestOverviewFailsWhenEverySourceFails(t *testing.T) {
	svc := newTestService(failingRepo{
		Repository:    memory.NewSeededFor(testPeriod),
		failEmployees: true,
		failOvertime:  true,
		failSchedule:  true,
		failSummary:   true,
	})

	if _, err := svc.Overview(context.Background(), testPeriod); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestEmployeeTimelineMergesAndSorts(t *testing.T) {
	svc := newTestService(nil)

	timeline, err := svc.EmployeeTimeline(context.Background(), testPeriod, employeeWang)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	want := []string{"independent-ot-seed-01", "schedule-sch-seed-01", "independent-ot-seed-04"}
	if len(timeline.Records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(timeline.Records))
	}
	for i := range want {
		if timeline.Records[i].ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], timeline.Records[i].ID)
		}
	}
	if timeline.Records[1].Hours != 1.5 || timeline.Records[1].Status != domain.StatusApproved {
		t.Fatalf("unexpected schedule entry %+v", timeline.Records[1])
	}

	if _, err := svc.EmployeeTimeline(context.Background(), testPeriod, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMutationsRequireAdmin(t *testing.T) {
	svc := newTestService(nil)
	staff := WithActor(context.Background(), domain.Actor{Username: "staff", Role: domain.RoleStaff})

	result, err := svc.CreateOvertime(staff, domain.OvertimeCreateRequest{EmployeeID: employeeWang, Date: "2025-03-20", Hours: 1})
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if result.Success || result.Message == "" {
		t.Fatalf("expected failed mutation result, got %+v", result)
	}
	if _, err := svc.DeleteOvertime(context.Background(), "ot-seed-01"); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected forbidden without actor, got %v", err)
	}
}

func TestCreateOvertimeValidates(t *testing.T) {
	svc := newTestService(nil)
	ctx := adminContext()

	cases := []domain.OvertimeCreateRequest{
		{EmployeeID: " ", Date: "2025-03-20", Hours: 1},
		{EmployeeID: employeeWang, Date: "20/03/2025", Hours: 1},
		{EmployeeID: employeeWang, Date: "2025-03-20", Hours: 0.25},
		{EmployeeID: employeeWang, Date: "2025-03-20", Hours: 25},
		{EmployeeID: employeeWang, Date: "2025-03-20", Hours: 1, Status: "cancelled"},
	}
	for _, req := range cases {
		result, err := svc.CreateOvertime(ctx, req)
		if !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("request %+v: expected invalid input, got %v", req, err)
		}
		if result.Success {
			t.Fatalf("request %+v: expected unsuccessful result", req)
		}
	}
}

func TestOvertimeMutationsAreVisibleAndAudited(t *testing.T) {
	svc := newTestService(nil)
	ctx := adminContext()

	created, err := svc.CreateOvertime(ctx, domain.OvertimeCreateRequest{
		EmployeeID:  employeeLin,
		Date:        "2025-03-21",
		Hours:       2,
		Description: "月報整理",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Success || created.Record == nil || created.Record.Status != domain.StatusPending {
		t.Fatalf("unexpected create result %+v", created)
	}
	id := created.Record.ID

	hours := 3.0
	updated, err := svc.UpdateOvertime(ctx, id, domain.OvertimeUpdateRequest{Hours: &hours})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Record.Hours != 3 || updated.Record.Date != "2025-03-21" {
		t.Fatalf("unexpected update result %+v", updated.Record)
	}

	approved, err := svc.ApproveOvertime(ctx, id)
	if err != nil || approved.Record.Status != domain.StatusApproved {
		t.Fatalf("approve: %+v %v", approved, err)
	}
	rejected, err := svc.RejectOvertime(ctx, id)
	if err != nil || rejected.Record.Status != domain.StatusRejected {
		t.Fatalf("reject: %+v %v", rejected, err)
	}

	timeline, err := svc.EmployeeTimeline(context.Background(), testPeriod, employeeLin)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if timeline.Group.IndependentHours != 4.5 {
		t.Fatalf("expected new record to be counted on re-fetch, got %v", timeline.Group.IndependentHours)
	}

	if _, err := svc.DeleteOvertime(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.ApproveOvertime(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	logs, err := svc.ListAuditLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if len(logs) != 5 {
		t.Fatalf("expected 5 audit entries, got %d", len(logs))
	}
	seen := make(map[string]bool, len(logs))
	for _, entry := range logs {
		seen[entry.Action] = true
		if entry.ActorUsername != "admin" || entry.EntityID != id {
			t.Fatalf("unexpected audit entry %+v", entry)
		}
	}
	for _, action := range []string{"overtime_create", "overtime_update", "overtime_approve", "overtime_reject", "overtime_delete"} {
		if !seen[action] {
			t.Fatalf("missing audit action %s", action)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	period, err := ParsePeriod("", "", now)
	if err != nil || period != (domain.Period{Year: 2026, Month: time.October}) {
		t.Fatalf("expected current month, got %+v %v", period, err)
	}
	period, err = ParsePeriod("3", "2025", now)
	if err != nil || period != testPeriod {
		t.Fatalf("expected 2025-03, got %+v %v", period, err)
	}
	for _, pair := range [][2]string{{"13", "2025"}, {"0", ""}, {"x", ""}, {"1", "1999"}} {
		if _, err := ParsePeriod(pair[0], pair[1], now); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("month=%s year=%s: expected invalid input, got %v", pair[0], pair[1], err)
		}
	}
}

func TestMonthlyReportPDF(t *testing.T) {
	svc := newTestService(nil)

	payload, err := svc.MonthlyReportPDF(context.Background(), testPeriod)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF-")) {
		t.Fatalf("expected a PDF document")
	}
}
