package overtime

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/henry1266/pharmacy-pos-sub010/internal/cache"
	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

// Inputs are the four upstream collections for one period. A source that
// failed to load is passed as nil and treated as empty.
type Inputs struct {
	Period      domain.Period
	Directory   []domain.Employee
	Independent []domain.OvertimeRecord
	Schedule    []domain.ScheduleRecord
	Summary     []domain.EmployeeSummaryStat
}

// ProcessedOvertimeData is the grouped result keyed by canonical employee id.
type ProcessedOvertimeData struct {
	Groups      map[string]*domain.EmployeeGroup
	Diagnostics domain.OvertimeDiagnostics
}

type Engine struct {
	cache    cache.TimelineCache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewEngine(cacheStore cache.TimelineCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopTimelineCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (e *Engine) Process(in Inputs) ProcessedOvertimeData {
	classified := ClassifySchedule(in.Schedule)
	byEmployee, order := GroupScheduleByEmployee(classified.Overtime)

	groups, _ := BuildGroups(GroupInput{
		Directory:     in.Directory,
		Independent:   in.Independent,
		Schedule:      byEmployee,
		ScheduleOrder: order,
		Summary:       in.Summary,
		Month:         in.Period.Month,
	})
	warnings := Reconcile(groups, in.Summary)

	return ProcessedOvertimeData{
		Groups: groups,
		Diagnostics: domain.OvertimeDiagnostics{
			ScheduleRecordsSeen:     len(in.Schedule),
			ScheduleRecordsDropped:  classified.Dropped,
			ScheduleNonOvertime:     classified.NonOvertime,
			ReconciliationWarnings:  warnings,
			IndependentRecordsCount: len(in.Independent),
		},
	}
}

// MergedRecords returns the employee's timeline, memoized on the group's content
// so an unchanged group is merged once and a changed one is never served stale.
func (e *Engine) MergedRecords(ctx context.Context, group domain.EmployeeGroup, employeeID string) []domain.MergedRecord {
	key, err := timelineCacheKey(group, employeeID)
	if err == nil {
		if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
			return cached
		}
	}

	merged := Merge(group, employeeID, e.now().UTC())
	if err == nil {
		_ = e.cache.Set(ctx, key, merged, e.cacheTTL)
	}
	return merged
}

// Ordered lists groups by total hours, most first; ties go to the most recent
// activity and then to the id.
func (p ProcessedOvertimeData) Ordered() []domain.EmployeeGroup {
	out := make([]domain.EmployeeGroup, 0, len(p.Groups))
	for _, group := range p.Groups {
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalHours != out[j].TotalHours {
			return out[i].TotalHours > out[j].TotalHours
		}
		if !out[i].LatestDate.Equal(out[j].LatestDate) {
			return out[i].LatestDate.After(out[j].LatestDate)
		}
		return out[i].Employee.ID < out[j].Employee.ID
	})
	return out
}

func (p ProcessedOvertimeData) Totals() domain.OvertimeTotals {
	independent, schedule, total := decimal.Zero, decimal.Zero, decimal.Zero
	for _, group := range p.Groups {
		independent = independent.Add(decimal.NewFromFloat(group.IndependentHours))
		schedule = schedule.Add(decimal.NewFromFloat(group.ScheduleHours))
		total = total.Add(decimal.NewFromFloat(group.TotalHours))
	}
	return domain.OvertimeTotals{
		Employees:        len(p.Groups),
		IndependentHours: independent.InexactFloat64(),
		ScheduleHours:    schedule.InexactFloat64(),
		TotalHours:       total.InexactFloat64(),
	}
}

func timelineCacheKey(group domain.EmployeeGroup, employeeID string) (string, error) {
	payload, err := json.Marshal(struct {
		EmployeeID string                  `json:"e"`
		Records    []domain.OvertimeRecord `json:"r"`
		Schedule   []domain.ScheduleRecord `json:"s"`
	}{employeeID, group.Records, group.ScheduleRecords})
	if err != nil {
		return "", err
	}
	hash := sha1.Sum(payload)
	return "pos:overtime:timeline:" + hex.EncodeToString(hash[:]), nil
}
