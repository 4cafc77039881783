package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
	"github.com/henry1266/pharmacy-pos-sub010/internal/overtime"
	"github.com/henry1266/pharmacy-pos-sub010/internal/store"
	"github.com/henry1266/pharmacy-pos-sub010/internal/xid"
)

const (
	SourceEmployees = "employees"
	SourceOvertime  = "overtime"
	SourceSchedule  = "schedule"
	SourceSummary   = "summary"
)

const (
	minOvertimeHours = 0.5
	maxOvertimeHours = 24
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	engine       *overtime.Engine
	fetchTimeout time.Duration
	now          func() time.Time
}

func New(repo store.Repository, engine *overtime.Engine, fetchTimeout time.Duration) *Service {
	if engine == nil {
		engine = overtime.NewEngine(nil, 0)
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}

	return &Service{
		repo:         repo,
		engine:       engine,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// ParsePeriod reads month and year query values. Empty values default to the
// current month.
func ParsePeriod(month string, year string, now time.Time) (domain.Period, error) {
	period := domain.CurrentPeriod(now.UTC())
	if strings.TrimSpace(month) != "" {
		m, err := strconv.Atoi(strings.TrimSpace(month))
		if err != nil {
			return domain.Period{}, fmt.Errorf("%w: month must be a number", store.ErrInvalidInput)
		}
		period.Month = time.Month(m)
	}
	if strings.TrimSpace(year) != "" {
		y, err := strconv.Atoi(strings.TrimSpace(year))
		if err != nil {
			return domain.Period{}, fmt.Errorf("%w: year must be a number", store.ErrInvalidInput)
		}
		period.Year = y
	}
	if !period.Valid() {
		return domain.Period{}, fmt.Errorf("%w: period %s out of range", store.ErrInvalidInput, period)
	}
	return period, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

// fetchInputs loads the four sources concurrently. A failed source is reported
// in the returned SourceErrors and treated as empty; the error is non-nil only
// when nothing could be loaded.
func (s *Service) fetchInputs(ctx context.Context, period domain.Period) (overtime.Inputs, []domain.SourceError, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	in := overtime.Inputs{Period: period}
	var errs [4]error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in.Directory, errs[0] = s.repo.ListEmployees(gctx)
		return nil
	})
	g.Go(func() error {
		in.Independent, errs[1] = s.repo.ListOvertimeRecords(gctx, period)
		return nil
	})
	g.Go(func() error {
		in.Schedule, errs[2] = s.repo.ListScheduleRecords(gctx, period)
		return nil
	})
	g.Go(func() error {
		in.Summary, errs[3] = s.repo.MonthlySummary(gctx, period)
		return nil
	})
	_ = g.Wait()

	sources := [4]string{SourceEmployees, SourceOvertime, SourceSchedule, SourceSummary}
	var sourceErrors []domain.SourceError
	for i, err := range errs {
		if err == nil {
			continue
		}
		log.Printf("[service] WARN: %s source failed period=%s: %v", sources[i], period, err)
		sourceErrors = append(sourceErrors, domain.SourceError{
			Source:  sources[i],
			Message: fmt.Sprintf("%s data unavailable", sources[i]),
		})
	}
	if errs[0] != nil {
		in.Directory = nil
	}
	if errs[1] != nil {
		in.Independent = nil
	}
	if errs[2] != nil {
		in.Schedule = nil
	}
	if errs[3] != nil {
		in.Summary = nil
	}

	if len(sourceErrors) == len(errs) {
		return overtime.Inputs{}, sourceErrors, fmt.Errorf("all overtime sources failed: %w", errors.Join(errs[:]...))
	}
	return in, sourceErrors, nil
}

func (s *Service) Overview(ctx context.Context, period domain.Period) (domain.OvertimeOverview, error) {
	if !period.Valid() {
		return domain.OvertimeOverview{}, store.ErrInvalidInput
	}

	in, sourceErrors, err := s.fetchInputs(ctx, period)
	if err != nil {
		return domain.OvertimeOverview{}, err
	}
	data := s.engine.Process(in)

	return domain.OvertimeOverview{
		Period:       period,
		Groups:       data.Ordered(),
		Totals:       data.Totals(),
		Diagnostics:  data.Diagnostics,
		SourceErrors: sourceErrors,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

func (s *Service) EmployeeTimeline(ctx context.Context, period domain.Period, employeeID string) (domain.EmployeeTimeline, error) {
	if !period.Valid() {
		return domain.EmployeeTimeline{}, store.ErrInvalidInput
	}
	key := overtime.NormalizeString(employeeID)

	in, _, err := s.fetchInputs(ctx, period)
	if err != nil {
		return domain.EmployeeTimeline{}, err
	}
	data := s.engine.Process(in)
	group, ok := data.Groups[key]
	if !ok {
		return domain.EmployeeTimeline{}, store.ErrNotFound
	}

	return domain.EmployeeTimeline{
		Period:  period,
		Group:   *group,
		Records: s.engine.MergedRecords(ctx, *group, key),
	}, nil
}

func (s *Service) CreateOvertime(ctx context.Context, req domain.OvertimeCreateRequest) (domain.MutationResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return failed(err), err
	}

	record := domain.OvertimeRecord{
		EmployeeID:  domain.StringRef(strings.TrimSpace(req.EmployeeID)),
		Date:        strings.TrimSpace(req.Date),
		Hours:       req.Hours,
		Description: strings.TrimSpace(req.Description),
		Status:      defaultString(strings.TrimSpace(req.Status), domain.StatusPending),
	}
	if record.EmployeeID.Kind == domain.RefMissing {
		err := fmt.Errorf("%w: employee_id is required", store.ErrInvalidInput)
		return failed(err), err
	}
	if err := validateRecord(record); err != nil {
		return failed(err), err
	}
	record.ID = xid.New("ot")

	created, err := s.repo.CreateOvertimeRecord(ctx, record)
	if err != nil {
		return failed(err), err
	}

	s.logAudit(ctx, "overtime_create", created.ID, fmt.Sprintf("employee=%s,date=%s,hours=%g", created.EmployeeID.Value, created.Date, created.Hours))
	return domain.MutationResult{Success: true, Message: "overtime record created", Record: created}, nil
}

func (s *Service) UpdateOvertime(ctx context.Context, id string, req domain.OvertimeUpdateRequest) (domain.MutationResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return failed(err), err
	}

	existing, err := s.repo.GetOvertimeRecord(ctx, strings.TrimSpace(id))
	if err != nil {
		return failed(err), err
	}

	updated := *existing
	if req.Date != nil {
		updated.Date = strings.TrimSpace(*req.Date)
	}
	if req.Hours != nil {
		updated.Hours = *req.Hours
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		updated.Status = strings.TrimSpace(*req.Status)
	}
	if err := validateRecord(updated); err != nil {
		return failed(err), err
	}

	saved, err := s.repo.UpdateOvertimeRecord(ctx, updated)
	if err != nil {
		return failed(err), err
	}

	s.logAudit(ctx, "overtime_update", saved.ID, fmt.Sprintf("date=%s,hours=%g,status=%s", saved.Date, saved.Hours, saved.Status))
	return domain.MutationResult{Success: true, Message: "overtime record updated", Record: saved}, nil
}

func (s *Service) ApproveOvertime(ctx context.Context, id string) (domain.MutationResult, error) {
	return s.setStatus(ctx, id, domain.StatusApproved, "overtime_approve")
}

func (s *Service) RejectOvertime(ctx context.Context, id string) (domain.MutationResult, error) {
	return s.setStatus(ctx, id, domain.StatusRejected, "overtime_reject")
}

func (s *Service) setStatus(ctx context.Context, id string, status string, action string) (domain.MutationResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return failed(err), err
	}

	existing, err := s.repo.GetOvertimeRecord(ctx, strings.TrimSpace(id))
	if err != nil {
		return failed(err), err
	}
	previous := existing.Status
	existing.Status = status

	saved, err := s.repo.UpdateOvertimeRecord(ctx, *existing)
	if err != nil {
		return failed(err), err
	}

	s.logAudit(ctx, action, saved.ID, fmt.Sprintf("status=%s->%s", previous, status))
	return domain.MutationResult{Success: true, Message: "overtime record " + status, Record: saved}, nil
}

func (s *Service) DeleteOvertime(ctx context.Context, id string) (domain.MutationResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return failed(err), err
	}

	id = strings.TrimSpace(id)
	if err := s.repo.DeleteOvertimeRecord(ctx, id); err != nil {
		return failed(err), err
	}

	s.logAudit(ctx, "overtime_delete", id, "")
	return domain.MutationResult{Success: true, Message: "overtime record deleted"}, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func validateRecord(record domain.OvertimeRecord) error {
	if _, err := time.Parse("2006-01-02", record.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidInput)
	}
	if record.Hours < minOvertimeHours || record.Hours > maxOvertimeHours {
		return fmt.Errorf("%w: hours must be between %g and %g", store.ErrInvalidInput, minOvertimeHours, float64(maxOvertimeHours))
	}
	switch record.Status {
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return fmt.Errorf("%w: unsupported status %q", store.ErrInvalidInput, record.Status)
	}
	return nil
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}
	return nil
}

func failed(err error) domain.MutationResult {
	return domain.MutationResult{Success: false, Message: err.Error()}
}

func (s *Service) logAudit(ctx context.Context, action string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    "overtime_record",
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=overtime_record/%s: %v", action, entityID, err)
	}
}

func defaultString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
