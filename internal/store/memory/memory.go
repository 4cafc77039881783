package memory

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
	"github.com/henry1266/pharmacy-pos-sub010/internal/overtime"
	"github.com/henry1266/pharmacy-pos-sub010/internal/store"
	"github.com/henry1266/pharmacy-pos-sub010/internal/xid"
)

// seed.json dates are written against January 2000 and rebased onto the
// seeded period, so the demo always has data for the month it starts in.
//
//go:embed seed.json
var seedFixture []byte

const seedMonthPrefix = `"2000-01-`

type Store struct {
	mu              sync.RWMutex
	employees       []domain.Employee
	recordsByID     map[string]domain.OvertimeRecord
	recordOrder     []string
	schedule        []domain.ScheduleRecord
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning. These credentials are never used in production (the backend uses
// PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"staff", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	return NewSeededFor(domain.CurrentPeriod(time.Now().UTC()))
}

// NewSeededFor seeds the store with fixture data dated inside period.
func NewSeededFor(period domain.Period) *Store {
	s := &Store{
		recordsByID:     make(map[string]domain.OvertimeRecord),
		auditLogs:       make([]domain.AuditLog, 0, 64),
		usersByUsername: seedUsers(),
	}

	payload := bytes.ReplaceAll(seedFixture, []byte(seedMonthPrefix), []byte(`"`+period.String()+`-`))
	var fixture struct {
		Employees       json.RawMessage `json:"employees"`
		OvertimeRecords json.RawMessage `json:"overtime_records"`
		ScheduleRecords json.RawMessage `json:"schedule_records"`
	}
	if err := json.Unmarshal(payload, &fixture); err != nil {
		log.Fatalf("[memory-store] invalid seed fixture: %v", err)
	}

	employees, skipped, err := domain.DecodeBatch[domain.Employee](fixture.Employees)
	logSeed("employees", skipped, err)
	records, skipped, err := domain.DecodeBatch[domain.OvertimeRecord](fixture.OvertimeRecords)
	logSeed("overtime records", skipped, err)
	schedule, skipped, err := domain.DecodeScheduleBatch(fixture.ScheduleRecords)
	logSeed("schedule records", skipped, err)

	s.employees = employees
	s.schedule = schedule
	for _, record := range records {
		s.recordsByID[record.ID] = record
		s.recordOrder = append(s.recordOrder, record.ID)
	}
	return s
}

func logSeed(kind string, skipped int, err error) {
	if err != nil {
		log.Printf("[memory-store] WARN: seed %s: %v", kind, err)
		return
	}
	if skipped > 0 {
		log.Printf("[memory-store] seed %s: skipped %d malformed entries", kind, skipped)
	}
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.employees), nil
}

func (s *Store) ListOvertimeRecords(_ context.Context, period domain.Period) ([]domain.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.recordsInPeriod(period), nil
}

func (s *Store) recordsInPeriod(period domain.Period) []domain.OvertimeRecord {
	result := make([]domain.OvertimeRecord, 0, len(s.recordOrder))
	for _, id := range s.recordOrder {
		record := s.recordsByID[id]
		if period.Contains(record.Date) {
			result = append(result, record)
		}
	}
	return result
}

func (s *Store) GetOvertimeRecord(_ context.Context, id string) (*domain.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.recordsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &record, nil
}

func (s *Store) CreateOvertimeRecord(_ context.Context, record domain.OvertimeRecord) (*domain.OvertimeRecord, error) {
	if overtime.Normalize(record.EmployeeID) == overtime.FallbackKey || record.Hours <= 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = xid.New("ot")
	}
	if _, exists := s.recordsByID[record.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	if record.Status == "" {
		record.Status = domain.StatusPending
	}
	s.recordsByID[record.ID] = record
	s.recordOrder = append(s.recordOrder, record.ID)

	created := record
	return &created, nil
}

func (s *Store) UpdateOvertimeRecord(_ context.Context, record domain.OvertimeRecord) (*domain.OvertimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recordsByID[record.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if record.EmployeeID.Kind == domain.RefMissing {
		record.EmployeeID = existing.EmployeeID
	}
	s.recordsByID[record.ID] = record

	updated := record
	return &updated, nil
}

func (s *Store) DeleteOvertimeRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recordsByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.recordsByID, id)
	s.recordOrder = slices.DeleteFunc(s.recordOrder, func(candidate string) bool {
		return candidate == id
	})
	return nil
}

func (s *Store) ListScheduleRecords(_ context.Context, period domain.Period) ([]domain.ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scheduleInPeriod(period), nil
}

func (s *Store) scheduleInPeriod(period domain.Period) []domain.ScheduleRecord {
	result := make([]domain.ScheduleRecord, 0, len(s.schedule))
	for _, record := range s.schedule {
		if period.Contains(record.Date) {
			result = append(result, record)
		}
	}
	return result
}

// MonthlySummary computes totals the way the summary service does: every
// independent record plus the fixed hours of each overtime shift.
func (s *Store) MonthlySummary(_ context.Context, period domain.Period) ([]domain.EmployeeSummaryStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type tally struct {
		hours  decimal.Decimal
		shifts int
	}
	tallies := make(map[string]*tally)
	order := make([]string, 0, 16)
	touch := func(key string) *tally {
		if t, ok := tallies[key]; ok {
			return t
		}
		t := &tally{hours: decimal.Zero}
		tallies[key] = t
		order = append(order, key)
		return t
	}

	for _, record := range s.recordsInPeriod(period) {
		key := overtime.Normalize(record.EmployeeID)
		t := touch(key)
		t.hours = t.hours.Add(decimal.NewFromFloat(record.Hours))
	}
	for _, record := range overtime.ClassifySchedule(s.scheduleInPeriod(period)).Overtime {
		key := overtime.Normalize(record.EmployeeID)
		t := touch(key)
		t.hours = t.hours.Add(decimal.NewFromFloat(overtime.ShiftHours[record.Shift]))
		t.shifts++
	}

	names := make(map[string]string, len(s.employees))
	for _, employee := range s.employees {
		names[employee.ID] = strings.TrimSpace(employee.Name)
	}

	summary := make([]domain.EmployeeSummaryStat, 0, len(order))
	for _, key := range order {
		if key == overtime.FallbackKey {
			continue
		}
		t := tallies[key]
		shifts := t.shifts
		summary = append(summary, domain.EmployeeSummaryStat{
			EmployeeID:          key,
			EmployeeName:        names[key],
			OvertimeHours:       t.hours.InexactFloat64(),
			ScheduleRecordCount: &shifts,
		})
	}
	return summary, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := slices.Clone(s.auditLogs)
	slices.SortStableFunc(result, func(a, b domain.AuditLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
