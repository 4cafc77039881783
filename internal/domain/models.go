package domain

import (
	"fmt"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// LeaveTypeOvertime is the scheduling service's marker for an overtime slot.
const LeaveTypeOvertime = "overtime"

type Employee struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
}

// OvertimeRecord is an independent overtime entry owned by the overtime service.
// Field names follow that service's wire format.
type OvertimeRecord struct {
	ID          string      `json:"_id"`
	EmployeeID  EmployeeRef `json:"employeeId"`
	Date        string      `json:"date"`
	Hours       float64     `json:"hours"`
	Description string      `json:"description,omitempty"`
	Status      string      `json:"status"`
}

// ScheduleRecord is a slot from the scheduling service. Only slots with
// LeaveType == LeaveTypeOvertime take part in overtime reconciliation.
type ScheduleRecord struct {
	ID         string       `json:"_id"`
	EmployeeID EmployeeRef  `json:"employeeId"`
	Employee   *EmployeeRef `json:"employee,omitempty"`
	Date       string       `json:"date"`
	Shift      string       `json:"shift"`
	LeaveType  string       `json:"leaveType,omitempty"`
}

// EmployeeSummaryStat is one row of the monthly overtime summary. OvertimeHours
// is authoritative for the period's total.
type EmployeeSummaryStat struct {
	EmployeeID          string  `json:"employeeId"`
	EmployeeName        string  `json:"employeeName,omitempty"`
	OvertimeHours       float64 `json:"overtimeHours"`
	ScheduleRecordCount *int    `json:"scheduleRecordCount,omitempty"`
}

type EmployeeIdentity struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Employee *Employee `json:"employee,omitempty"`
}

type EmployeeGroup struct {
	Employee         EmployeeIdentity `json:"employee"`
	Records          []OvertimeRecord `json:"records"`
	IndependentHours float64          `json:"independent_hours"`
	ScheduleHours    float64          `json:"schedule_hours"`
	TotalHours       float64          `json:"total_hours"`
	ScheduleRecords  []ScheduleRecord `json:"schedule_records"`
	LatestDate       time.Time        `json:"latest_date"`
	Reconciliation   string           `json:"reconciliation,omitempty"`
}

type MergedRecordType string

const (
	MergedIndependent MergedRecordType = "independent"
	MergedSchedule    MergedRecordType = "schedule"
)

type MergedRecord struct {
	ID          string           `json:"id"`
	Type        MergedRecordType `json:"type"`
	Date        time.Time        `json:"date"`
	Hours       float64          `json:"hours"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Shift       string           `json:"shift,omitempty"`
}

// Period is a calendar month filter.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: now.Month()}
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December && p.Year >= 2000 && p.Year <= 2100
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

type OvertimeDiagnostics struct {
	ScheduleRecordsSeen     int `json:"schedule_records_seen"`
	ScheduleRecordsDropped  int `json:"schedule_records_dropped"`
	ScheduleNonOvertime     int `json:"schedule_non_overtime"`
	ReconciliationWarnings  int `json:"reconciliation_warnings"`
	IndependentRecordsCount int `json:"independent_records_count"`
}

type OvertimeTotals struct {
	Employees        int     `json:"employees"`
	IndependentHours float64 `json:"independent_hours"`
	ScheduleHours    float64 `json:"schedule_hours"`
	TotalHours       float64 `json:"total_hours"`
}

type OvertimeOverview struct {
	Period       Period              `json:"period"`
	Groups       []EmployeeGroup     `json:"groups"`
	Totals       OvertimeTotals      `json:"totals"`
	Diagnostics  OvertimeDiagnostics `json:"diagnostics"`
	SourceErrors []SourceError       `json:"source_errors,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

type EmployeeTimeline struct {
	Period  Period         `json:"period"`
	Group   EmployeeGroup  `json:"group"`
	Records []MergedRecord `json:"records"`
}

type OvertimeCreateRequest struct {
	EmployeeID  string  `json:"employee_id"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty"`
}

type OvertimeUpdateRequest struct {
	Date        *string  `json:"date,omitempty"`
	Hours       *float64 `json:"hours,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

// MutationResult is returned for every forwarded mutation. Callers re-fetch the
// overview after a successful mutation instead of patching local state.
type MutationResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Record  *OvertimeRecord `json:"record,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
