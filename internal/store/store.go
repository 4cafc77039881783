package store

import (
	"context"
	"errors"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

type EmployeeDirectory interface {
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
}

// OvertimeSource owns independent overtime records. It is the only source the
// service writes to.
type OvertimeSource interface {
	ListOvertimeRecords(ctx context.Context, period domain.Period) ([]domain.OvertimeRecord, error)
	GetOvertimeRecord(ctx context.Context, id string) (*domain.OvertimeRecord, error)
	CreateOvertimeRecord(ctx context.Context, record domain.OvertimeRecord) (*domain.OvertimeRecord, error)
	UpdateOvertimeRecord(ctx context.Context, record domain.OvertimeRecord) (*domain.OvertimeRecord, error)
	DeleteOvertimeRecord(ctx context.Context, id string) error
}

type ScheduleSource interface {
	ListScheduleRecords(ctx context.Context, period domain.Period) ([]domain.ScheduleRecord, error)
}

// SummarySource returns the authoritative per-employee totals for a month.
type SummarySource interface {
	MonthlySummary(ctx context.Context, period domain.Period) ([]domain.EmployeeSummaryStat, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	EmployeeDirectory
	OvertimeSource
	ScheduleSource
	SummarySource
	AuditStore
	UserStore
}
