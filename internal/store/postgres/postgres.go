package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
	"github.com/henry1266/pharmacy-pos-sub010/internal/overtime"
	"github.com/henry1266/pharmacy-pos-sub010/internal/store"
	"github.com/henry1266/pharmacy-pos-sub010/internal/xid"
)

const workDateLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position, department
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 32)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.Department); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) ListOvertimeRecords(ctx context.Context, period domain.Period) ([]domain.OvertimeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_ref, work_date, hours, description, status
		FROM overtime_records
		WHERE work_date >= $1 AND work_date < $2
		ORDER BY work_date, created_at, id
	`, period.Start(), period.End())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.OvertimeRecord, 0, 64)
	for rows.Next() {
		record, err := scanOvertimeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOvertimeRecord(row rowScanner) (domain.OvertimeRecord, error) {
	var (
		record  domain.OvertimeRecord
		ref     []byte
		date    time.Time
		hours   decimal.Decimal
		details string
	)
	if err := row.Scan(&record.ID, &ref, &date, &hours, &details, &record.Status); err != nil {
		return domain.OvertimeRecord{}, err
	}
	if err := json.Unmarshal(ref, &record.EmployeeID); err != nil {
		log.Printf("[postgres-store] WARN: undecodable employee_ref record=%s: %v", record.ID, err)
	}
	record.Date = date.UTC().Format(workDateLayout)
	record.Hours = hours.InexactFloat64()
	record.Description = details
	return record, nil
}

func (s *Store) GetOvertimeRecord(ctx context.Context, id string) (*domain.OvertimeRecord, error) {
	record, err := scanOvertimeRecord(s.db.QueryRowContext(ctx, `
		SELECT id, employee_ref, work_date, hours, description, status
		FROM overtime_records
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) CreateOvertimeRecord(ctx context.Context, record domain.OvertimeRecord) (*domain.OvertimeRecord, error) {
	key := overtime.Normalize(record.EmployeeID)
	date, ok := domain.ParseDate(record.Date)
	if key == overtime.FallbackKey || !ok || record.Hours <= 0 {
		return nil, store.ErrInvalidInput
	}
	if record.ID == "" {
		record.ID = xid.New("ot")
	}
	if record.Status == "" {
		record.Status = domain.StatusPending
	}
	ref, err := json.Marshal(record.EmployeeID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO overtime_records (id, employee_ref, employee_key, work_date, hours, description, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, record.ID, string(ref), key, date, decimal.NewFromFloat(record.Hours), record.Description, record.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	record.Date = date.Format(workDateLayout)
	return &record, nil
}

func (s *Store) UpdateOvertimeRecord(ctx context.Context, record domain.OvertimeRecord) (*domain.OvertimeRecord, error) {
	date, ok := domain.ParseDate(record.Date)
	if !ok || record.Hours <= 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE overtime_records
		SET work_date = $2, hours = $3, description = $4, status = $5, updated_at = now()
		WHERE id = $1
	`, record.ID, date, decimal.NewFromFloat(record.Hours), record.Description, record.Status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOvertimeRecord(ctx, record.ID)
}

func (s *Store) DeleteOvertimeRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM overtime_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListScheduleRecords decodes the stored scheduling documents as one batch.
// Documents that no longer decode are skipped and logged.
func (s *Store) ListScheduleRecords(ctx context.Context, period domain.Period) ([]domain.ScheduleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM schedule_records
		WHERE work_date >= $1 AND work_date < $2
		ORDER BY work_date, id
	`, period.Start(), period.End())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch bytes.Buffer
	batch.WriteByte('[')
	count := 0
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		if count > 0 {
			batch.WriteByte(',')
		}
		batch.Write(payload)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	batch.WriteByte(']')

	records, skipped, err := domain.DecodeScheduleBatch(batch.Bytes())
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("[postgres-store] WARN: skipped %d undecodable schedule payloads period=%s", skipped, period)
	}
	return records, nil
}

func (s *Store) MonthlySummary(ctx context.Context, period domain.Period) ([]domain.EmployeeSummaryStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, employee_name, overtime_hours, schedule_record_count
		FROM overtime_monthly_summaries
		WHERE year = $1 AND month = $2
		ORDER BY employee_id
	`, period.Year, int(period.Month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make([]domain.EmployeeSummaryStat, 0, 32)
	for rows.Next() {
		var (
			row    domain.EmployeeSummaryStat
			hours  decimal.Decimal
			shifts sql.NullInt32
		)
		if err := rows.Scan(&row.EmployeeID, &row.EmployeeName, &hours, &shifts); err != nil {
			return nil, err
		}
		row.OvertimeHours = hours.InexactFloat64()
		if shifts.Valid {
			count := int(shifts.Int32)
			row.ScheduleRecordCount = &count
		}
		summary = append(summary, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
