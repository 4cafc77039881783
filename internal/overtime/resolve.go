package overtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

// ResolveContext is everything a name lookup may consult for one employee id.
type ResolveContext struct {
	Directory       []domain.Employee
	ScheduleRecords []domain.ScheduleRecord
	Summary         []domain.EmployeeSummaryStat
	Independent     []domain.OvertimeRecord
	Month           time.Month
}

type Resolution struct {
	Name     string
	Employee *domain.Employee
}

// NameResolver reports a name for id, or false to let the next resolver try.
type NameResolver func(id string, rc ResolveContext) (Resolution, bool)

// DefaultResolvers is the lookup order used by Resolve.
var DefaultResolvers = []NameResolver{
	FromDirectory,
	FromScheduleRecords,
	FromSummary,
	FromIndependentRecords,
}

func Resolve(id string, rc ResolveContext) Resolution {
	return ResolveWith(DefaultResolvers, id, rc)
}

func ResolveWith(resolvers []NameResolver, id string, rc ResolveContext) Resolution {
	for _, resolve := range resolvers {
		if res, ok := resolve(id, rc); ok {
			return res
		}
	}
	return Resolution{Name: FallbackName(rc.Month)}
}

// FallbackName is deterministic so the same period always renders the same placeholder.
func FallbackName(month time.Month) string {
	return fmt.Sprintf("員工%02d", int(month))
}

func FromDirectory(id string, rc ResolveContext) (Resolution, bool) {
	if strings.TrimSpace(id) == "" {
		return Resolution{}, false
	}
	for i := range rc.Directory {
		if rc.Directory[i].ID == id {
			return directoryHit(rc.Directory[i])
		}
	}
	for i := range rc.Directory {
		if rc.Directory[i].ID != "" && strings.Contains(rc.Directory[i].ID, id) {
			return directoryHit(rc.Directory[i])
		}
	}
	return Resolution{}, false
}

func directoryHit(employee domain.Employee) (Resolution, bool) {
	name := strings.TrimSpace(employee.Name)
	if name == "" {
		return Resolution{}, false
	}
	emp := employee
	return Resolution{Name: name, Employee: &emp}, true
}

func FromScheduleRecords(_ string, rc ResolveContext) (Resolution, bool) {
	for _, record := range rc.ScheduleRecords {
		if record.Employee != nil && record.Employee.Kind == domain.RefEmbedded {
			if name := strings.TrimSpace(record.Employee.Name); name != "" {
				return Resolution{Name: name}, true
			}
		}
		if record.EmployeeID.Kind == domain.RefEmbedded {
			if name := strings.TrimSpace(record.EmployeeID.Name); name != "" {
				return Resolution{Name: name}, true
			}
		}
	}
	return Resolution{}, false
}

// FromSummary tolerates ids that were concatenated or truncated upstream by
// falling back to containment in either direction.
func FromSummary(id string, rc ResolveContext) (Resolution, bool) {
	if strings.TrimSpace(id) == "" {
		return Resolution{}, false
	}
	for _, row := range rc.Summary {
		if row.EmployeeID == id && strings.TrimSpace(row.EmployeeName) != "" {
			return Resolution{Name: strings.TrimSpace(row.EmployeeName)}, true
		}
	}
	for _, row := range rc.Summary {
		if row.EmployeeID == "" || strings.TrimSpace(row.EmployeeName) == "" {
			continue
		}
		if strings.Contains(row.EmployeeID, id) || strings.Contains(id, row.EmployeeID) {
			return Resolution{Name: strings.TrimSpace(row.EmployeeName)}, true
		}
	}
	return Resolution{}, false
}

func FromIndependentRecords(id string, rc ResolveContext) (Resolution, bool) {
	for _, record := range rc.Independent {
		if Normalize(record.EmployeeID) != id {
			continue
		}
		if employee := record.EmployeeID.Employee(); employee != nil {
			return Resolution{Name: employee.Name, Employee: employee}, true
		}
	}
	return Resolution{}, false
}
