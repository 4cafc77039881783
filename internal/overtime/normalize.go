package overtime

import (
	"strings"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

// FallbackKey groups every reference that carries no usable id.
const FallbackKey = "unknown"

// Normalize converts an employee reference of any shape into the canonical
// grouping key. It never fails and never returns an empty string.
func Normalize(ref domain.EmployeeRef) string {
	switch ref.Kind {
	case domain.RefString, domain.RefEmbedded, domain.RefObjectID, domain.RefOther:
		if strings.TrimSpace(ref.Value) != "" {
			return ref.Value
		}
	}
	return FallbackKey
}

// NormalizeString is Normalize for ids that already arrived as plain strings,
// such as summary rows.
func NormalizeString(id string) string {
	return Normalize(domain.StringRef(id))
}
