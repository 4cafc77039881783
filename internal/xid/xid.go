package xid

import (
	"github.com/google/uuid"
)

// New returns a prefixed random id such as "ot-3f0c...". The prefix keeps ids
// readable in audit logs.
func New(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}
