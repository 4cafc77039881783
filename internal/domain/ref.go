package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RefKind tags the shape an employee reference arrived in. The employee,
// schedule and overtime services each send a different one.
type RefKind uint8

const (
	RefMissing RefKind = iota
	RefString
	RefEmbedded
	RefObjectID
	RefOther
)

func (k RefKind) String() string {
	switch k {
	case RefString:
		return "string"
	case RefEmbedded:
		return "embedded"
	case RefObjectID:
		return "object_id"
	case RefOther:
		return "other"
	default:
		return "missing"
	}
}

// EmployeeRef is a decoded employee reference. Value holds the id for the
// string, embedded and object-id kinds, and the compact JSON text for RefOther.
type EmployeeRef struct {
	Kind       RefKind
	Value      string
	Name       string
	Position   string
	Department string
}

func StringRef(id string) EmployeeRef {
	if strings.TrimSpace(id) == "" {
		return EmployeeRef{}
	}
	return EmployeeRef{Kind: RefString, Value: id}
}

func ObjectIDRef(oid string) EmployeeRef {
	return EmployeeRef{Kind: RefObjectID, Value: oid}
}

func EmbeddedRef(employee Employee) EmployeeRef {
	return EmployeeRef{
		Kind:       RefEmbedded,
		Value:      employee.ID,
		Name:       employee.Name,
		Position:   employee.Position,
		Department: employee.Department,
	}
}

// Employee returns the embedded employee object when the reference carries a name.
func (r EmployeeRef) Employee() *Employee {
	if r.Kind != RefEmbedded || strings.TrimSpace(r.Name) == "" {
		return nil
	}
	return &Employee{ID: r.Value, Name: r.Name, Position: r.Position, Department: r.Department}
}

func (r *EmployeeRef) UnmarshalJSON(data []byte) error {
	*r = EmployeeRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = StringRef(s)
		return nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		if rawID, ok := fields["_id"]; ok {
			r.Kind = RefEmbedded
			r.Value = idText(rawID)
			r.Name = stringField(fields, "name")
			r.Position = stringField(fields, "position")
			r.Department = stringField(fields, "department")
			if r.Value == "" {
				r.Kind = RefOther
				r.Value = compactText(data)
			}
			return nil
		}
		if rawOID, ok := fields["$oid"]; ok {
			if oid := idText(rawOID); oid != "" {
				*r = ObjectIDRef(oid)
				return nil
			}
		}
		r.Kind = RefOther
		r.Value = compactText(data)
		return nil
	default:
		r.Kind = RefOther
		r.Value = compactText(data)
		return nil
	}
}

func (r EmployeeRef) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefString:
		return json.Marshal(r.Value)
	case RefObjectID:
		return json.Marshal(map[string]string{"$oid": r.Value})
	case RefEmbedded:
		out := map[string]string{"_id": r.Value}
		if r.Name != "" {
			out["name"] = r.Name
		}
		if r.Position != "" {
			out["position"] = r.Position
		}
		if r.Department != "" {
			out["department"] = r.Department
		}
		return json.Marshal(out)
	case RefOther:
		if json.Valid([]byte(r.Value)) {
			return []byte(r.Value), nil
		}
		return json.Marshal(r.Value)
	default:
		return []byte("null"), nil
	}
}

// idText reads an id that may be a JSON string, a {"$oid": ...} object or a number.
func idText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{':
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil {
			return ""
		}
		if oid, ok := nested["$oid"]; ok {
			return idText(oid)
		}
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func compactText(data []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}
