package domain

import (
	"encoding/json"
	"testing"
)

func TestEmployeeRefDecodesEveryShape(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		kind  RefKind
		value string
	}{
		{name: "plain string", raw: `"E1"`, kind: RefString, value: "E1"},
		{name: "blank string", raw: `"  "`, kind: RefMissing, value: ""},
		{name: "null", raw: `null`, kind: RefMissing, value: ""},
		{name: "embedded", raw: `{"_id":"E2","name":"Lin"}`, kind: RefEmbedded, value: "E2"},
		{name: "embedded with oid id", raw: `{"_id":{"$oid":"abc"},"name":"Chen"}`, kind: RefEmbedded, value: "abc"},
		{name: "object id", raw: `{"$oid":"abc"}`, kind: RefObjectID, value: "abc"},
		{name: "number", raw: `42`, kind: RefOther, value: "42"},
		{name: "object without id", raw: `{ "code": 7 }`, kind: RefOther, value: `{"code":7}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ref EmployeeRef
			if err := json.Unmarshal([]byte(tc.raw), &ref); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ref.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, ref.Kind)
			}
			if ref.Value != tc.value {
				t.Fatalf("expected value %q, got %q", tc.value, ref.Value)
			}
		})
	}
}

func TestEmployeeRefEmbeddedExposesEmployee(t *testing.T) {
	var ref EmployeeRef
	if err := json.Unmarshal([]byte(`{"_id":"E2","name":"Lin","department":"pharmacy"}`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	employee := ref.Employee()
	if employee == nil {
		t.Fatalf("expected embedded employee")
	}
	if employee.ID != "E2" || employee.Name != "Lin" || employee.Department != "pharmacy" {
		t.Fatalf("unexpected employee %+v", employee)
	}

	if StringRef("E2").Employee() != nil {
		t.Fatalf("string reference must not expose an employee")
	}
}

func TestEmployeeRefMarshalKeepsShape(t *testing.T) {
	record := OvertimeRecord{ID: "r1", EmployeeID: ObjectIDRef("abc"), Date: "2025-03-01", Hours: 2, Status: StatusPending}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded OvertimeRecord
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EmployeeID.Kind != RefObjectID || decoded.EmployeeID.Value != "abc" {
		t.Fatalf("expected object id reference to survive, got %+v", decoded.EmployeeID)
	}
}

func TestDecodeScheduleBatchSkipsMalformedElements(t *testing.T) {
	payload := []byte(`[
		{"_id":"s1","employeeId":"E1","date":"2025-03-02","shift":"evening","leaveType":"overtime"},
		"not-an-object",
		42,
		{"_id":["bad"],"employeeId":"E1"},
		{"_id":"s2","employeeId":{"$oid":"E2"},"date":"2025-03-03","shift":"morning","leaveType":"overtime"},
		{"_id":{"$oid":"s3"},"employeeId":"E1","date":"2025-03-04","shift":"morning","leaveType":"overtime"},
		{"_id":17,"employeeId":"E1","date":"2025-03-05","shift":"afternoon","leaveType":"overtime"},
		{"employeeId":"E1","date":"2025-03-06","shift":"evening","leaveType":"overtime"}
	]`)

	records, skipped, err := DecodeScheduleBatch(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped elements, got %d", skipped)
	}
	if records[1].EmployeeID.Value != "E2" {
		t.Fatalf("expected second record to reference E2, got %+v", records[1].EmployeeID)
	}
	if records[2].ID != "s3" || records[3].ID != "17" {
		t.Fatalf("expected object id and numeric record ids to be kept, got %q and %q", records[2].ID, records[3].ID)
	}
	if records[4].ID != "" {
		t.Fatalf("expected record without _id to decode with an empty id, got %q", records[4].ID)
	}
	if records[3].Shift != "afternoon" || records[2].EmployeeID.Value != "E1" {
		t.Fatalf("expected remaining fields to decode, got %+v and %+v", records[2], records[3])
	}
}

func TestOvertimeRecordDecodesObjectID(t *testing.T) {
	var record OvertimeRecord
	raw := `{"_id":{"$oid":"ot1"},"employeeId":"E1","date":"2025-03-01","hours":2,"status":"approved"}`
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.ID != "ot1" || record.Hours != 2 || record.EmployeeID.Value != "E1" {
		t.Fatalf("unexpected record %+v", record)
	}

	if err := json.Unmarshal([]byte(`{"_id":true,"hours":1}`), &record); err == nil {
		t.Fatalf("expected boolean id to be rejected")
	}
}

func TestDecodeBatchRejectsNonArray(t *testing.T) {
	if _, _, err := DecodeScheduleBatch([]byte(`{"_id":"s1"}`)); err == nil {
		t.Fatalf("expected non-array payload to be rejected")
	}
}
