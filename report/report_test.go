package report

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestIsAmountColumn(t *testing.T) {
	tests := []struct {
		col  string
		want bool
	}{
		{"amt", true},
		{"Net_Amount", true},
		{"invoice_value", true},
		{"VAL", true},
		{"grand_total", true},
		{"qty", true},
		{"weight_kgs", true},
		{"customer_id", false},
		{"first_name", false},
		{"created_at", false},
	}
	for _, tt := range tests {
		if got := IsAmountColumn(tt.col); got != tt.want {
			t.Errorf("IsAmountColumn(%q) = %v, want %v", tt.col, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"2024-03-09", "09/03/2024", true},
		{"2024-03-09T10:15:00Z", "09/03/2024", true},
		{"2024-03-09T10:15:00.123+05:30", "09/03/2024", true},
		{"2024-03-09 10:15:00", "09/03/2024", true},
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), "31/12/2023", true},
		{"2024-02-30", "", false},
		{"hello", "", false},
		{"12", "", false},
		{int64(5), "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		d, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && d.Format("02/01/2006") != tt.want {
			t.Errorf("ParseDate(%v) = %s, want %s", tt.in, d.Format("02/01/2006"), tt.want)
		}
	}
}

func TestFormatCell(t *testing.T) {
	v := New(nil, nil)

	tests := []struct {
		col  string
		val  any
		want string
	}{
		{"amt", nil, ""},
		{"amt", float64(10), "10.00"},
		{"amt", "5.5", "5.50"},
		{"amt", int64(3), "3.00"},
		{"amt", "n/a", "n/a"},
		{"joined_on", "2024-01-05", "05/01/2024"},
		{"name", "Ada", "Ada"},
		{"customer_id", int64(42), "42"},
		{"is_vip", true, "true"},
		{"customer_id", float64(1234567), "1234567"},
		{"rate", 0.00005, "0.00005"},
		{"phone", json.Number("9876543210"), "9876543210"},
	}
	for _, tt := range tests {
		if got := v.FormatCell(tt.col, tt.val); got != tt.want {
			t.Errorf("FormatCell(%q, %v) = %q, want %q", tt.col, tt.val, got, tt.want)
		}
	}
}

func TestColumnsFromFirstRow(t *testing.T) {
	v := New([]map[string]any{{"b": 1, "a": 2, "c": 3}}, nil)
	if got := v.Columns(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("columns = %v", got)
	}

	ordered := New([]map[string]any{{"b": 1, "a": 2}}, []string{"b", "a"})
	if got := ordered.Columns(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("columns = %v", got)
	}

	empty := New(nil, nil)
	if len(empty.Columns()) != 0 || empty.TotalPages() != 1 {
		t.Errorf("empty view: columns %v, pages %d", empty.Columns(), empty.TotalPages())
	}
}

func TestTotalsFollowFilter(t *testing.T) {
	rows := []map[string]any{
		{"name": "apple", "amt": float64(10)},
		{"name": "banana", "amt": float64(20)},
		{"name": "Pineapple", "amt": float64(5)},
	}
	v := New(rows, []string{"name", "amt"})

	if got := v.Totals()["amt"]; got != 35 {
		t.Errorf("total = %v, want 35", got)
	}

	v.SetFilter("name", "APPLE")
	if n := len(v.Filtered()); n != 2 {
		t.Errorf("filtered = %d, want 2", n)
	}
	if got := v.Totals()["amt"]; got != 15 {
		t.Errorf("total after filter = %v, want 15", got)
	}

	v.SetFilter("name", "")
	if got := v.Totals()["amt"]; got != 35 {
		t.Errorf("total after clearing = %v, want 35", got)
	}
}

func TestTotalsTreatNonNumericAsZero(t *testing.T) {
	rows := []map[string]any{
		{"qty": "4"}, {"qty": nil}, {"qty": "lots"}, {"qty": int64(6)}, {"qty": true},
	}
	v := New(rows, []string{"qty"})
	if got := v.Totals()["qty"]; got != 10 {
		t.Errorf("total = %v, want 10", got)
	}
}

func TestFiltersCombineWithAnd(t *testing.T) {
	rows := []map[string]any{
		{"city": "Paris", "kind": "retail"},
		{"city": "Paris", "kind": "wholesale"},
		{"city": "Lyon", "kind": "retail"},
		{"city": nil, "kind": "retail"},
	}
	v := New(rows, []string{"city", "kind"})
	v.SetFilter("city", "par")
	v.SetFilter("kind", "RET")

	got := v.Filtered()
	if len(got) != 1 || got[0]["kind"] != "retail" || got[0]["city"] != "Paris" {
		t.Errorf("filtered = %v", got)
	}
}

func TestHiddenColumnsLeaveFilterAndTotals(t *testing.T) {
	rows := []map[string]any{
		{"name": "a", "amt": float64(1), "total": float64(100)},
		{"name": "b", "amt": float64(2), "total": float64(200)},
	}
	v := New(rows, []string{"name", "amt", "total"})
	v.SetFilter("name", "a")
	v.ToggleColumn("name")
	v.ToggleColumn("total")

	if got := v.Visible(); !reflect.DeepEqual(got, []string{"amt"}) {
		t.Errorf("visible = %v", got)
	}
	if n := len(v.Filtered()); n != 2 {
		t.Errorf("filter on hidden column applied: %d rows", n)
	}
	totals := v.Totals()
	if _, ok := totals["total"]; ok || totals["amt"] != 3 {
		t.Errorf("totals = %v", totals)
	}

	v.ToggleColumn("name")
	if n := len(v.Filtered()); n != 1 {
		t.Errorf("filter not restored: %d rows", n)
	}
}

func TestPagination(t *testing.T) {
	rows := make([]map[string]any, 23)
	for i := range rows {
		rows[i] = map[string]any{"id": int64(i + 1), "group": "late"}
	}

	v := New(rows, []string{"id", "group"})
	if got := v.TotalPages(); got != 3 {
		t.Fatalf("pages = %d, want 3", got)
	}

	v.SetPage(3)
	if got := len(v.PageRows()); got != 3 {
		t.Errorf("last page rows = %d, want 3", got)
	}

	for i := range rows[:10] {
		rows[i]["group"] = fmt.Sprintf("early-%d", i)
	}
	v.SetFilter("group", "early")
	if n := len(v.Filtered()); n != 10 {
		t.Fatalf("filtered = %d, want 10", n)
	}
	if v.TotalPages() != 1 || v.Page() != 1 {
		t.Errorf("pages = %d, page = %d, want 1/1", v.TotalPages(), v.Page())
	}

	v.SetFilter("group", "")
	v.SetPageSize(5)
	if v.TotalPages() != 5 || v.Page() != 1 {
		t.Errorf("after page size: pages = %d, page = %d", v.TotalPages(), v.Page())
	}
	v.SetPage(9)
	if v.Page() != 1 {
		t.Errorf("out of range page accepted: %d", v.Page())
	}
	v.SetPage(2)
	page := v.PageRows()
	if len(page) != 5 || page[0]["id"] != int64(6) {
		t.Errorf("page 2 = %v", page)
	}
}

func TestSetRowsKeepsState(t *testing.T) {
	v := New([]map[string]any{{"a": 1, "b": 2}}, []string{"a", "b"})
	v.ToggleColumn("b")
	v.SetFilter("a", "1")

	v.SetRows([]map[string]any{{"a": 1, "b": 2, "c": 3}}, []string{"a", "b", "c"})
	if got := v.Visible(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("visible = %v", got)
	}
	if n := len(v.Filtered()); n != 1 {
		t.Errorf("filtered = %d", n)
	}
}

func TestDecodedNumbersKeepPlainForm(t *testing.T) {
	var rows []map[string]any
	if err := json.Unmarshal([]byte(`[{"customer_id":1234567,"phone":9876543210},{"customer_id":2,"phone":123}]`), &rows); err != nil {
		t.Fatal(err)
	}
	v := New(rows, []string{"customer_id", "phone"})

	if got := v.FormatCell("customer_id", rows[0]["customer_id"]); got != "1234567" {
		t.Errorf("customer_id = %q", got)
	}
	if got := v.FormatCell("phone", rows[0]["phone"]); got != "9876543210" {
		t.Errorf("phone = %q", got)
	}

	v.SetFilter("phone", "98765")
	got := v.Filtered()
	if len(got) != 1 || got[0]["customer_id"] != float64(1234567) {
		t.Errorf("filtered = %v", got)
	}
}
