// Package report filters, totals and paginates an arbitrary result set for
// tabular browsing.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultPageSize = 10

var amountPattern = regexp.MustCompile(`(?i)amt|amount|value|val|total|qty|kg`)

// IsAmountColumn reports whether a column holds amounts: right aligned,
// summed, and shown with two decimals.
func IsAmountColumn(name string) bool {
	return amountPattern.MatchString(name)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate reports whether v is a calendar date. Numbers are never dates.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// Number converts v to a float. Anything non-numeric counts as zero.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// View is the browsing state over one form's rows.
type View struct {
	columns  []string
	visible  map[string]bool
	rows     []map[string]any
	filters  map[string]string
	pageSize int
	page     int
	printer  *message.Printer
}

// New builds a view. When columns is empty they are taken from the keys of
// the first row, sorted.
func New(rows []map[string]any, columns []string) *View {
	v := &View{
		filters:  make(map[string]string),
		pageSize: DefaultPageSize,
		page:     1,
		printer:  message.NewPrinter(language.English),
	}
	v.SetRows(rows, columns)
	return v
}

// SetRows replaces the data, e.g. after a save. Filters and hidden state of
// columns that still exist are kept.
func (v *View) SetRows(rows []map[string]any, columns []string) {
	if len(columns) == 0 && len(rows) > 0 {
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	prev := v.visible
	v.rows = rows
	v.columns = columns
	v.visible = make(map[string]bool, len(columns))
	for _, c := range columns {
		shown, seen := prev[c]
		v.visible[c] = shown || !seen
	}
	for c := range v.filters {
		if _, ok := v.visible[c]; !ok {
			delete(v.filters, c)
		}
	}
	v.clampPage()
}

func (v *View) Columns() []string {
	return v.columns
}

// Visible returns the shown columns in column order.
func (v *View) Visible() []string {
	out := make([]string, 0, len(v.columns))
	for _, c := range v.columns {
		if v.visible[c] {
			out = append(out, c)
		}
	}
	return out
}

func (v *View) ToggleColumn(col string) {
	if _, ok := v.visible[col]; !ok {
		return
	}
	v.visible[col] = !v.visible[col]
	v.clampPage()
}

// SetFilter sets a case-insensitive substring filter on col. An empty
// substring clears it.
func (v *View) SetFilter(col, substr string) {
	if substr == "" {
		delete(v.filters, col)
	} else {
		v.filters[col] = strings.ToLower(substr)
	}
	v.clampPage()
}

// Filtered returns rows passing every filter on a visible column.
func (v *View) Filtered() []map[string]any {
	visible := v.Visible()
	out := make([]map[string]any, 0, len(v.rows))

	for _, r := range v.rows {
		keep := true
		for _, c := range visible {
			f, ok := v.filters[c]
			if !ok {
				continue
			}
			if !strings.Contains(strings.ToLower(stringify(r[c])), f) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// Totals sums every visible amount column over the filtered rows.
func (v *View) Totals() map[string]float64 {
	filtered := v.Filtered()
	totals := make(map[string]float64)

	for _, c := range v.Visible() {
		if !IsAmountColumn(c) {
			continue
		}
		var sum float64
		for _, r := range filtered {
			if n, ok := Number(r[c]); ok {
				sum += n
			}
		}
		totals[c] = sum
	}
	return totals
}

func (v *View) PageSize() int {
	return v.pageSize
}

// SetPageSize changes the page size and returns to the first page.
func (v *View) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	}
	v.pageSize = n
	v.page = 1
}

func (v *View) TotalPages() int {
	n := len(v.Filtered())
	return max(1, (n+v.pageSize-1)/v.pageSize)
}

func (v *View) Page() int {
	return v.page
}

// SetPage moves to page n, ignoring pages outside 1..TotalPages.
func (v *View) SetPage(n int) {
	if n >= 1 && n <= v.TotalPages() {
		v.page = n
	}
}

// PageRows returns the filtered rows of the current page.
func (v *View) PageRows() []map[string]any {
	filtered := v.Filtered()
	start := (v.page - 1) * v.pageSize
	if start >= len(filtered) {
		return []map[string]any{}
	}
	end := min(start+v.pageSize, len(filtered))
	return filtered[start:end]
}

// clampPage returns to the first page when a narrower result set no longer
// reaches the current one.
func (v *View) clampPage() {
	if v.pageSize <= 0 {
		v.pageSize = DefaultPageSize
	}
	if v.page > v.TotalPages() {
		v.page = 1
	}
}

// FormatCell renders a value for display: amounts with two decimals, dates
// as dd/mm/yyyy, nil as empty.
func (v *View) FormatCell(col string, val any) string {
	if val == nil {
		return ""
	}
	if IsAmountColumn(col) {
		if n, ok := Number(val); ok {
			return v.FormatAmount(n)
		}
	}
	if d, ok := ParseDate(val); ok {
		return d.Format("02/01/2006")
	}
	return stringify(val)
}

func (v *View) FormatAmount(n float64) string {
	return v.printer.Sprintf("%.2f", n)
}

func stringify(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
