package types

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type FormType string

const (
	FormMaster      FormType = "MASTER"
	FormTransaction FormType = "TRANSACTION"
	FormReport      FormType = "REPORT"
	FormSetup       FormType = "SETUP"
)

func (t FormType) Valid() bool {
	switch t {
	case FormMaster, FormTransaction, FormReport, FormSetup:
		return true
	}
	return false
}

// LayoutType is a rendering hint only.
type LayoutType string

const (
	LayoutTab       LayoutType = "tab"
	LayoutStepper   LayoutType = "stepper"
	LayoutAccordion LayoutType = "accordion"
)

func (t LayoutType) Valid() bool {
	switch t {
	case LayoutTab, LayoutStepper, LayoutAccordion:
		return true
	}
	return false
}

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldCheckbox FieldType = "checkbox"
	FieldDropdown FieldType = "dropdown"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldCheckbox, FieldDropdown:
		return true
	}
	return false
}

type Form struct {
	ID               int64    `json:"form_id" db:"form_id"`
	Code             *string  `json:"form_code" db:"form_code"`
	Name             string   `json:"form_name" db:"form_name"`
	Type             FormType `json:"form_type" db:"form_type"`
	TableName        string   `json:"table_name" db:"table_name"`
	PrimaryKeyColumn string   `json:"primary_key_column" db:"primary_key_column"`
	DisplayColumn    string   `json:"display_column" db:"display_column"`
	IsActive         bool     `json:"is_active" db:"is_active"`
}

type Component struct {
	ID     int64      `json:"component_id" db:"component_id"`
	FormID int64      `json:"form_id" db:"form_id"`
	Name   string     `json:"component_name" db:"component_name"`
	Order  int        `json:"component_order" db:"component_order"`
	Layout LayoutType `json:"layout_type" db:"layout_type"`
}

type Field struct {
	ID             int64     `json:"field_id" db:"field_id"`
	ComponentID    int64     `json:"component_id" db:"component_id"`
	Name           string    `json:"field_name" db:"field_name"`
	Label          string    `json:"field_label" db:"field_label"`
	Type           FieldType `json:"field_type" db:"field_type"`
	Placeholder    string    `json:"placeholder" db:"placeholder"`
	DefaultValue   string    `json:"default_value" db:"default_value"`
	ColSpan        int       `json:"col_span" db:"col_span"`
	Order          int       `json:"field_order" db:"field_order"`
	IsRequired     bool      `json:"is_required" db:"is_required"`
	IsUnique       bool      `json:"is_unique" db:"is_unique"`
	IsReadonly     bool      `json:"is_readonly" db:"is_readonly"`
	IsAuto         bool      `json:"is_auto" db:"is_auto"`
	IsTemplate     bool      `json:"is_template" db:"is_template"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	DropdownFormID *int64    `json:"dropdown_form_id" db:"dropdown_form_id"`
}

// FieldDraft is a Field proposal that has not been persisted yet.
type FieldDraft struct {
	Name           string    `json:"field_name"`
	Label          string    `json:"field_label"`
	Type           FieldType `json:"field_type"`
	Placeholder    string    `json:"placeholder"`
	DefaultValue   string    `json:"default_value"`
	ColSpan        int       `json:"col_span"`
	Order          int       `json:"field_order"`
	DropdownFormID *int64    `json:"dropdown_form_id"`
	IsRequired     bool      `json:"is_required"`
	IsUnique       bool      `json:"is_unique"`
	IsReadonly     bool      `json:"is_readonly"`
	IsTemplate     bool      `json:"is_template"`
	IsAuto         bool      `json:"is_auto"`
}

// StructureRow is one row of the Form/Component/Field join.
type StructureRow struct {
	FormID         int64     `db:"form_id"`
	FormName       string    `db:"form_name"`
	FormType       FormType  `db:"form_type"`
	ComponentID    int64     `db:"component_id"`
	ComponentName  string    `db:"component_name"`
	ComponentOrder int       `db:"component_order"`
	LayoutType     string    `db:"layout_type"`
	FieldID        int64     `db:"field_id"`
	FieldName      string    `db:"field_name"`
	FieldLabel     string    `db:"field_label"`
	FieldType      FieldType `db:"field_type"`
	ColSpan        int       `db:"col_span"`
	FieldOrder     int       `db:"field_order"`
	IsRequired     bool      `db:"is_required"`
	IsAuto         bool      `db:"is_auto"`
	DropdownFormID *int64    `db:"dropdown_form_id"`
}

type FieldSummary struct {
	ID             int64     `json:"field_id"`
	Name           string    `json:"field_name"`
	Label          string    `json:"field_label"`
	Type           FieldType `json:"field_type"`
	ColSpan        int       `json:"col_span"`
	Order          int       `json:"field_order"`
	IsRequired     bool      `json:"is_required"`
	DropdownFormID *int64    `json:"dropdown_form_id"`
	IsAuto         bool      `json:"is_auto"`
}

type ComponentNode struct {
	ID     int64          `json:"component_id"`
	Name   string         `json:"component_name"`
	Layout string         `json:"layout_type"`
	Order  int            `json:"component_order"`
	Fields []FieldSummary `json:"fields"`
}

// Structure is the render tree of a form. The form header is omitted when
// the form has no active fields yet.
type Structure struct {
	FormID     *int64          `json:"form_id,omitempty"`
	FormName   string          `json:"form_name,omitempty"`
	FormType   FormType        `json:"form_type,omitempty"`
	Components []ComponentNode `json:"components"`
}

type Option struct {
	Value any `json:"value" db:"value"`
	Label any `json:"label" db:"label"`
}

// ResultSet keeps the column order of a query alongside its rows.
type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ColumnsHeader carries the column order of a report response, comma-joined.
const ColumnsHeader = "X-Columns"
