// Package introspect reads the column catalog of a form's target table and
// proposes Field definitions for it.
package introspect

import (
	"context"
	"strings"

	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/metadata"
	"github.com/melkeydev/formengine/types"
)

// audit columns are maintained by the database, never entered on a form
var auditColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"rowversion": true,
	"timestamp":  true,
}

var numericTypes = map[string]bool{
	"int": true, "integer": true, "tinyint": true, "smallint": true, "mediumint": true, "bigint": true,
	"int2": true, "int4": true, "int8": true, "decimal": true, "numeric": true, "number": true,
	"real": true, "float": true, "double": true, "double precision": true,
	"money": true, "smallmoney": true, "serial": true, "bigserial": true, "smallserial": true,
}

var booleanTypes = map[string]bool{"bit": true, "bool": true, "boolean": true}

// MapType maps a native column type to a field type.
func MapType(native string) types.FieldType {
	t := baseType(native)

	switch {
	case booleanTypes[t]:
		return types.FieldCheckbox
	case numericTypes[t]:
		return types.FieldNumber
	case strings.Contains(t, "date"), strings.Contains(t, "time"):
		return types.FieldDate
	default:
		return types.FieldText
	}
}

// baseType lowercases t and drops size/precision and unsigned modifiers,
// so "DECIMAL(10,2) UNSIGNED" becomes "decimal".
func baseType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSuffix(t, " unsigned")
	return t
}

func IsAuditColumn(name string) bool {
	return auditColumns[strings.ToLower(name)]
}

// Propose turns catalog columns into unsaved field drafts, keeping physical
// column order and skipping audit columns.
func Propose(cols []types.Column) []types.FieldDraft {
	drafts := make([]types.FieldDraft, 0, len(cols))
	for _, c := range cols {
		if IsAuditColumn(c.Name) {
			continue
		}
		drafts = append(drafts, types.FieldDraft{
			Name:       c.Name,
			Label:      strings.ReplaceAll(c.Name, "_", " "),
			Type:       MapType(c.Type),
			ColSpan:    6,
			Order:      len(drafts) + 1,
			IsRequired: !c.Nullable,
		})
	}
	return drafts
}

type Service struct {
	store *metadata.Store
}

func NewService(store *metadata.Store) *Service {
	return &Service{store: store}
}

// Columns returns the catalog of table. An unknown table has no columns.
func (s *Service) Columns(ctx context.Context, table string) ([]types.Column, error) {
	db, err := s.store.Pool().Get(ctx)
	if err != nil {
		return nil, err
	}

	cols, err := db.DescribeTable(ctx, table)
	if err != nil {
		return nil, errs.Query("schema read failed", err)
	}
	return cols, nil
}

// SchemaFields proposes fields for the table behind formID.
func (s *Service) SchemaFields(ctx context.Context, formID int64) ([]types.FieldDraft, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	cols, err := s.Columns(ctx, form.TableName)
	if err != nil {
		return nil, err
	}
	return Propose(cols), nil
}
