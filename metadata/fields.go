package metadata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/types"
)

const fieldColumns = `field_id, component_id, field_name,
	COALESCE(field_label, '') AS field_label,
	field_type,
	COALESCE(placeholder, '') AS placeholder,
	COALESCE(default_value, '') AS default_value,
	COALESCE(col_span, 6) AS col_span,
	COALESCE(field_order, 0) AS field_order,
	COALESCE(is_required, FALSE) AS is_required,
	COALESCE(is_unique, FALSE) AS is_unique,
	COALESCE(is_readonly, FALSE) AS is_readonly,
	COALESCE(is_auto, FALSE) AS is_auto,
	COALESCE(is_template, FALSE) AS is_template,
	COALESCE(is_active, TRUE) AS is_active,
	dropdown_form_id`

func (s *Store) ListFields(ctx context.Context, componentID int64) ([]types.Field, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	fields := []types.Field{}
	query := db.DB().Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE component_id = ? ORDER BY field_order, field_id",
		fieldColumns, s.tables.FieldsTable()))
	if err := db.DB().SelectContext(ctx, &fields, query, componentID); err != nil {
		return nil, errs.Query("fetch failed", err)
	}
	return fields, nil
}

// ListTemplates returns fields flagged as reusable templates, ordered by label.
func (s *Store) ListTemplates(ctx context.Context) ([]types.Field, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	fields := []types.Field{}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE is_template = TRUE ORDER BY field_label, field_id",
		fieldColumns, s.tables.FieldsTable())
	if err := db.DB().SelectContext(ctx, &fields, query); err != nil {
		return nil, errs.Query("template fetch failed", err)
	}
	return fields, nil
}

// ActiveFields returns the active fields of every component of a form.
func (s *Store) ActiveFields(ctx context.Context, formID int64) ([]types.Field, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	fields := []types.Field{}
	query := db.DB().Rebind(fmt.Sprintf(`SELECT %s FROM %s
		WHERE is_active = TRUE AND component_id IN (SELECT component_id FROM %s WHERE form_id = ?)
		ORDER BY field_order, field_id`,
		fieldColumns, s.tables.FieldsTable(), s.tables.ComponentsTable()))
	if err := db.DB().SelectContext(ctx, &fields, query, formID); err != nil {
		return nil, errs.Query("field fetch failed", err)
	}
	return fields, nil
}

// BulkInsertFields stores drafts under one component in a single transaction.
// Any failing row rolls back the whole batch.
func (s *Store) BulkInsertFields(ctx context.Context, componentID int64, drafts []types.FieldDraft) error {
	for i, d := range drafts {
		if d.Name == "" {
			return errs.Validation("field %d: field_name is required", i)
		}
		if !d.Type.Valid() {
			return errs.Validation("field %q: invalid field_type %q", d.Name, d.Type)
		}
		if d.DropdownFormID != nil && d.Type != types.FieldDropdown {
			return errs.Validation("field %q: dropdown_form_id requires field_type dropdown", d.Name)
		}
	}

	db, err := s.pool.Get(ctx)
	if err != nil {
		return err
	}

	tx, err := db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return errs.Query("bulk insert failed", err)
	}
	defer tx.Rollback()

	ok, err := s.componentExists(ctx, tx, componentID)
	if err != nil {
		return errs.Query("bulk insert failed", err)
	}
	if !ok {
		return errs.NotFound("component %d not found", componentID)
	}

	query := tx.Rebind(fmt.Sprintf(`INSERT INTO %s
		(component_id, field_name, field_label, field_type, placeholder, default_value, col_span, field_order,
		 is_required, is_unique, is_readonly, dropdown_form_id, is_template, is_auto, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.tables.FieldsTable()))

	for i, d := range drafts {
		order := d.Order
		if order == 0 {
			order = i + 1
		}
		colSpan := d.ColSpan
		if colSpan == 0 {
			colSpan = 6
		}

		_, err := tx.ExecContext(ctx, query,
			componentID, d.Name, d.Label, string(d.Type), d.Placeholder, d.DefaultValue, colSpan, order,
			d.IsRequired, d.IsUnique, d.IsReadonly, d.DropdownFormID, d.IsTemplate, d.IsAuto, true)
		if err != nil {
			slog.Error("bulk field insert failed", "component_id", componentID, "field", d.Name, "error", err)
			return errs.Query("bulk insert failed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Query("bulk insert failed", err)
	}
	return nil
}

func (s *Store) DeleteField(ctx context.Context, id int64) error {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return err
	}

	query := db.DB().Rebind(fmt.Sprintf("DELETE FROM %s WHERE field_id = ?", s.tables.FieldsTable()))
	res, err := db.DB().ExecContext(ctx, query, id)
	if err != nil {
		return errs.Query("delete failed", err)
	}
	return requireAffected(res, "field %d not found", id)
}

// StructureRows joins a form with its components and active fields, ordered
// by component_order then field_order.
func (s *Store) StructureRows(ctx context.Context, formID int64) ([]types.StructureRow, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	query := db.DB().Rebind(fmt.Sprintf(`
		SELECT
			fm.form_id,
			COALESCE(fm.form_name, '') AS form_name,
			COALESCE(fm.form_type, '') AS form_type,

			c.component_id,
			COALESCE(c.component_name, '') AS component_name,
			COALESCE(c.component_order, 0) AS component_order,
			COALESCE(c.layout_type, '') AS layout_type,

			f.field_id,
			f.field_name,
			COALESCE(f.field_label, '') AS field_label,
			f.field_type,
			COALESCE(f.col_span, 6) AS col_span,
			COALESCE(f.field_order, 0) AS field_order,
			COALESCE(f.is_required, FALSE) AS is_required,
			COALESCE(f.is_auto, FALSE) AS is_auto,
			f.dropdown_form_id

		FROM %s fm
		JOIN %s c ON c.form_id = fm.form_id
		JOIN %s f ON f.component_id = c.component_id

		WHERE fm.form_id = ?
		  AND f.is_active = TRUE

		ORDER BY c.component_order, c.component_id, f.field_order, f.field_id
	`, s.tables.FormsTable(), s.tables.ComponentsTable(), s.tables.FieldsTable()))

	rows := []types.StructureRow{}
	if err := db.DB().SelectContext(ctx, &rows, query, formID); err != nil {
		return nil, errs.Query("structure load failed", err)
	}
	return rows, nil
}
