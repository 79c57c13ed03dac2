// Package metadata persists Form, Component and Field records.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/formengine/config"
	"github.com/melkeydev/formengine/databases"
	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/types"
)

type Store struct {
	pool   *databases.Pool
	tables config.MetadataConfig

	onFormChange []func(formID int64)
}

func NewStore(pool *databases.Pool, tables config.MetadataConfig) *Store {
	return &Store{pool: pool, tables: tables}
}

// OnFormChange registers fn to run after a form record is updated or deleted.
func (s *Store) OnFormChange(fn func(formID int64)) {
	s.onFormChange = append(s.onFormChange, fn)
}

func (s *Store) Pool() *databases.Pool {
	return s.pool
}

func (s *Store) notify(formID int64) {
	for _, fn := range s.onFormChange {
		fn(formID)
	}
}

const formColumns = `form_id, form_code, COALESCE(form_name, '') AS form_name, COALESCE(form_type, '') AS form_type,
	table_name, primary_key_column, COALESCE(display_column, '') AS display_column,
	COALESCE(is_active, TRUE) AS is_active`

func (s *Store) ListForms(ctx context.Context) ([]types.Form, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	forms := []types.Form{}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY form_id DESC", formColumns, s.tables.FormsTable())
	if err := db.DB().SelectContext(ctx, &forms, query); err != nil {
		return nil, errs.Query("failed to fetch forms", err)
	}
	return forms, nil
}

// GetForm fails with errs.ErrNotFound when id does not resolve.
func (s *Store) GetForm(ctx context.Context, id int64) (*types.Form, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	var form types.Form
	query := db.DB().Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE form_id = ?", formColumns, s.tables.FormsTable()))
	if err := db.DB().GetContext(ctx, &form, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("form %d not found", id)
		}
		return nil, errs.Query("failed to fetch form", err)
	}
	return &form, nil
}

// CreateForm stores f after checking that its table and key/display columns
// exist in the catalog. The returned id is 0 when the driver cannot report it.
func (s *Store) CreateForm(ctx context.Context, f types.Form) (int64, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.validateForm(ctx, db, f); err != nil {
		return 0, err
	}

	query := db.DB().Rebind(fmt.Sprintf(`INSERT INTO %s
		(form_code, form_name, form_type, table_name, primary_key_column, display_column, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.tables.FormsTable()))
	res, err := db.DB().ExecContext(ctx, query,
		f.Code, f.Name, string(f.Type), f.TableName, f.PrimaryKeyColumn, f.DisplayColumn, true)
	if err != nil {
		return 0, errs.Query("insert failed", err)
	}

	return lastInsertID(res), nil
}

func (s *Store) UpdateForm(ctx context.Context, id int64, f types.Form) error {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return err
	}
	if err := s.validateForm(ctx, db, f); err != nil {
		return err
	}

	query := db.DB().Rebind(fmt.Sprintf(`UPDATE %s SET
		form_name = ?, form_type = ?, table_name = ?, primary_key_column = ?, display_column = ?
		WHERE form_id = ?`, s.tables.FormsTable()))
	res, err := db.DB().ExecContext(ctx, query,
		f.Name, string(f.Type), f.TableName, f.PrimaryKeyColumn, f.DisplayColumn, id)
	if err != nil {
		return errs.Query("update failed", err)
	}
	if err := requireAffected(res, "form %d not found", id); err != nil {
		return err
	}

	s.notify(id)
	return nil
}

func (s *Store) DeleteForm(ctx context.Context, id int64) error {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return err
	}

	query := db.DB().Rebind(fmt.Sprintf("DELETE FROM %s WHERE form_id = ?", s.tables.FormsTable()))
	res, err := db.DB().ExecContext(ctx, query, id)
	if err != nil {
		return errs.Query("delete failed", err)
	}
	if err := requireAffected(res, "form %d not found", id); err != nil {
		return err
	}

	s.notify(id)
	return nil
}

func (s *Store) validateForm(ctx context.Context, db databases.Database, f types.Form) error {
	if !f.Type.Valid() {
		return errs.Validation("invalid form_type %q", f.Type)
	}
	if f.TableName == "" || f.PrimaryKeyColumn == "" || f.DisplayColumn == "" {
		return errs.Validation("table_name, primary_key_column and display_column are required")
	}

	cols, err := db.DescribeTable(ctx, f.TableName)
	if err != nil {
		return errs.Query("schema read failed", err)
	}
	if len(cols) == 0 {
		return errs.Validation("table %q does not exist", f.TableName)
	}

	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c.Name] = true
	}
	names := append([]string{f.PrimaryKeyColumn}, SplitDisplayColumns(f.DisplayColumn)...)
	for _, name := range names {
		if !known[name] {
			return errs.Validation("column %q does not exist in table %q", name, f.TableName)
		}
	}
	return nil
}

// SplitDisplayColumns splits a comma separated display_column value,
// trimming blanks and dropping empty entries.
func SplitDisplayColumns(display string) []string {
	var cols []string
	for _, c := range strings.Split(display, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s *Store) ListComponents(ctx context.Context, formID int64) ([]types.Component, error) {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	components := []types.Component{}
	query := db.DB().Rebind(fmt.Sprintf(`SELECT component_id, form_id,
		COALESCE(component_name, '') AS component_name,
		COALESCE(component_order, 0) AS component_order,
		COALESCE(layout_type, '') AS layout_type
		FROM %s WHERE form_id = ? ORDER BY component_order, component_id`, s.tables.ComponentsTable()))
	if err := db.DB().SelectContext(ctx, &components, query, formID); err != nil {
		return nil, errs.Query("fetch failed", err)
	}
	return components, nil
}

func (s *Store) CreateComponent(ctx context.Context, c types.Component) (int64, error) {
	if c.Layout != "" && !c.Layout.Valid() {
		return 0, errs.Validation("invalid layout_type %q", c.Layout)
	}
	if _, err := s.GetForm(ctx, c.FormID); err != nil {
		return 0, err
	}

	db, err := s.pool.Get(ctx)
	if err != nil {
		return 0, err
	}

	query := db.DB().Rebind(fmt.Sprintf(`INSERT INTO %s
		(form_id, component_name, component_order, layout_type)
		VALUES (?, ?, ?, ?)`, s.tables.ComponentsTable()))
	res, err := db.DB().ExecContext(ctx, query, c.FormID, c.Name, c.Order, string(c.Layout))
	if err != nil {
		return 0, errs.Query("insert failed", err)
	}
	return lastInsertID(res), nil
}

func (s *Store) DeleteComponent(ctx context.Context, id int64) error {
	db, err := s.pool.Get(ctx)
	if err != nil {
		return err
	}

	query := db.DB().Rebind(fmt.Sprintf("DELETE FROM %s WHERE component_id = ?", s.tables.ComponentsTable()))
	res, err := db.DB().ExecContext(ctx, query, id)
	if err != nil {
		return errs.Query("delete failed", err)
	}
	return requireAffected(res, "component %d not found", id)
}

func lastInsertID(res sql.Result) int64 {
	id, err := res.LastInsertId()
	if err != nil {
		return 0
	}
	return id
}

func requireAffected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Warn("rows affected unavailable", "error", err)
		return nil
	}
	if n == 0 {
		return errs.NotFound(format, args...)
	}
	return nil
}

func (s *Store) componentExists(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	var n int
	query := tx.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE component_id = ?", s.tables.ComponentsTable()))
	if err := tx.GetContext(ctx, &n, query, id); err != nil {
		return false, err
	}
	return n > 0, nil
}
