// Package query compiles form metadata and request payloads into statements
// against the form's target table. Every identifier placed into SQL text is
// first checked against the form's allowlist and then quoted; every value is
// bound as a parameter.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/melkeydev/formengine/config"
	"github.com/melkeydev/formengine/databases"
	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/introspect"
	"github.com/melkeydev/formengine/metadata"
	"github.com/melkeydev/formengine/types"
)

type Builder struct {
	store  *metadata.Store
	schema *introspect.Service
	cache  *ristretto.Cache[int64, *Allowlist]
	ttl    time.Duration

	// versions counts invalidations per form
	mu       sync.Mutex
	versions map[int64]uint64
}

func NewBuilder(store *metadata.Store, schema *introspect.Service, cfg config.CacheConfig) (*Builder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[int64, *Allowlist]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
		// cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create allowlist cache: %w", err)
	}

	b := &Builder{
		store:    store,
		schema:   schema,
		cache:    cache,
		ttl:      cfg.AllowlistTTL,
		versions: make(map[int64]uint64),
	}
	store.OnFormChange(b.Invalidate)
	return b, nil
}

func (b *Builder) Close() {
	b.cache.Close()
}

func (b *Builder) prepare(ctx context.Context, formID int64) (*Allowlist, databases.Database, error) {
	a, err := b.allowlist(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	db, err := b.store.Pool().Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return a, db, nil
}

// FetchRow returns the row whose primary key equals recordID, or nil when
// there is none.
func (b *Builder) FetchRow(ctx context.Context, formID int64, recordID string) (map[string]any, error) {
	a, db, err := b.prepare(ctx, formID)
	if err != nil {
		return nil, err
	}

	query := db.DB().Rebind(fmt.Sprintf("SELECT * FROM %s WHERE %s = ?",
		db.Quote(a.Form.TableName), db.Quote(a.Form.PrimaryKeyColumn)))

	rs, err := databases.QueryRows(ctx, db.DB(), query, recordID)
	if err != nil {
		slog.Error("row fetch failed", "form_id", formID, "error", err)
		return nil, errs.Query("row fetch failed", err)
	}
	if len(rs.Rows) == 0 {
		return nil, nil
	}
	return rs.Rows[0], nil
}

// ListAll returns every row of the form's table. Paging is left to the caller.
func (b *Builder) ListAll(ctx context.Context, formID int64) (*types.ResultSet, error) {
	a, db, err := b.prepare(ctx, formID)
	if err != nil {
		return nil, err
	}

	rs, err := databases.QueryRows(ctx, db.DB(), "SELECT * FROM "+db.Quote(a.Form.TableName))
	if err != nil {
		slog.Error("report load failed", "form_id", formID, "error", err)
		return nil, errs.Query("report load failed", err)
	}
	return rs, nil
}

func (b *Builder) InsertRow(ctx context.Context, formID int64, values map[string]any) error {
	if len(values) == 0 {
		return errs.Validation("no values to insert")
	}

	a, db, err := b.prepare(ctx, formID)
	if err != nil {
		return err
	}

	cols := sortedKeys(values)
	if err := a.Check(cols...); err != nil {
		return err
	}
	if err := b.checkRequired(ctx, a, values, true); err != nil {
		return err
	}

	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = db.Quote(c)
		args[i] = values[c]
	}

	query := db.DB().Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.Quote(a.Form.TableName),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")))

	if _, err := db.DB().ExecContext(ctx, query, args...); err != nil {
		slog.Error("insert failed", "form_id", formID, "error", err)
		return errs.Query("insert failed", err)
	}
	return nil
}

// UpdateRow sets every key of values on the row keyed by recordID. The
// primary key may be echoed back unchanged but never rewritten.
func (b *Builder) UpdateRow(ctx context.Context, formID int64, recordID string, values map[string]any) error {
	if len(values) == 0 {
		return errs.Validation("no values to update")
	}

	a, db, err := b.prepare(ctx, formID)
	if err != nil {
		return err
	}

	cols := sortedKeys(values)
	if err := a.Check(cols...); err != nil {
		return err
	}
	if err := b.checkRequired(ctx, a, values, false); err != nil {
		return err
	}

	pk := a.Form.PrimaryKeyColumn
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		if c == pk {
			if fmt.Sprint(values[c]) != recordID {
				return errs.Validation("primary key %q cannot be changed", pk)
			}
			continue
		}
		sets = append(sets, db.Quote(c)+" = ?")
		args = append(args, values[c])
	}
	if len(sets) == 0 {
		return errs.Validation("no values to update")
	}
	args = append(args, recordID)

	query := db.DB().Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		db.Quote(a.Form.TableName), strings.Join(sets, ", "), db.Quote(pk)))

	res, err := db.DB().ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("update failed", "form_id", formID, "error", err)
		return errs.Query("update failed", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("record %s not found", recordID)
	}
	return nil
}

// NextValue returns max(fieldName)+1 over the form's table, 1 when empty.
func (b *Builder) NextValue(ctx context.Context, formID int64, fieldName string) (int64, error) {
	a, err := b.allowlist(ctx, formID)
	if err != nil {
		return 0, err
	}
	if err := a.Check(fieldName); err != nil {
		return 0, err
	}
	db, err := b.store.Pool().Get(ctx)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", db.Quote(fieldName), db.Quote(a.Form.TableName))

	var next any
	if err := db.DB().QueryRowxContext(ctx, query).Scan(&next); err != nil {
		slog.Error("next value failed", "form_id", formID, "field", fieldName, "error", err)
		return 0, errs.Query("next value failed", err)
	}

	n, err := toInt64(next)
	if err != nil {
		slog.Error("next value not numeric", "form_id", formID, "field", fieldName, "value", next)
		return 0, errs.Query("next value failed", err)
	}
	return n, nil
}

// ListOptions returns {value, label} pairs for dropdowns bound to formID,
// ordered by the first display column.
func (b *Builder) ListOptions(ctx context.Context, formID int64) ([]types.Option, error) {
	a, db, err := b.prepare(ctx, formID)
	if err != nil {
		return nil, err
	}
	if len(a.Display) == 0 {
		return nil, errs.Validation("form %d has no display column", formID)
	}

	quoted := make([]string, len(a.Display))
	for i, c := range a.Display {
		quoted[i] = db.Quote(c)
	}
	label := quoted[0]
	if len(quoted) > 1 {
		label = db.LabelExpr(quoted)
	}

	query := fmt.Sprintf("SELECT %s AS value, %s AS label FROM %s ORDER BY %s",
		db.Quote(a.Form.PrimaryKeyColumn), label, db.Quote(a.Form.TableName), quoted[0])

	rs, err := databases.QueryRows(ctx, db.DB(), query)
	if err != nil {
		slog.Error("options load failed", "form_id", formID, "error", err)
		return nil, errs.Query("options load failed", err)
	}

	options := make([]types.Option, len(rs.Rows))
	for i, row := range rs.Rows {
		options[i] = types.Option{Value: row["value"], Label: row["label"]}
	}
	return options, nil
}

// checkRequired rejects payloads that leave a required field empty. On insert
// a required field must be present; on update it may be omitted but not cleared.
// Auto fields are computed by the caller and not checked.
func (b *Builder) checkRequired(ctx context.Context, a *Allowlist, values map[string]any, insert bool) error {
	fields, err := b.store.ActiveFields(ctx, a.Form.ID)
	if err != nil {
		return err
	}

	for _, f := range fields {
		if !f.IsRequired || f.IsAuto || !a.Has(f.Name) {
			continue
		}
		v, ok := values[f.Name]
		if !ok && !insert {
			continue
		}
		if !ok || isEmpty(v) {
			return errs.Validation("field %q is required", f.Name)
		}
	}
	return nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	default:
		return 0, fmt.Errorf("unexpected value %T", v)
	}
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
