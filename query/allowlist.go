package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/metadata"
	"github.com/melkeydev/formengine/types"
)

// Allowlist is the set of identifiers that may appear in SQL generated for
// one form: its table and the columns the catalog reports for it.
type Allowlist struct {
	Form    types.Form
	Columns []types.Column
	Display []string

	known map[string]bool
}

func newAllowlist(form types.Form, cols []types.Column) (*Allowlist, error) {
	if len(cols) == 0 {
		return nil, errs.Validation("table %q of form %d does not exist", form.TableName, form.ID)
	}

	a := &Allowlist{
		Form:    form,
		Columns: cols,
		Display: metadata.SplitDisplayColumns(form.DisplayColumn),
		known:   make(map[string]bool, len(cols)),
	}
	for _, c := range cols {
		a.known[c.Name] = true
	}

	if err := a.Check(form.PrimaryKeyColumn); err != nil {
		return nil, err
	}
	if err := a.Check(a.Display...); err != nil {
		return nil, err
	}
	return a, nil
}

// Check fails with a validation error on the first name the table does not have.
func (a *Allowlist) Check(names ...string) error {
	for _, name := range names {
		if !a.known[name] {
			return errs.Validation("column %q is not allowed for form %d", name, a.Form.ID)
		}
	}
	return nil
}

func (a *Allowlist) Has(name string) bool {
	return a.known[name]
}

func (b *Builder) allowlist(ctx context.Context, formID int64) (*Allowlist, error) {
	if a, ok := b.cache.Get(formID); ok {
		return a, nil
	}
	version := b.version(formID)

	form, err := b.store.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	cols, err := b.schema.Columns(ctx, form.TableName)
	if err != nil {
		return nil, err
	}

	a, err := newAllowlist(*form, cols)
	if err != nil {
		return nil, fmt.Errorf("form %d: %w", formID, err)
	}

	if !b.remember(formID, version, a) {
		slog.Debug("form changed while building allowlist, not caching", "form_id", formID)
	}
	return a, nil
}

func (b *Builder) version(formID int64) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[formID]
}

// remember caches a unless formID was invalidated since version was read.
func (b *Builder) remember(formID int64, version uint64, a *Allowlist) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.versions[formID] != version {
		return false
	}
	b.cache.SetWithTTL(formID, a, 1, b.ttl)
	return true
}

// Invalidate drops the cached allowlist of formID. Builds already in flight
// for it will not be cached.
func (b *Builder) Invalidate(formID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.versions[formID]++
	b.cache.Del(formID)
}
