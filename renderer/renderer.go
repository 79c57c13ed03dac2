// Package renderer holds the client-side state of one form being filled in:
// its structure, dropdown option sets, auto values and the values entered so far.
package renderer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/types"
	"golang.org/x/sync/errgroup"
)

// ErrStale is returned by Select when another selection replaced it before
// its results arrived. The stale results are dropped.
var ErrStale = errors.New("form selection changed")

// Backend is the part of the API a session talks to. *client.Client
// satisfies it.
type Backend interface {
	Structure(ctx context.Context, formID int64) (*types.Structure, error)
	NextValue(ctx context.Context, formID int64, field string) (int64, error)
	Options(ctx context.Context, formID int64) ([]types.Option, error)
	FetchRow(ctx context.Context, formID int64, recordID string) (map[string]any, error)
	InsertRow(ctx context.Context, formID int64, values map[string]any) error
	UpdateRow(ctx context.Context, formID int64, recordID string, values map[string]any) error
}

type Session struct {
	api Backend

	mu        sync.Mutex
	token     uuid.UUID
	formID    int64
	editID    string
	structure *types.Structure
	values    map[string]any
	options   map[int64][]types.Option
	auto      map[string]bool
}

func NewSession(api Backend) *Session {
	return &Session{
		api:     api,
		values:  map[string]any{},
		options: map[int64][]types.Option{},
		auto:    map[string]bool{},
	}
}

// Select switches the session to formID. An empty editID starts a new
// record and fills its auto fields; otherwise the record is loaded for
// editing. Dropdown options load concurrently with the rest.
func (s *Session) Select(ctx context.Context, formID int64, editID string) error {
	token := s.reset(formID, editID)

	st, err := s.api.Structure(ctx, formID)
	if err != nil {
		return err
	}
	if !s.apply(token, func() { s.structure = st }) {
		return ErrStale
	}

	var g errgroup.Group
	for _, c := range st.Components {
		for _, f := range c.Fields {
			if f.Type == types.FieldDropdown && f.DropdownFormID != nil {
				g.Go(func() error {
					opts, err := s.api.Options(ctx, *f.DropdownFormID)
					if err != nil {
						return err
					}
					s.apply(token, func() { s.options[f.ID] = opts })
					return nil
				})
			}

			if f.IsAuto && editID == "" {
				g.Go(func() error {
					next, err := s.api.NextValue(ctx, formID, f.Name)
					if err != nil {
						return err
					}
					s.apply(token, func() {
						s.values[f.Name] = next
						s.auto[f.Name] = true
					})
					return nil
				})
			}
		}
	}

	if editID != "" {
		g.Go(func() error {
			row, err := s.api.FetchRow(ctx, formID, editID)
			if err != nil {
				return err
			}
			if row == nil {
				return errs.NotFound("record %s not found", editID)
			}
			s.apply(token, func() {
				for k, v := range row {
					s.values[k] = v
				}
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if !s.current(token) {
			return ErrStale
		}
		return err
	}
	if !s.current(token) {
		slog.Debug("discarded stale form selection", "form_id", formID)
		return ErrStale
	}
	return nil
}

func (s *Session) reset(formID int64, editID string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = uuid.New()
	s.formID = formID
	s.editID = editID
	s.structure = nil
	s.values = map[string]any{}
	s.options = map[int64][]types.Option{}
	s.auto = map[string]bool{}
	return s.token
}

// apply runs fn under the lock if token is still the current selection.
func (s *Session) apply(token uuid.UUID, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != token {
		return false
	}
	fn()
	return true
}

func (s *Session) current(token uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}

func (s *Session) FormID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formID
}

// Editing reports whether the session edits an existing record.
func (s *Session) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editID != ""
}

func (s *Session) Structure() *types.Structure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.structure
}

// Options returns the option set loaded for a dropdown field.
func (s *Session) Options(fieldID int64) []types.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options[fieldID]
}

// ReadOnly reports whether f holds a server-computed value on a new record.
func (s *Session) ReadOnly(f types.FieldSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auto[f.Name]
}

// Set records a user-entered value. Auto fields of a new record cannot be set.
func (s *Session) Set(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.structure == nil {
		return errs.Validation("no form selected")
	}
	if s.auto[name] {
		return errs.Validation("field %q is read-only", name)
	}
	s.values[name] = value
	return nil
}

// Values returns a copy of the current values.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Submit inserts a new record or updates the one being edited.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.structure == nil {
		s.mu.Unlock()
		return errs.Validation("no form selected")
	}
	formID, editID := s.formID, s.editID
	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	s.mu.Unlock()

	if editID == "" {
		return s.api.InsertRow(ctx, formID, values)
	}
	return s.api.UpdateRow(ctx, formID, editID, values)
}
