// Package structure builds the Form -> Components -> Fields render tree.
package structure

import (
	"context"

	"github.com/melkeydev/formengine/metadata"
	"github.com/melkeydev/formengine/types"
)

type Service struct {
	store *metadata.Store
}

func NewService(store *metadata.Store) *Service {
	return &Service{store: store}
}

// Load returns the render tree of formID. A form without active fields, or
// an unknown form, yields an empty component list rather than an error.
func (s *Service) Load(ctx context.Context, formID int64) (*types.Structure, error) {
	rows, err := s.store.StructureRows(ctx, formID)
	if err != nil {
		return nil, err
	}
	return Assemble(rows), nil
}

// Assemble groups rows already sorted by component_order, field_order into
// component nodes. Components keep the order in which they first appear.
func Assemble(rows []types.StructureRow) *types.Structure {
	out := &types.Structure{Components: []types.ComponentNode{}}
	if len(rows) == 0 {
		return out
	}

	first := rows[0]
	formID := first.FormID
	out.FormID = &formID
	out.FormName = first.FormName
	out.FormType = first.FormType

	index := make(map[int64]int)
	for _, r := range rows {
		i, ok := index[r.ComponentID]
		if !ok {
			i = len(out.Components)
			index[r.ComponentID] = i
			out.Components = append(out.Components, types.ComponentNode{
				ID:     r.ComponentID,
				Name:   r.ComponentName,
				Layout: r.LayoutType,
				Order:  r.ComponentOrder,
				Fields: []types.FieldSummary{},
			})
		}

		node := &out.Components[i]
		node.Fields = append(node.Fields, types.FieldSummary{
			ID:             r.FieldID,
			Name:           r.FieldName,
			Label:          r.FieldLabel,
			Type:           r.FieldType,
			ColSpan:        r.ColSpan,
			Order:          r.FieldOrder,
			IsRequired:     r.IsRequired,
			DropdownFormID: r.DropdownFormID,
			IsAuto:         r.IsAuto,
		})
	}

	return out
}
