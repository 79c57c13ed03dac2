package metadata_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/metadata"
	"github.com/melkeydev/formengine/metadata/metadatatest"
	"github.com/melkeydev/formengine/types"
)

func customerForm() types.Form {
	return types.Form{
		Name:             "Customers",
		Type:             types.FormMaster,
		TableName:        "customers",
		PrimaryKeyColumn: "customer_id",
		DisplayColumn:    "first_name, last_name",
	}
}

func TestFormLifecycle(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	id, err := store.CreateForm(ctx, customerForm())
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if id == 0 {
		t.Fatal("expected generated form id")
	}

	form, err := store.GetForm(ctx, id)
	if err != nil {
		t.Fatalf("GetForm: %v", err)
	}
	if form.TableName != "customers" || !form.IsActive || form.Code != nil {
		t.Errorf("unexpected form %+v", form)
	}

	var notified []int64
	store.OnFormChange(func(formID int64) { notified = append(notified, formID) })

	updated := customerForm()
	updated.Name = "Clients"
	updated.DisplayColumn = "last_name"
	if err := store.UpdateForm(ctx, id, updated); err != nil {
		t.Fatalf("UpdateForm: %v", err)
	}

	forms, err := store.ListForms(ctx)
	if err != nil {
		t.Fatalf("ListForms: %v", err)
	}
	if len(forms) != 1 || forms[0].Name != "Clients" || forms[0].DisplayColumn != "last_name" {
		t.Errorf("unexpected forms %+v", forms)
	}

	if err := store.DeleteForm(ctx, id); err != nil {
		t.Fatalf("DeleteForm: %v", err)
	}
	if _, err := store.GetForm(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if !reflect.DeepEqual(notified, []int64{id, id}) {
		t.Errorf("notified = %v", notified)
	}
}

func TestCreateFormValidatesCatalog(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	tests := []struct {
		name   string
		mutate func(*types.Form)
	}{
		{"bad type", func(f *types.Form) { f.Type = "LEDGER" }},
		{"missing table", func(f *types.Form) { f.TableName = "ghosts" }},
		{"unknown pk", func(f *types.Form) { f.PrimaryKeyColumn = "id" }},
		{"unknown display column", func(f *types.Form) { f.DisplayColumn = "first_name,nickname" }},
		{"empty display", func(f *types.Form) { f.DisplayColumn = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := customerForm()
			tt.mutate(&f)
			if _, err := store.CreateForm(ctx, f); !errors.Is(err, errs.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMissingRecords(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	if err := store.UpdateForm(ctx, 99, customerForm()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("UpdateForm: expected not found, got %v", err)
	}
	if err := store.DeleteComponent(ctx, 99); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("DeleteComponent: expected not found, got %v", err)
	}
	if err := store.DeleteField(ctx, 99); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("DeleteField: expected not found, got %v", err)
	}
	if _, err := store.CreateComponent(ctx, types.Component{FormID: 99, Name: "x"}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("CreateComponent: expected not found, got %v", err)
	}
}

func TestComponentsOrdered(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	formID, err := store.CreateForm(ctx, customerForm())
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	for _, c := range []types.Component{
		{FormID: formID, Name: "Second", Order: 2, Layout: types.LayoutTab},
		{FormID: formID, Name: "First", Order: 1, Layout: types.LayoutAccordion},
	} {
		if _, err := store.CreateComponent(ctx, c); err != nil {
			t.Fatalf("CreateComponent: %v", err)
		}
	}

	if _, err := store.CreateComponent(ctx, types.Component{FormID: formID, Layout: "grid"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for layout, got %v", err)
	}

	comps, err := store.ListComponents(ctx, formID)
	if err != nil {
		t.Fatalf("ListComponents: %v", err)
	}
	if len(comps) != 2 || comps[0].Name != "First" || comps[1].Name != "Second" {
		t.Errorf("unexpected components %+v", comps)
	}
}

func TestBulkInsertFields(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	formID, _ := store.CreateForm(ctx, customerForm())
	compID, err := store.CreateComponent(ctx, types.Component{FormID: formID, Name: "Main", Order: 1})
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}

	drafts := []types.FieldDraft{
		{Name: "first_name", Label: "first name", Type: types.FieldText, IsRequired: true},
		{Name: "last_name", Label: "last name", Type: types.FieldText, IsTemplate: true},
		{Name: "customer_id", Label: "customer id", Type: types.FieldNumber, IsAuto: true, Order: 10},
	}
	if err := store.BulkInsertFields(ctx, compID, drafts); err != nil {
		t.Fatalf("BulkInsertFields: %v", err)
	}

	fields, err := store.ListFields(ctx, compID)
	if err != nil {
		t.Fatalf("ListFields: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("got %d fields", len(fields))
	}
	got := []string{fields[0].Name, fields[1].Name, fields[2].Name}
	if !reflect.DeepEqual(got, []string{"first_name", "last_name", "customer_id"}) {
		t.Errorf("order = %v", got)
	}
	if fields[0].ColSpan != 6 || !fields[0].IsRequired || !fields[0].IsActive {
		t.Errorf("defaults not applied: %+v", fields[0])
	}
	if !fields[2].IsAuto || fields[2].Order != 10 {
		t.Errorf("unexpected auto field %+v", fields[2])
	}

	templates, err := store.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 || templates[0].Name != "last_name" {
		t.Errorf("templates = %+v", templates)
	}

	active, err := store.ActiveFields(ctx, formID)
	if err != nil {
		t.Fatalf("ActiveFields: %v", err)
	}
	if len(active) != 3 {
		t.Errorf("active = %d", len(active))
	}
}

func TestBulkInsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	pool, store := metadatatest.Open(t)

	formID, _ := store.CreateForm(ctx, customerForm())
	compID, _ := store.CreateComponent(ctx, types.Component{FormID: formID, Name: "Main"})

	// the trigger rejects the second row after the first was written
	metadatatest.Exec(t, pool, `CREATE TRIGGER reject_bad BEFORE INSERT ON NW_form_fields
		WHEN NEW.field_name = 'bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)

	drafts := []types.FieldDraft{
		{Name: "first_name", Type: types.FieldText},
		{Name: "bad", Type: types.FieldText},
		{Name: "last_name", Type: types.FieldText},
	}
	err := store.BulkInsertFields(ctx, compID, drafts)
	if !errors.Is(err, errs.ErrQuery) {
		t.Fatalf("expected query error, got %v", err)
	}

	fields, err := store.ListFields(ctx, compID)
	if err != nil {
		t.Fatalf("ListFields: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected rollback, found %d fields", len(fields))
	}
}

func TestBulkInsertValidation(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	formID, _ := store.CreateForm(ctx, customerForm())
	compID, _ := store.CreateComponent(ctx, types.Component{FormID: formID})
	ref := formID

	tests := []struct {
		name  string
		draft types.FieldDraft
	}{
		{"no name", types.FieldDraft{Type: types.FieldText}},
		{"bad type", types.FieldDraft{Name: "x", Type: "slider"}},
		{"dropdown ref on text", types.FieldDraft{Name: "x", Type: types.FieldText, DropdownFormID: &ref}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.BulkInsertFields(ctx, compID, []types.FieldDraft{tt.draft})
			if !errors.Is(err, errs.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	if err := store.BulkInsertFields(ctx, 404, []types.FieldDraft{{Name: "x", Type: types.FieldText}}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found for unknown component, got %v", err)
	}
}

func TestSplitDisplayColumns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"name", []string{"name"}},
		{" a , b ,c", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := metadata.SplitDisplayColumns(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitDisplayColumns(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
