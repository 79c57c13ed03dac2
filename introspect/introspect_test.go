package introspect_test

import (
	"context"
	"errors"
	"testing"

	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/introspect"
	"github.com/melkeydev/formengine/metadata/metadatatest"
	"github.com/melkeydev/formengine/types"
)

func TestMapType(t *testing.T) {
	tests := []struct {
		native string
		want   types.FieldType
	}{
		{"int", types.FieldNumber},
		{"INTEGER", types.FieldNumber},
		{"bigint", types.FieldNumber},
		{"tinyint", types.FieldNumber},
		{"smallint unsigned", types.FieldNumber},
		{"decimal", types.FieldNumber},
		{"DECIMAL(10,2)", types.FieldNumber},
		{"numeric", types.FieldNumber},
		{"double precision", types.FieldNumber},
		{"date", types.FieldDate},
		{"datetime", types.FieldDate},
		{"datetime2", types.FieldDate},
		{"timestamp without time zone", types.FieldDate},
		{"time", types.FieldDate},
		{"bit", types.FieldCheckbox},
		{"boolean", types.FieldCheckbox},
		{"varchar", types.FieldText},
		{"nvarchar(200)", types.FieldText},
		{"character varying", types.FieldText},
		{"uniqueidentifier", types.FieldText},
		{"", types.FieldText},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			if got := introspect.MapType(tt.native); got != tt.want {
				t.Errorf("MapType(%q) = %s, want %s", tt.native, got, tt.want)
			}
		})
	}
}

func TestProposeSkipsAuditColumns(t *testing.T) {
	cols := []types.Column{
		{Name: "order_id", Type: "int", Nullable: false},
		{Name: "Created_At", Type: "datetime", Nullable: false},
		{Name: "delivery_date", Type: "date", Nullable: true},
		{Name: "UPDATED_AT", Type: "datetime", Nullable: true},
		{Name: "RowVersion", Type: "rowversion", Nullable: false},
		{Name: "timestamp", Type: "timestamp", Nullable: false},
		{Name: "is_paid", Type: "bit", Nullable: false},
	}

	drafts := introspect.Propose(cols)
	if len(drafts) != 3 {
		t.Fatalf("got %d drafts, want 3: %+v", len(drafts), drafts)
	}

	want := []types.FieldDraft{
		{Name: "order_id", Label: "order id", Type: types.FieldNumber, ColSpan: 6, Order: 1, IsRequired: true},
		{Name: "delivery_date", Label: "delivery date", Type: types.FieldDate, ColSpan: 6, Order: 2},
		{Name: "is_paid", Label: "is paid", Type: types.FieldCheckbox, ColSpan: 6, Order: 3, IsRequired: true},
	}
	for i, w := range want {
		if drafts[i] != w {
			t.Errorf("draft %d = %+v, want %+v", i, drafts[i], w)
		}
	}
}

func TestSchemaFields(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)
	svc := introspect.NewService(store)

	formID, err := store.CreateForm(ctx, types.Form{
		Name: "Customers", Type: types.FormMaster, TableName: "customers",
		PrimaryKeyColumn: "customer_id", DisplayColumn: "first_name",
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	drafts, err := svc.SchemaFields(ctx, formID)
	if err != nil {
		t.Fatalf("SchemaFields: %v", err)
	}

	var names []string
	for _, d := range drafts {
		names = append(names, d.Name+":"+string(d.Type))
	}
	want := []string{
		"customer_id:number", "first_name:text", "last_name:text",
		"credit_amt:number", "is_vip:checkbox", "joined_on:date",
	}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("field %d = %s, want %s", i, names[i], want[i])
		}
	}
	if !drafts[1].IsRequired || drafts[2].IsRequired {
		t.Errorf("nullability not mapped: %+v %+v", drafts[1], drafts[2])
	}

	if _, err := svc.SchemaFields(ctx, 404); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
