package query

import (
	"context"
	"testing"
	"time"

	"github.com/melkeydev/formengine/config"
	"github.com/melkeydev/formengine/introspect"
	"github.com/melkeydev/formengine/metadata/metadatatest"
	"github.com/melkeydev/formengine/types"
)

func TestAllowlistNotCachedAfterConcurrentChange(t *testing.T) {
	ctx := context.Background()
	_, store := metadatatest.Open(t)

	b, err := NewBuilder(store, introspect.NewService(store), config.CacheConfig{AllowlistTTL: time.Minute, MaxEntries: 100})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)

	formID, err := store.CreateForm(ctx, types.Form{
		Name: "Orders", Type: types.FormTransaction, TableName: "orders",
		PrimaryKeyColumn: "order_no", DisplayColumn: "order_no",
	})
	if err != nil {
		t.Fatal(err)
	}

	a, err := b.allowlist(ctx, formID)
	if err != nil {
		t.Fatalf("allowlist: %v", err)
	}
	b.cache.Wait()
	if _, ok := b.cache.Get(formID); !ok {
		t.Fatal("allowlist was not cached")
	}

	// a build that read the form before an update must not be cached after it
	version := b.version(formID)
	if err := store.UpdateForm(ctx, formID, types.Form{
		Name: "Customers", Type: types.FormMaster, TableName: "customers",
		PrimaryKeyColumn: "customer_id", DisplayColumn: "first_name",
	}); err != nil {
		t.Fatalf("UpdateForm: %v", err)
	}
	if b.remember(formID, version, a) {
		t.Error("stale allowlist was cached")
	}
	b.cache.Wait()
	if _, ok := b.cache.Get(formID); ok {
		t.Error("stale allowlist served from cache")
	}

	fresh, err := b.allowlist(ctx, formID)
	if err != nil {
		t.Fatalf("allowlist: %v", err)
	}
	if fresh.Form.TableName != "customers" || !fresh.Has("first_name") {
		t.Errorf("allowlist = %+v", fresh.Form)
	}
}
