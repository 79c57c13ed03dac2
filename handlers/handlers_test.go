package handlers_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/melkeydev/formengine/handlers"
)

func callTool(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("tool returned error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestToolHandlers(t *testing.T) {
	a, e := newAPI(t)
	formID := a.seed()
	a.expect("POST", "/data/1", map[string]any{"customer_id": 1, "first_name": "Ada"}, 200)
	a.expect("POST", "/data/1", map[string]any{"customer_id": 2, "first_name": "Bob"}, 200)

	t.Run("structure", func(t *testing.T) {
		text, isErr := callTool(t, handlers.StructureHandler(e), map[string]any{"form_id": float64(formID)})
		if isErr || !strings.Contains(text, `"component_name": "Main"`) {
			t.Errorf("result = %s", text)
		}
	})

	t.Run("form id as string", func(t *testing.T) {
		text, isErr := callTool(t, handlers.SchemaFieldsHandler(e), map[string]any{"form_id": "1"})
		if isErr || !strings.Contains(text, "credit_amt") {
			t.Errorf("result = %s", text)
		}
	})

	t.Run("report limit", func(t *testing.T) {
		text, isErr := callTool(t, handlers.ReportHandler(e), map[string]any{"form_id": float64(formID), "limit": float64(1)})
		if isErr {
			t.Fatalf("result = %s", text)
		}
		var rs struct {
			Columns []string         `json:"columns"`
			Rows    []map[string]any `json:"rows"`
		}
		if err := json.Unmarshal([]byte(text), &rs); err != nil {
			t.Fatal(err)
		}
		if len(rs.Rows) != 1 || rs.Columns[0] != "customer_id" {
			t.Errorf("report = %+v", rs)
		}
	})

	t.Run("options", func(t *testing.T) {
		text, isErr := callTool(t, handlers.OptionsHandler(e), map[string]any{"form_id": float64(formID)})
		if isErr || !strings.Contains(text, `"label": "Ada-"`) {
			t.Errorf("result = %s", text)
		}
	})

	t.Run("tables", func(t *testing.T) {
		text, isErr := callTool(t, handlers.ListTablesHandler(e), map[string]any{})
		if isErr || !strings.Contains(text, "customers") {
			t.Errorf("result = %s", text)
		}
	})

	t.Run("missing form id", func(t *testing.T) {
		_, isErr := callTool(t, handlers.StructureHandler(e), map[string]any{})
		if !isErr {
			t.Error("expected a tool error")
		}
	})

	t.Run("unknown form", func(t *testing.T) {
		text, isErr := callTool(t, handlers.OptionsHandler(e), map[string]any{"form_id": float64(999)})
		if !isErr || !strings.Contains(text, "form 999 not found") {
			t.Errorf("result = %s", text)
		}
	})
}
