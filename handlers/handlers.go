package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/melkeydev/formengine/engine"
)

// formID reads the required form_id argument, given as a number or a string.
func formID(request mcp.CallToolRequest) (int64, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("missing arguments")
	}

	switch v := args["form_id"].(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("form_id is required")
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// StructureHandler creates a handler for the form_structure tool
func StructureHandler(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := formID(request)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing form_id parameter: %v", err)), nil
		}

		s, err := e.Structure.Load(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Structure load failed: %s", safeMessage(err))), nil
		}
		return jsonResult(s)
	}
}

// SchemaFieldsHandler creates a handler for the schema_fields tool
func SchemaFieldsHandler(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := formID(request)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing form_id parameter: %v", err)), nil
		}

		drafts, err := e.Schema.SchemaFields(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Schema read failed: %s", safeMessage(err))), nil
		}
		return jsonResult(drafts)
	}
}

// ReportHandler creates a handler for the report_rows tool
func ReportHandler(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := formID(request)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing form_id parameter: %v", err)), nil
		}

		limit := 10
		if args, ok := request.Params.Arguments.(map[string]any); ok {
			if l, ok := args["limit"].(float64); ok && l > 0 {
				limit = int(l)
			}
		}

		rs, err := e.Query.ListAll(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Report load failed: %s", safeMessage(err))), nil
		}
		if len(rs.Rows) > limit {
			rs.Rows = rs.Rows[:limit]
		}
		return jsonResult(rs)
	}
}

// OptionsHandler creates a handler for the master_options tool
func OptionsHandler(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := formID(request)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing form_id parameter: %v", err)), nil
		}

		options, err := e.Query.ListOptions(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Options load failed: %s", safeMessage(err))), nil
		}
		return jsonResult(options)
	}
}

// ListTablesHandler creates a handler for the list_tables tool
func ListTablesHandler(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		db, err := e.Pool.Get(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Connection failed: %s", safeMessage(err))), nil
		}

		tables, err := db.ListTables(ctx)
		if err != nil {
			return mcp.NewToolResultError("Table listing failed"), nil
		}
		return jsonResult(tables)
	}
}
