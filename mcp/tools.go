package mcp

import (
	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/melkeydev/formengine/engine"
	"github.com/melkeydev/formengine/handlers"
)

func RegisterTools(s *server.MCPServer, e *engine.Engine) {
	formIDParam := goMCP.WithNumber("form_id",
		goMCP.Required(),
		goMCP.Description("Id of the form"),
	)

	structureTool := goMCP.NewTool("form_structure",
		goMCP.WithDescription("Get the components and active fields of a form, in display order"),
		formIDParam,
	)

	schemaTool := goMCP.NewTool("schema_fields",
		goMCP.WithDescription("Propose field definitions from the columns of a form's table"),
		formIDParam,
	)

	reportTool := goMCP.NewTool("report_rows",
		goMCP.WithDescription("Read rows of a form's table"),
		formIDParam,
		goMCP.WithNumber("limit",
			goMCP.Description("Number of rows to return (default: 10)"),
		),
	)

	optionsTool := goMCP.NewTool("master_options",
		goMCP.WithDescription("List the value/label dropdown options a master form provides"),
		formIDParam,
	)

	tablesTool := goMCP.NewTool("list_tables",
		goMCP.WithDescription("List tables a form can be mapped to"),
	)

	s.AddTool(structureTool, handlers.StructureHandler(e))
	s.AddTool(schemaTool, handlers.SchemaFieldsHandler(e))
	s.AddTool(reportTool, handlers.ReportHandler(e))
	s.AddTool(optionsTool, handlers.OptionsHandler(e))
	s.AddTool(tablesTool, handlers.ListTablesHandler(e))
}
