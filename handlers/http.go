package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/melkeydev/formengine/engine"
	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/query"
	"github.com/melkeydev/formengine/types"
)

type Handler struct {
	engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// NewApp returns a fiber app serving the API under basePath.
func NewApp(e *engine.Engine, basePath string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "formengine",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(RequestLogger)
	RegisterRoutes(app, NewHandler(e), basePath)
	return app
}

func RegisterRoutes(app *fiber.App, h *Handler, basePath string) {
	api := app.Group(basePath)

	api.Get("/forms", h.ListForms)
	api.Get("/forms/:id", h.GetForm)
	api.Post("/forms", h.CreateForm)
	api.Put("/forms/:id", h.UpdateForm)
	api.Delete("/forms/:id", h.DeleteForm)

	api.Get("/components/:form_id", h.ListComponents)
	api.Post("/components", h.CreateComponent)
	api.Delete("/components/:id", h.DeleteComponent)

	api.Get("/fields/:component_id", h.ListFields)
	api.Get("/field-templates", h.ListTemplates)
	api.Post("/fields/bulk", h.BulkInsertFields)
	api.Delete("/fields/:id", h.DeleteField)

	api.Get("/schema-fields/:formId", h.SchemaFields)
	api.Get("/next-value/:formId/:field", h.NextValue)
	api.Get("/master/:formId/options", h.Options)

	api.Get("/data/:formId/:id", h.FetchRow)
	api.Post("/data/:formId", h.InsertRow)
	api.Put("/data/:formId/:id", h.UpdateRow)
	api.Get("/report/:formId", h.Report)

	// registered last: the leading parameter would shadow the routes above
	api.Get("/:formId/structure", h.Structure)
}

// ErrorHandler renders engine errors as {"message": ...}. Store failures are
// logged with their cause and reported without it.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	status, msg := errs.Status(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("request_id"),
			"error", err,
		)
	}
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger(c *fiber.Ctx) error {
	start := time.Now()
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("request_id", id)
	c.Set(fiber.HeaderXRequestID, id)

	err := c.Next()
	if err != nil {
		// let the error handler set the final status before logging it
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			c.Status(fiber.StatusInternalServerError)
		}
	}

	slog.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
		"request_id", id,
	)
	return nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation("Invalid id")
	}
	return id, nil
}

// --- Forms ---

func (h *Handler) ListForms(c *fiber.Ctx) error {
	forms, err := h.engine.Store.ListForms(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(forms)
}

func (h *Handler) GetForm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	form, err := h.engine.Store.GetForm(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(form)
}

func (h *Handler) CreateForm(c *fiber.Ctx) error {
	var form types.Form
	if err := c.BodyParser(&form); err != nil {
		return errs.Validation("Invalid JSON body")
	}

	id, err := h.engine.Store.CreateForm(c.Context(), form)
	if err != nil {
		return err
	}

	resp := fiber.Map{"message": "Inserted"}
	if id > 0 {
		resp["form_id"] = id
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) UpdateForm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var form types.Form
	if err := c.BodyParser(&form); err != nil {
		return errs.Validation("Invalid JSON body")
	}
	if err := h.engine.Store.UpdateForm(c.Context(), id, form); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Updated"})
}

func (h *Handler) DeleteForm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.engine.Store.DeleteForm(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

// --- Components ---

func (h *Handler) ListComponents(c *fiber.Ctx) error {
	formID, err := paramID(c, "form_id")
	if err != nil {
		return err
	}
	components, err := h.engine.Store.ListComponents(c.Context(), formID)
	if err != nil {
		return err
	}
	return c.JSON(components)
}

func (h *Handler) CreateComponent(c *fiber.Ctx) error {
	var component types.Component
	if err := c.BodyParser(&component); err != nil {
		return errs.Validation("Invalid JSON body")
	}

	id, err := h.engine.Store.CreateComponent(c.Context(), component)
	if err != nil {
		return err
	}

	resp := fiber.Map{"message": "Inserted"}
	if id > 0 {
		resp["component_id"] = id
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) DeleteComponent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.engine.Store.DeleteComponent(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

// --- Fields ---

func (h *Handler) ListFields(c *fiber.Ctx) error {
	componentID, err := paramID(c, "component_id")
	if err != nil {
		return err
	}
	fields, err := h.engine.Store.ListFields(c.Context(), componentID)
	if err != nil {
		return err
	}
	return c.JSON(fields)
}

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	fields, err := h.engine.Store.ListTemplates(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fields)
}

type bulkFieldsRequest struct {
	ComponentID int64              `json:"component_id"`
	Fields      []types.FieldDraft `json:"fields"`
}

func (h *Handler) BulkInsertFields(c *fiber.Ctx) error {
	var req bulkFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return errs.Validation("Invalid JSON body")
	}
	if req.ComponentID <= 0 {
		return errs.Validation("component_id is required")
	}

	if err := h.engine.Store.BulkInsertFields(c.Context(), req.ComponentID, req.Fields); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) DeleteField(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.engine.Store.DeleteField(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

// --- Engine ---

func (h *Handler) Structure(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	s, err := h.engine.Structure.Load(c.Context(), formID)
	if err != nil {
		return err
	}
	return c.JSON(s)
}

func (h *Handler) SchemaFields(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	drafts, err := h.engine.Schema.SchemaFields(c.Context(), formID)
	if err != nil {
		return err
	}
	return c.JSON(drafts)
}

func (h *Handler) NextValue(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	next, err := h.engine.Query.NextValue(c.Context(), formID, c.Params("field"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"next": next})
}

func (h *Handler) Options(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	options, err := h.engine.Query.ListOptions(c.Context(), formID)
	if err != nil {
		return err
	}
	return c.JSON(options)
}

func (h *Handler) FetchRow(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	row, err := h.engine.Query.FetchRow(c.Context(), formID, c.Params("id"))
	if err != nil {
		return err
	}
	if row == nil {
		return errs.NotFound("Record not found")
	}
	return c.JSON(row)
}

func (h *Handler) InsertRow(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	values, err := query.DecodeValues(c.Body())
	if err != nil {
		return err
	}
	if err := h.engine.Query.InsertRow(c.Context(), formID, values); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) UpdateRow(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	values, err := query.DecodeValues(c.Body())
	if err != nil {
		return err
	}
	if err := h.engine.Query.UpdateRow(c.Context(), formID, c.Params("id"), values); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) Report(c *fiber.Ctx) error {
	formID, err := paramID(c, "formId")
	if err != nil {
		return err
	}
	rs, err := h.engine.Query.ListAll(c.Context(), formID)
	if err != nil {
		return err
	}
	c.Set(types.ColumnsHeader, strings.Join(rs.Columns, ","))
	return c.JSON(rs.Rows)
}

func safeMessage(err error) string {
	_, msg := errs.Status(err)
	return msg
}
