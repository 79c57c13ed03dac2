// Package client calls the form engine's HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/melkeydev/formengine/errs"
	"github.com/melkeydev/formengine/types"
)

type Client struct {
	baseURL string
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:5000/config".
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Client) Forms(ctx context.Context) ([]types.Form, error) {
	var forms []types.Form
	err := c.do(ctx, fiber.MethodGet, "/forms", nil, &forms, nil)
	return forms, err
}

func (c *Client) Structure(ctx context.Context, formID int64) (*types.Structure, error) {
	var s types.Structure
	if err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/%d/structure", formID), nil, &s, nil); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SchemaFields(ctx context.Context, formID int64) ([]types.FieldDraft, error) {
	var drafts []types.FieldDraft
	err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/schema-fields/%d", formID), nil, &drafts, nil)
	return drafts, err
}

// BulkInsertFields stores drafts under componentID. Either all are stored or none.
func (c *Client) BulkInsertFields(ctx context.Context, componentID int64, drafts []types.FieldDraft) error {
	body := map[string]any{"component_id": componentID, "fields": drafts}
	err := c.do(ctx, fiber.MethodPost, "/fields/bulk", body, nil, nil)
	return err
}

func (c *Client) NextValue(ctx context.Context, formID int64, field string) (int64, error) {
	var resp struct {
		Next int64 `json:"next"`
	}
	path := fmt.Sprintf("/next-value/%d/%s", formID, url.PathEscape(field))
	if err := c.do(ctx, fiber.MethodGet, path, nil, &resp, nil); err != nil {
		return 0, err
	}
	return resp.Next, nil
}

func (c *Client) Options(ctx context.Context, formID int64) ([]types.Option, error) {
	var options []types.Option
	err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/master/%d/options", formID), nil, &options, nil)
	return options, err
}

// FetchRow returns the row keyed by recordID, or nil when there is none.
func (c *Client) FetchRow(ctx context.Context, formID int64, recordID string) (map[string]any, error) {
	var row map[string]any
	path := fmt.Sprintf("/data/%d/%s", formID, url.PathEscape(recordID))
	if err := c.do(ctx, fiber.MethodGet, path, nil, &row, nil); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

func (c *Client) InsertRow(ctx context.Context, formID int64, values map[string]any) error {
	err := c.do(ctx, fiber.MethodPost, fmt.Sprintf("/data/%d", formID), values, nil, nil)
	return err
}

func (c *Client) UpdateRow(ctx context.Context, formID int64, recordID string, values map[string]any) error {
	path := fmt.Sprintf("/data/%d/%s", formID, url.PathEscape(recordID))
	err := c.do(ctx, fiber.MethodPut, path, values, nil, nil)
	return err
}

// Report loads every row of the form's table. Columns follow the server's
// column order when it sends one, otherwise the sorted keys of the first row.
func (c *Client) Report(ctx context.Context, formID int64) (*types.ResultSet, error) {
	var rows []map[string]any
	var columns string
	err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/report/%d", formID), nil, &rows, func(resp *fiber.Response) {
		columns = string(resp.Header.Peek(types.ColumnsHeader))
	})
	if err != nil {
		return nil, err
	}

	rs := &types.ResultSet{Rows: rows}
	if columns != "" {
		rs.Columns = strings.Split(columns, ",")
	} else if len(rows) > 0 {
		for k := range rows[0] {
			rs.Columns = append(rs.Columns, k)
		}
		sort.Strings(rs.Columns)
	}
	if rs.Rows == nil {
		rs.Rows = []map[string]any{}
	}
	return rs, nil
}

// do sends one request and decodes a successful JSON body into out.
// onResponse, when set, sees the raw response before it is released.
func (c *Client) do(ctx context.Context, method, path string, body, out any, onResponse func(*fiber.Response)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if body != nil {
		a.JSON(body)
	}
	if deadline, ok := ctx.Deadline(); ok {
		a.Timeout(time.Until(deadline))
	}

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	a.SetResponse(resp)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("failed to build request: %w", err)
	}

	// Bytes releases the agent
	status, data, failures := a.Bytes()
	if len(failures) > 0 {
		return errs.Connection(errors.Join(failures...))
	}

	if onResponse != nil {
		onResponse(resp)
	}

	if status >= fiber.StatusBadRequest {
		return statusError(status, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// statusError maps an error response back to the engine's error kinds.
func statusError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = "status " + strconv.Itoa(status)
	}

	switch {
	case status == fiber.StatusNotFound:
		return errs.NotFound("%s", msg)
	case status < fiber.StatusInternalServerError:
		return errs.Validation("%s", msg)
	default:
		return errs.Query(msg, nil)
	}
}
