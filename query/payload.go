package query

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/melkeydev/formengine/errs"
)

// DecodeValues parses a JSON object of column values. Numbers become int64
// when integral and float64 otherwise; nested objects and arrays are rejected.
func DecodeValues(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errs.Validation("invalid JSON body")
	}

	values := make(map[string]any, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case json.Number:
			if n, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
				values[k] = n
			} else if f, err := t.Float64(); err == nil {
				values[k] = f
			} else {
				return nil, errs.Validation("invalid number for %q", k)
			}
		case map[string]any, []any:
			return nil, errs.Validation("value for %q must be a scalar", k)
		default:
			values[k] = v
		}
	}
	return values, nil
}
