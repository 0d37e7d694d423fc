// Package form turns user input into record data and record data into
// display strings, using the field schema of the table.
package form

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// dateLayouts are the accepted spellings of a date value, most specific
// first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseInput converts raw key=value input into record data keyed by
// Field.KeyName. Keys may name a field by key name or display name.
// Values that do not parse as their field type are kept as strings so
// that Validate can report them; empty values become nil.
func ParseInput(raw map[string]string, fields []types.Field) (map[string]any, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make(map[string]any, len(raw))
	var errs types.ValidationErrors
	for _, key := range keys {
		f, ok := types.FieldByKey(fields, key)
		if !ok {
			errs = append(errs, types.FieldError{KeyName: key, Message: fmt.Sprintf("unknown field %q", key)})
			continue
		}
		data[f.KeyName] = coerce(strings.TrimSpace(raw[key]), f.Type)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return data, nil
}

func coerce(s string, t types.FieldType) any {
	if s == "" {
		return nil
	}
	switch t {
	case types.FieldNumber:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	case types.FieldBoolean:
		if b, ok := parseBool(s); ok {
			return b
		}
	}
	return s
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	b, err := strconv.ParseBool(s)
	return b, err == nil
}

// Validate checks data against the schema. A missing required value is
// reported alone; type checks only run on present values. The result is
// nil when data is valid.
func Validate(data map[string]any, fields []types.Field) types.ValidationErrors {
	var errs types.ValidationErrors
	for _, f := range fields {
		value, present := data[f.KeyName]
		empty := !present || value == nil || value == ""

		if f.Required && empty {
			errs = append(errs, fieldError(f, "%s is required", f.Name))
			continue
		}
		if empty {
			continue
		}

		switch f.Type {
		case types.FieldNumber:
			if _, ok := toFloat(value); !ok {
				errs = append(errs, fieldError(f, "%s must be a number", f.Name))
			}
		case types.FieldBoolean:
			if _, ok := value.(bool); !ok {
				errs = append(errs, fieldError(f, "%s must be a boolean", f.Name))
			}
		case types.FieldDate:
			if _, ok := toTime(value); !ok {
				errs = append(errs, fieldError(f, "%s must be a valid date", f.Name))
			}
		}
	}
	return errs
}

func fieldError(f types.Field, format string, args ...any) types.FieldError {
	return types.FieldError{
		FieldID: f.ID,
		KeyName: f.KeyName,
		Message: fmt.Sprintf(format, args...),
	}
}

// FormatValue renders a stored value for display: text as is, numbers
// with thousands separators, booleans as Yes or No, dates as YYYY-MM-DD
// and nil as the empty string. Values that do not match their type are
// printed verbatim.
func FormatValue(value any, t types.FieldType) string {
	if value == nil {
		return ""
	}
	switch t {
	case types.FieldNumber:
		if n, ok := toFloat(value); ok {
			return humanize.Commaf(n)
		}
	case types.FieldBoolean:
		if b, ok := value.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	case types.FieldDate:
		if tm, ok := toTime(value); ok {
			return tm.Format(time.DateOnly)
		}
	}
	return fmt.Sprint(value)
}

// FormatTime renders a record timestamp relative to now.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
