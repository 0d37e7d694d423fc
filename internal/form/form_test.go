package form

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

var schema = []types.Field{
	{ID: "f-name", KeyName: "name", Name: "Name", Type: types.FieldText, Required: true},
	{ID: "f-qty", KeyName: "qty", Name: "Quantity", Type: types.FieldNumber},
	{ID: "f-done", KeyName: "done", Name: "Done", Type: types.FieldBoolean},
	{ID: "f-due", KeyName: "due", Name: "Due", Type: types.FieldDate},
}

func TestParseInput(t *testing.T) {
	data, err := ParseInput(map[string]string{
		"name":     " Widget ",
		"Quantity": "1200.5",
		"done":     "yes",
		"due":      "2024-03-01",
	}, schema)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name": "Widget",
		"qty":  1200.5,
		"done": true,
		"due":  "2024-03-01",
	}, data)
}

func TestParseInput_KeepsUnparsableAndEmpty(t *testing.T) {
	data, err := ParseInput(map[string]string{"qty": "lots", "done": "maybe", "name": ""}, schema)
	require.NoError(t, err)

	assert.Equal(t, "lots", data["qty"])
	assert.Equal(t, "maybe", data["done"])
	assert.Nil(t, data["name"])
	assert.Contains(t, data, "name")
}

func TestParseInput_UnknownField(t *testing.T) {
	_, err := ParseInput(map[string]string{"colour": "red", "name": "x"}, schema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))

	var verrs types.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "colour", verrs[0].KeyName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want map[string][]string
	}{
		{
			name: "valid",
			data: map[string]any{"name": "A", "qty": 3.0, "done": false, "due": "2024-01-02"},
		},
		{
			name: "optional fields may be absent",
			data: map[string]any{"name": "A"},
		},
		{
			name: "missing required",
			data: map[string]any{},
			want: map[string][]string{"f-name": {"Name is required"}},
		},
		{
			name: "empty string counts as missing",
			data: map[string]any{"name": ""},
			want: map[string][]string{"f-name": {"Name is required"}},
		},
		{
			name: "numeric string is a number",
			data: map[string]any{"name": "A", "qty": "42"},
		},
		{
			name: "type errors",
			data: map[string]any{"name": "A", "qty": "lots", "done": "maybe", "due": "someday"},
			want: map[string][]string{
				"f-qty":  {"Quantity must be a number"},
				"f-done": {"Done must be a boolean"},
				"f-due":  {"Due must be a valid date"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.data, schema)
			if len(tt.want) == 0 {
				assert.Nil(t, errs)
				return
			}
			require.Len(t, errs, len(tt.want))
			for id, msgs := range tt.want {
				assert.Equal(t, msgs, errs.ForField(id))
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   types.FieldType
		want  string
	}{
		{"nil", nil, types.FieldText, ""},
		{"text", "hello", types.FieldText, "hello"},
		{"integer number", 1234567.0, types.FieldNumber, "1,234,567"},
		{"fractional number", 1234.5, types.FieldNumber, "1,234.5"},
		{"numeric string", "2500", types.FieldNumber, "2,500"},
		{"true", true, types.FieldBoolean, "Yes"},
		{"false", false, types.FieldBoolean, "No"},
		{"date only", "2024-03-01", types.FieldDate, "2024-03-01"},
		{"timestamp", "2024-03-01T10:20:30Z", types.FieldDate, "2024-03-01"},
		{"bad date", "soon", types.FieldDate, "soon"},
		{"mismatched", "abc", types.FieldNumber, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value, tt.typ))
		})
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", FormatTime(time.Time{}))
	assert.Contains(t, FormatTime(time.Now().Add(-3*time.Hour)), "hours ago")
}
