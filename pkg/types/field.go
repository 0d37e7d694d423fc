package types

import "time"

// FieldType is the value type of a field.
type FieldType string

// Supported field types.
const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
)

// Field is one column definition of a table schema. KeyName is the lookup
// key into Record.Data and is unique within a table.
type Field struct {
	ID        string    `json:"id"`
	TableID   string    `json:"tableId"`
	Name      string    `json:"name"`
	KeyName   string    `json:"keyName"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldByID returns the field with the given id.
func FieldByID(fields []Field, id string) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByKey returns the field whose KeyName or Name equals key.
// KeyName matches take precedence.
func FieldByKey(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.KeyName == key {
			return f, true
		}
	}
	for _, f := range fields {
		if f.Name == key {
			return f, true
		}
	}
	return Field{}, false
}
