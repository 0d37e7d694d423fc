package types

import (
	"strings"
	"time"
)

// Base is the top-level container of tables.
type Base struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Table is a named collection of records sharing one field schema.
type Table struct {
	ID        string    `json:"id"`
	BaseID    string    `json:"baseId"`
	Name      string    `json:"name"`
	Fields    []Field   `json:"fields,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Record is one row of a table. Data is keyed by Field.KeyName; values are
// string, float64, bool, date string, or nil once decoded from JSON.
type Record struct {
	ID        string         `json:"id"`
	TableID   string         `json:"tableId"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone returns a copy whose Data map can be modified independently.
func (r Record) Clone() Record {
	out := r
	if r.Data != nil {
		out.Data = make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			out.Data[k] = v
		}
	}
	return out
}

// RecordPage is one page of a record listing. Total counts every record
// matching the filter, independent of pagination.
type RecordPage struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

// ValidateID rejects ids that are empty or cannot be used as a single URL
// path segment.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/?#") {
		return ErrInvalidID
	}
	return nil
}
