package types

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders records by one field. In a sort sequence, earlier entries
// take priority and each field appears at most once.
type Sort struct {
	FieldID   string    `json:"fieldId"`
	Direction Direction `json:"direction"`
}

// CycleSort advances fieldID through unsorted -> asc -> desc -> unsorted.
// New entries are appended; other entries keep their direction and
// relative order. The input slice is not modified.
func CycleSort(sorts []Sort, fieldID string) []Sort {
	out := make([]Sort, 0, len(sorts)+1)
	found := false
	for _, s := range sorts {
		if s.FieldID != fieldID {
			out = append(out, s)
			continue
		}
		found = true
		if s.Direction == Asc {
			out = append(out, Sort{FieldID: fieldID, Direction: Desc})
		}
	}
	if !found {
		out = append(out, Sort{FieldID: fieldID, Direction: Asc})
	}
	return out
}

// ValidateSorts checks directions and that no field appears twice.
func ValidateSorts(sorts []Sort) error {
	seen := make(map[string]bool, len(sorts))
	for _, s := range sorts {
		if s.FieldID == "" {
			return fmt.Errorf("%w: empty field id", ErrInvalidSort)
		}
		if s.Direction != Asc && s.Direction != Desc {
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, s.Direction)
		}
		if seen[s.FieldID] {
			return fmt.Errorf("%w: field %q sorted twice", ErrInvalidSort, s.FieldID)
		}
		seen[s.FieldID] = true
	}
	return nil
}

// ParseSort parses "field" or "field:asc|desc". A bare field sorts ascending.
func ParseSort(s string) (Sort, error) {
	field, dir, hasDir := strings.Cut(s, ":")
	if field == "" {
		return Sort{}, fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
	out := Sort{FieldID: field, Direction: Asc}
	if hasDir {
		switch Direction(strings.ToLower(dir)) {
		case Asc:
		case Desc:
			out.Direction = Desc
		default:
			return Sort{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, dir)
		}
	}
	return out, nil
}
