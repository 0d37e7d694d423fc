package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LogicalOp combines the clauses of a filter group.
type LogicalOp string

// Logical operators.
const (
	And LogicalOp = "AND"
	Or  LogicalOp = "OR"
)

// Operator compares a field value with a condition value.
type Operator string

// Condition operators understood by the base service.
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpIsEmpty        Operator = "is_empty"
	OpIsNotEmpty     Operator = "is_not_empty"
)

var validOperators = map[Operator]bool{
	OpEqual: true, OpNotEqual: true,
	OpGreater: true, OpLess: true, OpGreaterOrEqual: true, OpLessOrEqual: true,
	OpContains: true, OpNotContains: true, OpStartsWith: true, OpEndsWith: true,
	OpIsEmpty: true, OpIsNotEmpty: true,
}

// Unary reports whether the operator ignores the condition value.
func (o Operator) Unary() bool {
	return o == OpIsEmpty || o == OpIsNotEmpty
}

// Condition tests a single field.
type Condition struct {
	FieldID  string   `json:"fieldId"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Filter is a boolean expression tree: Operator applied over Clauses,
// each of which is a Condition or a nested Filter.
type Filter struct {
	Operator LogicalOp `json:"operator"`
	Clauses  []Clause  `json:"conditions"`
}

// Clause is exactly one of Condition or Group.
type Clause struct {
	Condition *Condition
	Group     *Filter
}

// Cond wraps a condition as a clause.
func Cond(fieldID string, op Operator, value any) Clause {
	return Clause{Condition: &Condition{FieldID: fieldID, Operator: op, Value: value}}
}

// Group wraps a nested filter as a clause.
func Group(f Filter) Clause {
	return Clause{Group: &f}
}

// MarshalJSON encodes the clause as its condition or group object.
func (c Clause) MarshalJSON() ([]byte, error) {
	switch {
	case c.Condition != nil && c.Group == nil:
		return json.Marshal(c.Condition)
	case c.Group != nil && c.Condition == nil:
		return json.Marshal(c.Group)
	}
	return nil, fmt.Errorf("%w: clause must hold exactly one of condition or group", ErrInvalidFilter)
}

// UnmarshalJSON decodes a clause. Objects carrying a fieldId are
// conditions; everything else is decoded as a nested group.
func (c *Clause) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if _, ok := probe["fieldId"]; ok {
		var cond Condition
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&cond); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		if n, ok := cond.Value.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				cond.Value = f
			}
		}
		*c = Clause{Condition: &cond}
		return nil
	}
	var group Filter
	if err := json.Unmarshal(data, &group); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	*c = Clause{Group: &group}
	return nil
}

// Validate checks the whole tree: logical operators, condition operators,
// field ids, and that each clause holds exactly one branch.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Operator != And && f.Operator != Or {
		return fmt.Errorf("%w: unknown logical operator %q", ErrInvalidFilter, f.Operator)
	}
	for i, c := range f.Clauses {
		switch {
		case c.Condition != nil && c.Group == nil:
			if c.Condition.FieldID == "" {
				return fmt.Errorf("%w: condition %d has no field id", ErrInvalidFilter, i)
			}
			if !validOperators[c.Condition.Operator] {
				return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, c.Condition.Operator)
			}
			if c.Condition.Operator.Unary() && c.Condition.Value != nil {
				return fmt.Errorf("%w: %s takes no value", ErrInvalidFilter, c.Condition.Operator)
			}
		case c.Group != nil && c.Condition == nil:
			if err := c.Group.Validate(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: clause %d must hold exactly one of condition or group", ErrInvalidFilter, i)
		}
	}
	return nil
}

// Clone returns a deep copy of the tree. Condition values are shared.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	out := &Filter{Operator: f.Operator, Clauses: make([]Clause, len(f.Clauses))}
	for i, c := range f.Clauses {
		if c.Condition != nil {
			cond := *c.Condition
			out.Clauses[i].Condition = &cond
		}
		if c.Group != nil {
			out.Clauses[i].Group = c.Group.Clone()
		}
	}
	return out
}

// SearchFilter translates free-text search into an OR of contains
// conditions, one per text field. Empty text yields a nil filter, which
// clears filtering. ok is false when there is text but no text field to
// search; callers leave their query unchanged in that case.
func SearchFilter(text string, fields []Field) (filter *Filter, ok bool) {
	if text == "" {
		return nil, true
	}
	var clauses []Clause
	for _, f := range fields {
		if f.Type == FieldText {
			clauses = append(clauses, Cond(f.ID, OpContains, text))
		}
	}
	if len(clauses) == 0 {
		return nil, false
	}
	return &Filter{Operator: Or, Clauses: clauses}, true
}
