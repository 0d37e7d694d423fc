package types

import "fmt"

// Query is the user-controlled part of a record listing. Page is 1-based;
// the page size is fixed per session and lives with the view.
type Query struct {
	Filter *Filter
	Sort   []Sort
	Page   int
}

// Validate checks the filter tree, the sort sequence and the page number.
func (q Query) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: %d is below 1", ErrInvalidPage, q.Page)
	}
	if err := q.Filter.Validate(); err != nil {
		return err
	}
	return ValidateSorts(q.Sort)
}

// Offset returns the listing offset of the query's page.
func (q Query) Offset(pageSize int) int {
	return (q.Page - 1) * pageSize
}

// Clone returns a copy that shares nothing mutable with q.
func (q Query) Clone() Query {
	out := Query{Filter: q.Filter.Clone(), Page: q.Page}
	if q.Sort != nil {
		out.Sort = append([]Sort(nil), q.Sort...)
	}
	return out
}
