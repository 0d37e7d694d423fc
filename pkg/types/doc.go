// Package types defines the entities exchanged with the base service
// (bases, tables, fields, records), the query model used to list records
// (filters, sorts, pages), live update events, client configuration, and
// the standard error values shared by the rest of the module.
package types
