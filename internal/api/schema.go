package api

import (
	"context"
	"net/http"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// ListBases returns every base visible to the client.
func (c *Client) ListBases(ctx context.Context) ([]types.Base, error) {
	var bases []types.Base
	if err := do(ctx, c, http.MethodGet, "/bases", nil, nil, &bases); err != nil {
		return nil, err
	}
	return bases, nil
}

// ListTables returns the tables of a base.
func (c *Client) ListTables(ctx context.Context, baseID string) ([]types.Table, error) {
	if err := types.ValidateID(baseID); err != nil {
		return nil, err
	}
	var tables []types.Table
	if err := do(ctx, c, http.MethodGet, "/bases/"+escape(baseID)+"/tables", nil, nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// ListFields returns the field schema of a table.
func (c *Client) ListFields(ctx context.Context, tableID string) ([]types.Field, error) {
	if err := types.ValidateID(tableID); err != nil {
		return nil, err
	}
	var fields []types.Field
	if err := do(ctx, c, http.MethodGet, "/tables/"+escape(tableID)+"/fields", nil, nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// GetField returns one field definition.
func (c *Client) GetField(ctx context.Context, fieldID string) (types.Field, error) {
	if err := types.ValidateID(fieldID); err != nil {
		return types.Field{}, err
	}
	var f types.Field
	if err := do(ctx, c, http.MethodGet, "/fields/"+escape(fieldID), nil, nil, &f); err != nil {
		return types.Field{}, err
	}
	return f, nil
}
