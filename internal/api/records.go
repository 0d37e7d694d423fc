package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// recordBody is the request body of record writes.
type recordBody struct {
	Data map[string]any `json:"data"`
}

// ListRecords returns one page of a table's records. filter and sort are
// optional and sent as JSON-encoded query parameters.
func (c *Client) ListRecords(ctx context.Context, tableID string, filter *types.Filter, sort []types.Sort, limit, offset int) (types.RecordPage, error) {
	if err := types.ValidateID(tableID); err != nil {
		return types.RecordPage{}, err
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if filter != nil {
		b, err := json.Marshal(filter)
		if err != nil {
			return types.RecordPage{}, fmt.Errorf("encode filter: %w", err)
		}
		q.Set("filter", string(b))
	}
	if len(sort) > 0 {
		b, err := json.Marshal(sort)
		if err != nil {
			return types.RecordPage{}, fmt.Errorf("encode sort: %w", err)
		}
		q.Set("sort", string(b))
	}

	var page types.RecordPage
	if err := do(ctx, c, http.MethodGet, "/tables/"+escape(tableID)+"/records", q, nil, &page); err != nil {
		return types.RecordPage{}, err
	}
	return page, nil
}

// GetRecord returns one record.
func (c *Client) GetRecord(ctx context.Context, recordID string) (types.Record, error) {
	if err := types.ValidateID(recordID); err != nil {
		return types.Record{}, err
	}
	var r types.Record
	if err := do(ctx, c, http.MethodGet, "/records/"+escape(recordID), nil, nil, &r); err != nil {
		return types.Record{}, err
	}
	return r, nil
}

// CreateRecord adds a record to a table and returns it as stored.
func (c *Client) CreateRecord(ctx context.Context, tableID string, data map[string]any) (types.Record, error) {
	if err := types.ValidateID(tableID); err != nil {
		return types.Record{}, err
	}
	var r types.Record
	if err := do(ctx, c, http.MethodPost, "/tables/"+escape(tableID)+"/records", nil, recordBody{Data: data}, &r); err != nil {
		return types.Record{}, err
	}
	return r, nil
}

// UpdateRecord replaces the data of a record and returns it as stored.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, data map[string]any) (types.Record, error) {
	if err := types.ValidateID(recordID); err != nil {
		return types.Record{}, err
	}
	var r types.Record
	if err := do(ctx, c, http.MethodPatch, "/records/"+escape(recordID), nil, recordBody{Data: data}, &r); err != nil {
		return types.Record{}, err
	}
	return r, nil
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	if err := types.ValidateID(recordID); err != nil {
		return err
	}
	return do[struct{}](ctx, c, http.MethodDelete, "/records/"+escape(recordID), nil, nil, nil)
}
