package types

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the mutation a live event reports.
type EventType string

// Live event types as sent by the base service.
const (
	RecordCreated EventType = "record_created"
	RecordUpdated EventType = "record_updated"
	RecordDeleted EventType = "record_deleted"
)

var eventAliases = map[string]EventType{
	"record_created": RecordCreated,
	"record_updated": RecordUpdated,
	"record_deleted": RecordDeleted,
	"created":        RecordCreated,
	"updated":        RecordUpdated,
	"deleted":        RecordDeleted,
}

// LiveEvent is one push notification of a record mutation. Record is set
// for created and updated events.
type LiveEvent struct {
	Type     EventType `json:"type"`
	TableID  string    `json:"tableId"`
	RecordID string    `json:"recordId"`
	Record   *Record   `json:"record,omitempty"`
}

// Validate checks that the event is complete enough to apply.
func (e LiveEvent) Validate() error {
	if _, ok := eventAliases[string(e.Type)]; !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.TableID == "" || e.RecordID == "" {
		return fmt.Errorf("%w: missing table or record id", ErrInvalidEvent)
	}
	if e.Type != RecordDeleted && e.Record == nil {
		return fmt.Errorf("%w: %s without record payload", ErrInvalidEvent, e.Type)
	}
	if e.Record != nil && e.Record.ID != "" && e.Record.ID != e.RecordID {
		return fmt.Errorf("%w: record id %q does not match %q", ErrInvalidEvent, e.Record.ID, e.RecordID)
	}
	return nil
}

// DecodeLiveEvent parses and validates one JSON message. Short type names
// (created, updated, deleted) are normalized to their record_ forms, and a
// payload record without an id inherits RecordID.
func DecodeLiveEvent(data []byte) (LiveEvent, error) {
	var e LiveEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LiveEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if t, ok := eventAliases[string(e.Type)]; ok {
		e.Type = t
	}
	if err := e.Validate(); err != nil {
		return LiveEvent{}, err
	}
	if e.Record != nil {
		if e.Record.ID == "" {
			e.Record.ID = e.RecordID
		}
		if e.Record.TableID == "" {
			e.Record.TableID = e.TableID
		}
	}
	return e, nil
}
