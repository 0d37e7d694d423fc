package view

import (
	"github.com/golang/glog"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// Event outcomes reported to Metrics.
const (
	EventInserted   = "inserted"
	EventReplaced   = "replaced"
	EventRemoved    = "removed"
	EventCounted    = "counted"
	EventNoop       = "noop"
	EventOtherTable = "other_table"
	EventNotReady   = "not_ready"
	EventInvalid    = "invalid"
)

// ApplyLiveEvent merges one live event into the displayed page and
// reports whether the snapshot changed.
//
//   - record_created for an id already shown is applied as an update.
//     Otherwise the record is prepended and total incremented when page 1
//     is shown; on later pages only total is incremented.
//   - record_updated replaces a shown record in place and is ignored for
//     ids not on the page.
//   - record_deleted removes a shown record; total is decremented whether
//     or not the record was on the page, but never below zero.
//
// Events for other tables, and events arriving before the first fetch has
// succeeded, are ignored. The sort order is never recomputed locally.
func (v *RecordViewState) ApplyLiveEvent(e types.LiveEvent) bool {
	v.mu.Lock()
	outcome := v.applyLocked(e)
	changed := outcome == EventInserted || outcome == EventReplaced ||
		outcome == EventRemoved || outcome == EventCounted
	var snap Snapshot
	if changed {
		snap = v.snapshotLocked()
	}
	v.mu.Unlock()

	if v.metrics != nil {
		v.metrics.ObserveEvent(e.Type, outcome)
	}
	glog.V(2).Infof("view %s: %s %s -> %s", v.tableID, e.Type, e.RecordID, outcome)
	if changed {
		v.notify(snap)
	}
	return changed
}

func (v *RecordViewState) applyLocked(e types.LiveEvent) string {
	if e.TableID != v.tableID {
		return EventOtherTable
	}
	if !v.ready {
		return EventNotReady
	}
	idx := v.indexLocked(e.RecordID)

	switch e.Type {
	case types.RecordCreated:
		if e.Record == nil {
			return EventInvalid
		}
		if idx >= 0 {
			v.records[idx] = v.incoming(e)
			return EventReplaced
		}
		v.total++
		if v.shown.Page != 1 {
			return EventCounted
		}
		v.records = append([]types.Record{v.incoming(e)}, v.records...)
		if len(v.records) > v.pageSize {
			v.records = v.records[:v.pageSize]
		}
		return EventInserted

	case types.RecordUpdated:
		if e.Record == nil {
			return EventInvalid
		}
		if idx < 0 {
			return EventNoop
		}
		v.records[idx] = v.incoming(e)
		return EventReplaced

	case types.RecordDeleted:
		if v.total > 0 {
			v.total--
		}
		if idx < 0 {
			return EventCounted
		}
		v.records = append(v.records[:idx], v.records[idx+1:]...)
		return EventRemoved
	}
	return EventInvalid
}

func (v *RecordViewState) indexLocked(id string) int {
	for i, r := range v.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (v *RecordViewState) incoming(e types.LiveEvent) types.Record {
	r := e.Record.Clone()
	r.ID = e.RecordID
	if r.TableID == "" {
		r.TableID = e.TableID
	}
	return r
}
