// Package view keeps the client-resident page of records for one table and
// reconciles it with fetch results and live update events.
//
// A RecordViewState holds the currently requested query, the records
// displayed for the last query whose fetch succeeded, and the total count
// reported by that fetch. Query changes replace the view wholesale once
// their fetch lands; live events patch it in place. Every mutation checks
// that it still belongs to the current query generation, so a slow fetch
// for an abandoned query can never overwrite a newer one.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// Fetcher lists one page of records for a table.
type Fetcher interface {
	ListRecords(ctx context.Context, tableID string, filter *types.Filter, sort []types.Sort, limit, offset int) (types.RecordPage, error)
}

// Metrics receives view outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveFetch(outcome string, duration time.Duration)
	ObserveEvent(eventType types.EventType, outcome string)
}

// Fetch outcomes reported to Metrics.
const (
	FetchOK         = "ok"
	FetchError      = "error"
	FetchSuperseded = "superseded"
)

// Snapshot is an immutable copy of the view state handed to observers.
type Snapshot struct {
	TableID  string
	PageSize int

	// Query is the most recently requested query. Shown is the query that
	// produced Records; they differ while Loading.
	Query types.Query
	Shown types.Query

	Records []types.Record
	Total   int
	Loading bool

	// Err is the error of the last failed fetch, cleared by the next
	// successful one.
	Err error

	// Ready is false until the first fetch succeeds.
	Ready bool

	version uint64
}

// Pages returns the number of pages needed to show Total records.
func (s Snapshot) Pages() int {
	if s.PageSize <= 0 || s.Total <= 0 {
		return 1
	}
	return (s.Total + s.PageSize - 1) / s.PageSize
}

// HasNext reports whether a page follows the shown one.
func (s Snapshot) HasNext() bool {
	return s.Shown.Page*s.PageSize < s.Total
}

// Option configures a RecordViewState.
type Option func(*RecordViewState)

// WithMetrics reports fetch and event outcomes to m.
func WithMetrics(m Metrics) Option {
	return func(v *RecordViewState) { v.metrics = m }
}

// RecordViewState owns the current page of records for one table.
type RecordViewState struct {
	tableID  string
	pageSize int
	fetcher  Fetcher
	metrics  Metrics

	mu      sync.Mutex
	gen     uint64
	query   types.Query
	shown   types.Query
	records []types.Record
	total   int
	loading bool
	err     error
	ready   bool
	version uint64

	// notifyMu orders deliveries; delivered is the version of the last
	// snapshot handed to subscribers.
	notifyMu  sync.Mutex
	delivered uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates an empty view of tableID. Nothing is fetched until SetQuery
// or Refresh is called. The initial query is page 1, unfiltered, unsorted.
func New(tableID string, pageSize int, fetcher Fetcher, opts ...Option) *RecordViewState {
	if pageSize <= 0 {
		pageSize = types.DefaultPageSize
	}
	v := &RecordViewState{
		tableID:  tableID,
		pageSize: pageSize,
		fetcher:  fetcher,
		query:    types.Query{Page: 1},
		shown:    types.Query{Page: 1},
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// TableID returns the id of the viewed table.
func (v *RecordViewState) TableID() string { return v.tableID }

// Query returns a copy of the most recently requested query.
func (v *RecordViewState) Query() types.Query {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query.Clone()
}

// Snapshot returns a copy of the current state.
func (v *RecordViewState) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Subscribe registers fn to be called with a fresh Snapshot after every
// state change. The returned function removes the subscription.
// fn runs on the goroutine that caused the change and must not block or
// call methods that change the view. Subscribers see snapshots in the
// order the changes happened; a snapshot overtaken by a newer one before
// delivery is skipped.
func (v *RecordViewState) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	v.subMu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	v.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.subMu.Lock()
			delete(v.subs, id)
			v.subMu.Unlock()
		})
	}
}

// SetQuery marks the view loading and fetches q. On success the records
// and total are replaced; on failure the previous records stay visible
// and the error is kept in the snapshot and returned.
//
// If another SetQuery starts before this fetch returns, this result is
// discarded and ErrSuperseded is returned. Superseded fetches are not
// aborted; pass a cancellable ctx to stop them early.
func (v *RecordViewState) SetQuery(ctx context.Context, q types.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	q = q.Clone()

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.query = q
	v.loading = true
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)

	start := time.Now()
	page, err := v.fetcher.ListRecords(ctx, v.tableID, q.Filter, q.Sort, v.pageSize, q.Offset(v.pageSize))
	elapsed := time.Since(start)

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		v.observeFetch(FetchSuperseded, elapsed)
		glog.V(2).Infof("view %s: discarded result of superseded query (gen %d)", v.tableID, gen)
		return types.ErrSuperseded
	}
	v.loading = false
	if err != nil {
		v.err = err
		snap = v.snapshotLocked()
		v.mu.Unlock()
		v.observeFetch(FetchError, elapsed)
		glog.Warningf("view %s: fetch page %d: %v", v.tableID, q.Page, err)
		v.notify(snap)
		return err
	}
	v.records = v.normalize(page.Records)
	v.total = page.Total
	v.shown = q
	v.err = nil
	v.ready = true
	snap = v.snapshotLocked()
	v.mu.Unlock()

	v.observeFetch(FetchOK, elapsed)
	v.notify(snap)
	return nil
}

// Refresh refetches the current query.
func (v *RecordViewState) Refresh(ctx context.Context) error {
	return v.SetQuery(ctx, v.Query())
}

// SetPage fetches the given page of the current filter and sort.
func (v *RecordViewState) SetPage(ctx context.Context, page int) error {
	q := v.Query()
	q.Page = page
	return v.SetQuery(ctx, q)
}

// SetFilter replaces the filter, keeping the sort and page.
func (v *RecordViewState) SetFilter(ctx context.Context, filter *types.Filter) error {
	q := v.Query()
	q.Filter = filter
	return v.SetQuery(ctx, q)
}

// HandleSort cycles fieldID through unsorted, asc and desc, leaving other
// sort entries and their order untouched, then fetches the new query.
// The page is not reset; callers that want page 1 use SetQuery.
func (v *RecordViewState) HandleSort(ctx context.Context, fieldID string) error {
	q := v.Query()
	q.Sort = types.CycleSort(q.Sort, fieldID)
	return v.SetQuery(ctx, q)
}

// normalize drops duplicate ids, keeping the first occurrence, and trims
// the page to the page size.
func (v *RecordViewState) normalize(in []types.Record) []types.Record {
	out := make([]types.Record, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, r := range in {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r.Clone())
		if len(out) == v.pageSize {
			break
		}
	}
	return out
}

func (v *RecordViewState) snapshotLocked() Snapshot {
	v.version++
	records := make([]types.Record, len(v.records))
	for i, r := range v.records {
		records[i] = r.Clone()
	}
	return Snapshot{
		TableID:  v.tableID,
		PageSize: v.pageSize,
		Query:    v.query.Clone(),
		Shown:    v.shown.Clone(),
		Records:  records,
		Total:    v.total,
		Loading:  v.loading,
		Err:      v.err,
		Ready:    v.ready,
		version:  v.version,
	}
}

func (v *RecordViewState) notify(s Snapshot) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	if s.version <= v.delivered {
		return
	}
	v.delivered = s.version

	v.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (v *RecordViewState) observeFetch(outcome string, d time.Duration) {
	if v.metrics != nil {
		v.metrics.ObserveFetch(outcome, d)
	}
}
