package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/basegrid/internal/form"
	"github.com/mesh-intelligence/basegrid/internal/live"
	"github.com/mesh-intelligence/basegrid/internal/view"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// ErrSessionClosed is returned by Listen after Close.
var ErrSessionClosed = errors.New("table session closed")

// TableSession is one open table: its schema, its record view and the
// live channel that patches the view.
type TableSession struct {
	app     *App
	tableID string
	fields  []types.Field
	view    *view.RecordViewState
	channel *live.Channel

	unsubscribe func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
	closed bool
}

// OpenTable loads the schema of tableID and prepares a session for it.
// No records are fetched and no connection is made until Refresh (or any
// query call) and Listen.
func (a *App) OpenTable(ctx context.Context, tableID string) (*TableSession, error) {
	fields, err := a.Fields(ctx, tableID, false)
	if err != nil {
		return nil, fmt.Errorf("load fields of %s: %w", tableID, err)
	}

	channel, err := live.NewChannel(a.cfg.WSURL, []string{tableID}, a.channelSettings(),
		live.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}

	s := &TableSession{
		app:     a,
		tableID: tableID,
		fields:  fields,
		view:    view.New(tableID, a.cfg.PageSize, a.client, view.WithMetrics(a.metrics)),
		channel: channel,
	}
	s.unsubscribe = channel.Subscribe(func(e types.LiveEvent) {
		s.view.ApplyLiveEvent(e)
	})
	return s, nil
}

func (a *App) channelSettings() *live.Settings {
	s := *a.settings
	return &s
}

// TableID returns the id of the open table.
func (s *TableSession) TableID() string { return s.tableID }

// Fields returns the table schema loaded when the session opened.
func (s *TableSession) Fields() []types.Field { return s.fields }

// View returns the record view of the session.
func (s *TableSession) View() *view.RecordViewState { return s.view }

// Channel returns the live channel feeding the view.
func (s *TableSession) Channel() *live.Channel { return s.channel }

// Listen starts the live channel in the background. The returned channel
// yields the result of live.Channel.Run once it stops. Calling Listen
// again returns the same channel.
func (s *TableSession) Listen(ctx context.Context) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.done != nil {
		return s.done, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func(done chan<- error) {
		err := s.channel.Run(ctx)
		if err != nil {
			glog.Warningf("table %s: live updates stopped: %v", s.tableID, err)
		}
		done <- err
		close(done)
	}(s.done)
	return s.done, nil
}

// SetQuery fetches q into the view.
func (s *TableSession) SetQuery(ctx context.Context, q types.Query) error {
	return s.view.SetQuery(ctx, q)
}

// Refresh refetches the current query.
func (s *TableSession) Refresh(ctx context.Context) error {
	return s.view.Refresh(ctx)
}

// Search replaces the filter with a match on every text field of the
// table and refetches, keeping the sort and page. Empty text clears the
// filter. Tables without text fields are left untouched.
func (s *TableSession) Search(ctx context.Context, text string) error {
	filter, ok := types.SearchFilter(text, s.fields)
	if !ok {
		glog.V(1).Infof("table %s: no text fields to search", s.tableID)
		return nil
	}
	return s.view.SetFilter(ctx, filter)
}

// Sort cycles the sort of the field named by key, which may be a key
// name, display name or field id.
func (s *TableSession) Sort(ctx context.Context, key string) error {
	f, err := s.field(key)
	if err != nil {
		return err
	}
	return s.view.HandleSort(ctx, f.ID)
}

// NextPage moves to the page after the shown one.
func (s *TableSession) NextPage(ctx context.Context) error {
	snap := s.view.Snapshot()
	if !snap.HasNext() {
		return fmt.Errorf("%w: already on the last page", types.ErrInvalidPage)
	}
	return s.view.SetPage(ctx, snap.Shown.Page+1)
}

// PrevPage moves to the page before the shown one.
func (s *TableSession) PrevPage(ctx context.Context) error {
	snap := s.view.Snapshot()
	if snap.Shown.Page <= 1 {
		return fmt.Errorf("%w: already on the first page", types.ErrInvalidPage)
	}
	return s.view.SetPage(ctx, snap.Shown.Page-1)
}

// Submit validates raw key=value input and creates a record, or updates
// recordID when it is non-empty. An update is validated against the
// stored record merged with the input. Nothing is sent when validation
// fails; the returned error is then a types.ValidationErrors. The view is
// not touched: the live echo or a Refresh brings the change in.
func (s *TableSession) Submit(ctx context.Context, recordID string, raw map[string]string) (types.Record, error) {
	data, err := form.ParseInput(raw, s.fields)
	if err != nil {
		return types.Record{}, err
	}

	if recordID == "" {
		if verrs := form.Validate(data, s.fields); verrs != nil {
			return types.Record{}, verrs
		}
		return s.app.client.CreateRecord(ctx, s.tableID, data)
	}

	existing, err := s.app.client.GetRecord(ctx, recordID)
	if err != nil {
		return types.Record{}, err
	}
	if existing.TableID != "" && existing.TableID != s.tableID {
		return types.Record{}, fmt.Errorf("%w: record %s belongs to table %s", types.ErrInvalidID, recordID, existing.TableID)
	}
	merged := existing.Clone().Data
	if merged == nil {
		merged = make(map[string]any, len(data))
	}
	for k, v := range data {
		merged[k] = v
	}
	if verrs := form.Validate(merged, s.fields); verrs != nil {
		return types.Record{}, verrs
	}
	return s.app.client.UpdateRecord(ctx, recordID, merged)
}

// Close stops the live channel and detaches the view from it. Close is
// idempotent.
func (s *TableSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	s.unsubscribe()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (s *TableSession) field(key string) (types.Field, error) {
	if f, ok := types.FieldByKey(s.fields, key); ok {
		return f, nil
	}
	if f, ok := types.FieldByID(s.fields, key); ok {
		return f, nil
	}
	return types.Field{}, fmt.Errorf("%w: unknown field %q", types.ErrInvalidSort, key)
}
