package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/basegrid/internal/live"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

const tableID = "t1"

var testFields = []types.Field{
	{ID: "f-name", TableID: tableID, Name: "Name", KeyName: "name", Type: types.FieldText, Required: true},
	{ID: "f-qty", TableID: tableID, Name: "Qty", KeyName: "qty", Type: types.FieldNumber},
}

// fakeService serves the REST routes the session uses plus the live
// endpoint, and records what it was asked.
type fakeService struct {
	srv   *httptest.Server
	conns chan *websocket.Conn

	mu           sync.Mutex
	fieldFetches int
	listQueries  []string
	posted       []map[string]any
	patched      []map[string]any
	stored       types.Record
	page         types.RecordPage
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{
		conns: make(chan *websocket.Conn, 4),
		page: types.RecordPage{
			Records: []types.Record{{ID: "r1", TableID: tableID, Data: map[string]any{"name": "A"}}},
			Total:   3,
		},
		stored: types.Record{ID: "r1", TableID: tableID, Data: map[string]any{"name": "A", "qty": 1.0}},
	}
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tables/t1/fields", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.fieldFetches++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(testFields)
	})
	mux.HandleFunc("GET /api/v1/tables/t1/records", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.listQueries = append(f.listQueries, r.URL.RawQuery)
		page := f.page
		f.mu.Unlock()
		json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("POST /api/v1/tables/t1/records", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data map[string]any `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.posted = append(f.posted, body.Data)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(types.Record{ID: "r2", TableID: tableID, Data: body.Data})
	})
	mux.HandleFunc("GET /api/v1/records/r1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.stored)
	})
	mux.HandleFunc("PATCH /api/v1/records/r1", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data map[string]any `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.patched = append(f.patched, body.Data)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(types.Record{ID: "r1", TableID: tableID, Data: body.Data})
	})
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tableId") != tableID {
			http.Error(w, "missing tableId", http.StatusBadRequest)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- ws
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) config(t *testing.T) types.Config {
	cfg := types.DefaultConfig()
	cfg.APIURL = f.srv.URL + "/api/v1"
	cfg.WSURL = "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	cfg.PageSize = 2
	cfg.ReconnectInitial = 10 * time.Millisecond
	cfg.ReconnectMaxAttempts = 2
	cfg.DataDir = t.TempDir()
	return cfg
}

func (f *fakeService) counts() (fieldFetches, posts, patches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldFetches, len(f.posted), len(f.patched)
}

func newApp(t *testing.T, cfg types.Config) *App {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func openSession(t *testing.T, f *fakeService) *TableSession {
	t.Helper()
	a := newApp(t, f.config(t))
	s, err := a.OpenTable(context.Background(), tableID)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.PageSize = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, types.ErrPageSizeInvalid)
}

func TestFields_CacheFirst(t *testing.T) {
	f := newFakeService(t)
	a := newApp(t, f.config(t))
	ctx := context.Background()

	got, err := a.Fields(ctx, tableID, false)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = a.Fields(ctx, tableID, false)
	require.NoError(t, err)
	fetches, _, _ := f.counts()
	assert.Equal(t, 1, fetches, "second read served from cache")

	_, err = a.Fields(ctx, tableID, true)
	require.NoError(t, err)
	fetches, _, _ = f.counts()
	assert.Equal(t, 2, fetches, "refresh bypasses cache")

	require.NoError(t, a.InvalidateFields(ctx, tableID))
	_, err = a.Fields(ctx, tableID, false)
	require.NoError(t, err)
	fetches, _, _ = f.counts()
	assert.Equal(t, 3, fetches)
}

func TestFields_CacheDisabled(t *testing.T) {
	f := newFakeService(t)
	cfg := f.config(t)
	cfg.FieldCacheTTL = 0
	a := newApp(t, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := a.Fields(ctx, tableID, false)
		require.NoError(t, err)
	}
	fetches, _, _ := f.counts()
	assert.Equal(t, 2, fetches)
}

func TestFields_InvalidID(t *testing.T) {
	f := newFakeService(t)
	a := newApp(t, f.config(t))

	_, err := a.Fields(context.Background(), "", false)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestSession_LiveEventsPatchView(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	snap := s.View().Snapshot()
	require.True(t, snap.Ready)
	assert.Equal(t, 3, snap.Total)

	done, err := s.Listen(ctx)
	require.NoError(t, err)

	var ws *websocket.Conn
	select {
	case ws = <-f.conns:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not connect")
	}
	defer ws.Close()

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(
		`{"type":"record_created","tableId":"t1","recordId":"r9","record":{"id":"r9","tableId":"t1","data":{"name":"Z"}}}`)))

	require.Eventually(t, func() bool {
		snap := s.View().Snapshot()
		return snap.Total == 4 && len(snap.Records) == 2 && snap.Records[0].ID == "r9"
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not stop")
	}
	assert.Equal(t, live.StateClosed, s.Channel().State())
}

func TestSession_Search(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, "ad"))
	filter := s.View().Query().Filter
	require.NotNil(t, filter)
	assert.Equal(t, types.Or, filter.Operator)
	require.Len(t, filter.Clauses, 1)
	assert.Equal(t, "f-name", filter.Clauses[0].Condition.FieldID)

	require.NoError(t, s.Search(ctx, ""))
	assert.Nil(t, s.View().Query().Filter)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.listQueries, 2)
	assert.Contains(t, f.listQueries[0], "filter=")
	assert.NotContains(t, f.listQueries[1], "filter=")
}

func TestSession_SortByKey(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)
	ctx := context.Background()

	require.NoError(t, s.Sort(ctx, "qty"))
	assert.Equal(t, []types.Sort{{FieldID: "f-qty", Direction: types.Asc}}, s.View().Query().Sort)

	require.NoError(t, s.Sort(ctx, "Qty"))
	assert.Equal(t, []types.Sort{{FieldID: "f-qty", Direction: types.Desc}}, s.View().Query().Sort)

	err := s.Sort(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrInvalidSort)
}

func TestSession_Paging(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	assert.ErrorIs(t, s.PrevPage(ctx), types.ErrInvalidPage)

	require.NoError(t, s.NextPage(ctx))
	assert.Equal(t, 2, s.View().Snapshot().Shown.Page)
	assert.ErrorIs(t, s.NextPage(ctx), types.ErrInvalidPage, "total 3 at page size 2 has two pages")

	require.NoError(t, s.PrevPage(ctx))
	assert.Equal(t, 1, s.View().Snapshot().Shown.Page)
}

func TestSession_SubmitCreate(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)
	ctx := context.Background()

	_, err := s.Submit(ctx, "", map[string]string{"qty": "lots"})
	require.Error(t, err)
	var verrs types.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"Name is required"}, verrs.ForField("f-name"))
	_, posts, _ := f.counts()
	assert.Zero(t, posts, "invalid submissions are not sent")

	rec, err := s.Submit(ctx, "", map[string]string{"name": "B", "qty": "1500"})
	require.NoError(t, err)
	assert.Equal(t, "r2", rec.ID)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.posted, 1)
	assert.Equal(t, map[string]any{"name": "B", "qty": 1500.0}, f.posted[0])
}

func TestSession_SubmitUpdateMerges(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)
	ctx := context.Background()

	_, err := s.Submit(ctx, "r1", map[string]string{"qty": "7"})
	require.NoError(t, err)

	_, err = s.Submit(ctx, "r1", map[string]string{"name": ""})
	assert.ErrorIs(t, err, types.ErrValidation)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.patched, 1)
	assert.Equal(t, map[string]any{"name": "A", "qty": 7.0}, f.patched[0])
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	f := newFakeService(t)
	s := openSession(t, f)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Listen(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestOpenTable_FieldsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`)
	}))
	defer srv.Close()

	cfg := types.DefaultConfig()
	cfg.APIURL = srv.URL + "/api/v1"
	cfg.FieldCacheTTL = 0
	a := newApp(t, cfg)

	_, err := a.OpenTable(context.Background(), tableID)
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestOpenTable_EachSessionOwnsItsChannel(t *testing.T) {
	f := newFakeService(t)
	a := newApp(t, f.config(t))

	s1, err := a.OpenTable(context.Background(), tableID)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := a.OpenTable(context.Background(), tableID)
	require.NoError(t, err)
	defer s2.Close()

	assert.NotSame(t, s1.Channel(), s2.Channel())
	assert.NotEqual(t, s1.Channel().ID(), s2.Channel().ID())
	assert.Contains(t, s1.Channel().URL(), "tableId="+tableID)
}
