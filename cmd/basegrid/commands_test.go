package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// newBaseService serves a single table t1 with two fields and two records.
func newBaseService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tables/t1/fields", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]types.Field{
			{ID: "f-name", TableID: "t1", Name: "Name", KeyName: "name", Type: types.FieldText, Required: true},
			{ID: "f-qty", TableID: "t1", Name: "Qty", KeyName: "qty", Type: types.FieldNumber},
		})
	})
	mux.HandleFunc("GET /api/v1/tables/t1/records", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.RecordPage{
			Records: []types.Record{
				{ID: "r1", TableID: "t1", Data: map[string]any{"name": "Acme", "qty": 12000}},
				{ID: "r2", TableID: "t1", Data: map[string]any{"name": "Globex"}},
			},
			Total: 2,
		})
	})
	mux.HandleFunc("POST /api/v1/tables/t1/records", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"r3","tableId":"t1","data":{"name":"Initech"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with fresh global flag state.
func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prepareRoot(t, srv, &out, args...)
	err := rootCmd.Execute()
	return out.String(), err
}

// prepareRoot points the CLI at srv, resets global flag state and sets
// the arguments of the next root command run.
func prepareRoot(t *testing.T, srv *httptest.Server, out io.Writer, args ...string) {
	t.Helper()
	t.Setenv("BASEGRID_API_URL", srv.URL+"/api/v1")
	t.Setenv("BASEGRID_CONFIG_DIR", "")
	t.Setenv("BASEGRID_DATA_DIR", "")

	flagJSON = false
	listFlags = listingFlags{page: 1}
	watchFlags = listingFlags{page: 1}
	watchMetricsAddr = ""
	appConfig = types.DefaultConfig()

	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config-dir", t.TempDir(), "--data-dir", t.TempDir()}, args...))
}

// syncBuffer is a bytes.Buffer safe for a command writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestVersionCommand(t *testing.T) {
	srv := newBaseService(t)
	out, err := execute(t, srv, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "basegrid v")
}

func TestListCommand(t *testing.T) {
	srv := newBaseService(t)

	out, err := execute(t, srv, "list", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "ID  Name    Qty")
	assert.Contains(t, out, "r1  Acme    12,000")
	assert.Contains(t, out, "page 1 of 1, 2 records")
}

func TestListCommand_JSON(t *testing.T) {
	srv := newBaseService(t)

	out, err := execute(t, srv, "list", "t1", "--json", "--sort", "qty:desc")
	require.NoError(t, err)

	var page types.RecordPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Records, 2)
}

func TestListCommand_UnknownSortField(t *testing.T) {
	srv := newBaseService(t)

	_, err := execute(t, srv, "list", "t1", "--sort", "colour")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCreateCommand(t *testing.T) {
	srv := newBaseService(t)

	out, err := execute(t, srv, "create", "t1", "name=Initech")
	require.NoError(t, err)
	assert.Equal(t, "Created r3\n", out)

	_, err = execute(t, srv, "create", "t1", "qty=3")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestInvalidConfigIsUserError(t *testing.T) {
	srv := newBaseService(t)
	t.Setenv("BASEGRID_PAGE_SIZE", "0")

	_, err := execute(t, srv, "bases")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPageSizeInvalid)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestWatchCommand_ConnectsBeforeFirstFetch(t *testing.T) {
	connected := make(chan struct{})
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tables/t1/fields", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]types.Field{
			{ID: "f-name", TableID: "t1", Name: "Name", KeyName: "name", Type: types.FieldText},
		})
	})
	mux.HandleFunc("GET /api/v1/tables/t1/records", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-connected:
		case <-time.After(2 * time.Second):
			http.Error(w, "no live connection", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(types.RecordPage{
			Records: []types.Record{{ID: "r1", TableID: "t1", Data: map[string]any{"name": "Acme"}}},
			Total:   1,
		})
	})
	upgrader := websocket.Upgrader{}
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		once.Do(func() { close(connected) })
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("BASEGRID_WS_URL", "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")

	out := &syncBuffer{}
	prepareRoot(t, srv, out, "watch", "t1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t.Cleanup(func() {
		rootCmd.SetContext(context.Background())
		watchCmd.SetContext(context.Background())
	})
	errc := make(chan error, 1)
	go func() { errc <- rootCmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Acme")
	}, 3*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
