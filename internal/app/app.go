// Package app wires configuration into the client components: the REST
// client, the field cache, metrics, and per-table sessions that combine a
// record view with its live channel.
package app

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/basegrid/internal/api"
	"github.com/mesh-intelligence/basegrid/internal/live"
	"github.com/mesh-intelligence/basegrid/internal/metrics"
	"github.com/mesh-intelligence/basegrid/internal/sqlite"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// App owns the long-lived client components built from one Config.
type App struct {
	cfg     types.Config
	client  *api.Client
	cache   *sqlite.FieldCache
	metrics *metrics.Collector

	settings *live.Settings
}

// New validates cfg and builds the components. The field cache is opened
// only when cfg.FieldCacheTTL is positive and cfg.DataDir is set.
func New(cfg types.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:      cfg,
		client:   api.NewClient(cfg.APIURL),
		metrics:  metrics.New(),
		settings: live.DefaultSettings(),
	}
	a.settings.ReconnectInitial = cfg.ReconnectInitial
	a.settings.ReconnectMaxAttempts = cfg.ReconnectMaxAttempts

	if cfg.FieldCacheTTL > 0 && cfg.DataDir != "" {
		cache, err := sqlite.Open(cfg.DataDir, cfg.FieldCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("open field cache: %w", err)
		}
		a.cache = cache
	}
	return a, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() types.Config { return a.cfg }

// Client returns the REST client.
func (a *App) Client() *api.Client { return a.client }

// Metrics returns the metrics collector shared by all sessions.
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// Fields returns the schema of tableID, from the cache when a fresh entry
// exists unless refresh is set. Fetched schemas are written back.
func (a *App) Fields(ctx context.Context, tableID string, refresh bool) ([]types.Field, error) {
	if err := types.ValidateID(tableID); err != nil {
		return nil, err
	}
	if a.cache != nil && !refresh {
		fields, ok, err := a.cache.Get(ctx, tableID)
		if err != nil {
			glog.Warningf("field cache read %s: %v", tableID, err)
		} else if ok {
			return fields, nil
		}
	}

	fields, err := a.client.ListFields(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.Put(ctx, tableID, fields); err != nil {
			glog.Warningf("field cache write %s: %v", tableID, err)
		}
	}
	return fields, nil
}

// InvalidateFields drops the cached schema of tableID.
func (a *App) InvalidateFields(ctx context.Context, tableID string) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Invalidate(ctx, tableID)
}

// Close releases the field cache.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
