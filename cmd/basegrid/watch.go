// Watch command for the basegrid CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basegrid/internal/app"
	"github.com/mesh-intelligence/basegrid/internal/view"
)

var (
	watchFlags       listingFlags
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch <table-id>",
	Short: "List a page of records and keep it current with live updates",
	Long: `Watch fetches one page of records and re-prints it whenever a live
update changes it. Created records appear on page 1 only; later pages only
update their record count. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr := watchMetricsAddr
		if addr == "" {
			addr = a.Config().MetricsAddr
		}
		if addr != "" {
			shutdown := serveMetrics(a, addr)
			defer shutdown()
		}

		sess, err := a.OpenTable(ctx, args[0])
		if err != nil {
			return err
		}
		defer sess.Close()

		q, err := buildQuery(sess.Fields(), watchFlags.search, watchFlags.sorts, watchFlags.page)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		unsubscribe := sess.View().Subscribe(func(snap view.Snapshot) {
			if snap.Loading {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "\n%s  table %s\n", time.Now().Format(time.TimeOnly), sess.TableID())
			if err := writeSnapshot(out, sess.Fields(), snap); err != nil {
				glog.Warningf("render: %v", err)
			}
		})
		defer unsubscribe()

		// Connect before the first fetch. The view drops events until it lands.
		done, err := sess.Listen(ctx)
		if err != nil {
			return err
		}
		if err := sess.SetQuery(ctx, q); err != nil {
			return fmt.Errorf("list records: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			if err != nil {
				return fmt.Errorf("live updates: %w", err)
			}
			return nil
		}
	},
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default: metrics_addr from config)")
}

// serveMetrics exposes the app's metrics on addr until the returned
// function is called.
func serveMetrics(a *app.App, addr string) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics().Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		glog.Infof("metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
