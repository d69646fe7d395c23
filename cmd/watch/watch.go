// Package watch provides the watch command, which re-runs a query whenever
// the inventory file changes.
package watch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	cmdquery "github.com/endorses/routefilter/cmd/query"
	"github.com/endorses/routefilter/internal/pkg/cmdutil"
	"github.com/endorses/routefilter/internal/pkg/filtering"
	"github.com/endorses/routefilter/internal/pkg/inventory"
	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/endorses/routefilter/internal/pkg/output"
	"github.com/endorses/routefilter/internal/pkg/query"
	"github.com/endorses/routefilter/internal/pkg/signals"
	"github.com/spf13/cobra"
)

// WatchCmd re-runs a query on every inventory change
var WatchCmd = &cobra.Command{
	Use:   "watch <kind> [name=value...]",
	Short: "Re-run a query whenever the inventory changes",
	Long: `Run a query, then run it again each time the inventory file is
rewritten. SIGHUP forces a reload.

Examples:
  rf watch static-route device="Device 1"
  rf watch ospf-interface area=0 --metrics-port 9090
  rf watch ospf-area --poll --debounce 1s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

var (
	metricsPort int
	debounce    time.Duration
	forcePoll   bool
)

func init() {
	cmdquery.AddFormatFlag(WatchCmd)
	WatchCmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
	WatchCmd.Flags().DurationVar(&debounce, "debounce", 0, "delay between a file change and the reload (default 200ms)")
	WatchCmd.Flags().BoolVar(&forcePoll, "poll", false, "poll the file instead of using filesystem notifications")
}

// Session holds the state of one watch run
type Session struct {
	Kind    string
	Request filtering.Request
	Format  string
	Service *query.Service
	Out     io.Writer

	mu sync.Mutex
}

// Run evaluates the query against the current snapshot and writes the result
func (s *Session) Run(ctx context.Context) error {
	res, err := s.Service.Query(ctx, s.Kind, s.Request)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Format == output.FormatTable {
		fmt.Fprintf(s.Out, "# inventory of %s: %d of %d %s records\n",
			res.Snapshot.BuiltAt().Format(time.RFC3339), len(res.Records), res.Total, res.Kind)
	}
	return output.WriteResult(s.Out, s.Format, res.Kind, res.Records, res.Total, res.Filters, res.Snapshot)
}

// OnReload re-runs the query after a successful reload
func (s *Session) OnReload(ctx context.Context) inventory.ReloadFunc {
	return func(_ *inventory.Snapshot, err error) {
		if err != nil {
			return
		}
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("query failed after reload", "kind", s.Kind, "error", err)
		}
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cmdquery.Format()
	if err != nil {
		return err
	}

	req, err := cmdutil.ParseFilterArgs(args[1:])
	if err != nil {
		return err
	}

	path := cmdutil.InventoryPath("")
	snap, err := inventory.LoadFile(path)
	if err != nil {
		return err
	}

	store := inventory.NewStore(snap)
	metrics := query.NewMetrics()
	metrics.SetInventory(snap)

	session := &Session{
		Kind:    args[0],
		Request: req,
		Format:  format,
		Service: query.NewService(store, metrics),
		Out:     cmd.OutOrStdout(),
	}

	// An invalid request fails before anything starts
	if err := session.Run(cmd.Context()); err != nil {
		return err
	}

	ctx, stop := signals.Shutdown(cmd.Context())
	defer stop()

	if port := cmdutil.GetIntConfig("metrics.port", metricsPort); port > 0 {
		exporter := query.NewExporter(metrics, fmt.Sprintf(":%d", port))
		if err := exporter.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := exporter.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to stop metrics server", "error", err)
			}
		}()
	}

	config := inventory.DefaultWatcherConfig()
	config.Debounce = cmdutil.GetDurationConfig("watch.debounce", debounce, config.Debounce)
	config.ForcePolling = forcePoll

	watcher := inventory.NewWatcher(path, store, config)
	watcher.OnReload(metrics.RecordReload)
	watcher.OnReload(session.OnReload(ctx))

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	cleanup := signals.OnHangup(ctx, func() { _ = watcher.Reload() })
	defer cleanup()

	logger.Info("watching inventory", "path", path, "kind", session.Kind, "mode", watcher.Stats().Mode)

	<-ctx.Done()
	return nil
}
