// cmd/watch.go

package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/backup"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/rotation"
	cerr "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var watchMetricsAddr string

func init() {
	WatchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Expose prometheus metrics on this address (e.g. :9313)")
}

// WatchCmd runs the background workers in the foreground: the rotation
// scheduler and the backup worker, optionally with a metrics endpoint.
// Runs until interrupted.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the rotation scheduler and backup worker",
	Args:  cobra.NoArgs,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		logger := otelzap.Ctx(rc.Ctx)

		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		scheduler := rotation.NewScheduler(rt.manager, rt.cfg.ScanInterval)
		scheduler.Start(rc.Ctx)

		worker := backup.NewWorker(rt.manager, rt.st, rt.ledger, rt.cfg.Actor,
			rt.cfg.BackupInterval, rt.cfg.BackupRetentionDays)
		worker.Start(rc.Ctx)

		var metricsSrv *http.Server
		if watchMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(rt.recorder.Registry(), promhttp.HandlerOpts{}))
			metricsSrv = &http.Server{Addr: watchMetricsAddr, Handler: mux}
			go func() {
				logger.Info("Metrics endpoint listening", zap.String("addr", watchMetricsAddr))
				if err := metricsSrv.ListenAndServe(); err != nil && !cerr.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics endpoint failed", zap.Error(err))
				}
			}()
		}

		logger.Info("Watching",
			zap.Duration("scan_interval", rt.cfg.ScanInterval),
			zap.Duration("backup_interval", rt.cfg.BackupInterval))

		// Wrap installs signal handling on rc.Ctx; block until interrupted.
		<-rc.Ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var shutdownErr error
		if err := scheduler.Stop(shutdownCtx); err != nil {
			shutdownErr = cerr.CombineErrors(shutdownErr, err)
		}
		if err := worker.Stop(shutdownCtx); err != nil {
			shutdownErr = cerr.CombineErrors(shutdownErr, err)
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				shutdownErr = cerr.CombineErrors(shutdownErr, err)
			}
		}

		logger.Info("Watch shut down")
		return shutdownErr
	}),
}
