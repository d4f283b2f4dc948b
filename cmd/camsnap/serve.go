package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mooglejp/atomcam_tools/camsnap/internal/camera"
	"github.com/mooglejp/atomcam_tools/camsnap/internal/metrics"
	"github.com/mooglejp/atomcam_tools/camsnap/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve snapshots over HTTP",
	Long: `Serve GET /snapshot/{camera-id} from the configured cameras, and
Prometheus metrics on /metrics when enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		listen := a.cfg.Server.Listen
		if v := viper.GetString("listen"); v != "" {
			listen = v
		}
		username := a.cfg.Server.Auth.Username
		password := a.cfg.Server.Auth.Password
		if v := viper.GetString("snapshot_username"); v != "" {
			username, password = v, viper.GetString("snapshot_password")
		}

		mux := http.NewServeMux()
		proxy := snapshot.NewProxy(a.manager, username, password, a.stdLog)
		mux.Handle("/snapshot/", proxy.Handler())

		if a.cfg.Server.Metrics || viper.GetBool("metrics") {
			collector := metrics.NewCollector()
			a.manager.AddObserver(collector)
			mux.Handle("/metrics", collector.Handler())
		}

		health := camera.NewHealthChecker(a.manager, viper.GetDuration("health_interval"), a.stdLog)
		mux.Handle("/healthz", healthHandler(health))

		if username == "" {
			a.logger.Warn("Snapshot endpoint is not protected by authentication")
		}

		server := &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          a.stdLog,
		}

		// Handle graceful shutdown
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		health.Start(ctx)
		defer health.Stop()

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Starting snapshot server", zap.String("listen", listen), zap.Int("cameras", a.manager.Len()))
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			a.logger.Info("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("Shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "Listen address (overrides server.listen)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().Duration("health-interval", 0, "Probe every camera at this interval (0 disables probing)")
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("metrics", serveCmd.Flags().Lookup("metrics"))
	_ = viper.BindPFlag("health_interval", serveCmd.Flags().Lookup("health-interval"))
}

// healthHandler reports camera health as JSON, answering 503 while any
// camera is unhealthy
func healthHandler(h *camera.HealthChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := h.Status()
		code := http.StatusOK
		for _, healthy := range status {
			if !healthy {
				code = http.StatusServiceUnavailable
				break
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}
