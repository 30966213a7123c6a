package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var metricsListen string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus metrics over HTTP",
	Long: `Serve the process metrics (task counts, fix attempt outcomes, bus
throughput) on /metrics in Prometheus exposition format.

Blocks until interrupted. Useful alongside a long-running dashboard or an
async pipeline run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{Addr: metricsListen, Handler: mux}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		fmt.Printf("Serving metrics on %s/metrics\n", metricsListen)

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("metrics server: %w", err)
		}
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsListen, "listen", ":9090", "Address to serve metrics on")
	rootCmd.AddCommand(metricsCmd)
}
