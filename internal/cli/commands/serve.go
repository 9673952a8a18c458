package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapkpi/internal/api"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the KPI HTTP API",
		Long: `Serve stored results, anomalies, benchmarks and rankings as JSON, and
accept run requests:

  GET  /v1/health
  GET  /v1/kpis
  GET  /v1/runs
  POST /v1/runs/{period}
  GET  /v1/benchmarks/{period}?kpi=
  GET  /v1/facilities/{facility}/periods/{period}/results
  GET  /v1/facilities/{facility}/periods/{period}/anomalies
  GET  /v1/facilities/{facility}/periods/{period}/rank/{kpi}`,
		Example: `  leapkpi serve --addr :8088`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8088)")

	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := cc.Cfg.API.Addr
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		addr = f.Value.String()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.New(api.Config{
		Engine:  cc.Engine,
		Addr:    addr,
		Version: version,
		Logger:  cc.Logger,
	})
	cc.Renderer.Muted("Listening on " + addr)
	return srv.ListenAndServe(ctx)
}
