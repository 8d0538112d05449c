package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keenhq/keen/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Initialize, then serve health and readiness probes",
		Long: `Run the startup sequence and then serve /healthz and /readyz over HTTP
until interrupted. The database pool is closed on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dev {
				viper.Set("log.level", "debug")
			}
			return runServe()
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe() error {
	orch, cfg, logger, err := buildOrchestrator()
	if err != nil {
		return err
	}

	if err := orch.Initialize(context.Background()); err != nil {
		orch.Shutdown()
		return err
	}

	srv := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
	}, orch, logger)

	return srv.ListenAndServe()
}
