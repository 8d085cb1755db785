package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/squadchat/internal/cli"
	httpadapter "github.com/aretw0/squadchat/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves POST /chat, session inspection, the workflow graph,
a server-sent event stream of node events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		streams := httpadapter.NewStreamManager(logger)

		stack, err := cli.Build(sc, cfg, logger, cli.BuildOptions{
			Registerer: reg,
			Hooks:      streams.Hooks(),
		})
		if err != nil {
			return err
		}
		defer stack.Close()

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpadapter.NewHandler(stack.Assistant,
				httpadapter.WithStreams(streams),
				httpadapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
				httpadapter.WithLogger(logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-sc.Done():
			logger.Info("Shutting down", "signal", sc.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
}
