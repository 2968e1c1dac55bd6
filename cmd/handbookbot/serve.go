package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"handbookbot/internal/api"
	"handbookbot/internal/config"
	"handbookbot/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the handbook query API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, local, err := buildService(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if local != nil && cfg.Local.Watch {
			go func() {
				if err := local.Watch(ctx, 500*time.Millisecond); err != nil {
					logger.Error("handbook watcher stopped", zap.Error(err))
				}
			}()
		}

		srv := api.NewServer(svc, api.Config{
			Addr:           cfg.Server.Addr,
			ReadTimeout:    config.Seconds(cfg.Server.ReadTimeoutSecs),
			WriteTimeout:   config.Seconds(cfg.Server.WriteTimeoutSecs),
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
		}, logger.Named("api"))
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
