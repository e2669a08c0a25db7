package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/server"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve task execution over HTTP",
	Long: `Starts an HTTP server with three endpoints:

  POST /tasks    execute a task and return the full result payload
  GET  /healthz  liveness check
  GET  /stats    aggregate execution counters`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		engine, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("loom listening on %s\n", cfg.Server.Addr)
		return server.New(engine).ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a config file (overrides discovery)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
