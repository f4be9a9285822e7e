package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/profile-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP profiling server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(env.Coordinator, server.Options{
			MaxSources:     cfg.Pipeline.MaxSources,
			MaxBodyBytes:   int64(cfg.Server.MaxBodyKB) * 1024,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Pipeline:       defaultOptions(),
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
