package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brightpath/onboard/internal/config"
	"github.com/brightpath/onboard/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the onboarding portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		serverCfg := config.ServerConfig{Port: cfg.Server.Port}
		if servePort != 0 {
			serverCfg.Port = servePort
		}

		srv := server.New(env.Orchestrator, env.Store, serverCfg)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
