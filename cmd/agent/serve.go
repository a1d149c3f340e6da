package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neoagent/internal/app/agent"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the local status/health HTTP API",
	Long: `serve starts the agent's local status server: /health, /ping,
/version, and /api/v1/status. It does not itself run discovery passes; pair
it with "discover" invocations from an external scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	app, err := agent.NewApp()
	if err != nil {
		log.Fatalf("failed to create agent app: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("failed to start agent app: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down agent status server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		log.Fatal("agent forced to shutdown:", err)
	}

	log.Println("agent exiting")
}
