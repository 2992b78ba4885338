package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idozri/vidto-listen/internal/api"
	"github.com/idozri/vidto-listen/internal/config"
	"github.com/idozri/vidto-listen/internal/db"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API for the web UI.

Configuration is read from the environment and an optional .env file:
PORT, DATA_PATH, DB_PATH, UPLOAD_PATH, JWT_SECRET, CORS_ORIGINS,
PROCESSING_DELAY, MAX_UPLOAD_MB and SESSION_TTL.

Examples:
  vidto-listen serve
  vidto-listen serve --port 9000 -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}

	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := api.NewServer(cfg, database, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(stopped)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting server",
			"addr", httpServer.Addr,
			"data", cfg.DataPath,
			"processing_delay", cfg.ProcessingDelay,
		)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stop()
		<-stopped
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = httpServer.Shutdown(shutdownCtx)
	<-stopped
	return err
}
