package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"xoso/internal/handlers"
	"xoso/internal/storage"
	"xoso/internal/web"
	"xoso/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	lg, err := initLogger(cfg, true)
	if err != nil {
		return err
	}
	defer lg.Close()

	// 1. Initialize the Lottery Service, creating the results file if needed.
	lotteryService, store, err := newService(cfg)
	if err != nil {
		return err
	}
	if _, err := lotteryService.Results(); err != nil {
		return err
	}

	// 2. Load HTML templates and assets from the embedded filesystem.
	templates, err := web.Templates()
	if err != nil {
		return err
	}
	assets, err := web.Assets()
	if err != nil {
		return err
	}

	// 3. Initialize the HTTP Handler
	hub := ws.NewHub()
	httpHandler := handlers.NewHTTPHandler(lotteryService, templates, hub, cfg.AllowedOrigins)

	// 4. Set up the Gin router
	r := gin.Default()
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.StaticFS("/assets", http.FS(assets))
	httpHandler.RegisterRoutes(r)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Push every change of results.json to the board screens.
	watcher, err := storage.NewWatcher(store, 200*time.Millisecond, httpHandler.BroadcastResults)
	if err != nil {
		logger.Warningf("Live board updates disabled: %v", err)
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warningf("Live board updates disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	// 6. Run the server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on http://localhost:%s (variant %s, data %s)", cfg.Port, cfg.Variant, store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorf("Failed to run server: %v", err)
		}
		return err
	case <-ctx.Done():
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "HX-Request", "HX-Target", "HX-Current-URL"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
