package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hollyfield/hearth/internal/calsync"
	"github.com/hollyfield/hearth/internal/database"
	"github.com/hollyfield/hearth/internal/logging"
	"github.com/hollyfield/hearth/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("HEARTH_LOG_LEVEL"))

	port := os.Getenv("HEARTH_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HEARTH_DB_PATH")
	if dbPath == "" {
		dbPath = "hearth.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	syncCfg := calsync.Config{
		ClientID:     os.Getenv("HEARTH_CALENDAR_CLIENT_ID"),
		ClientSecret: os.Getenv("HEARTH_CALENDAR_CLIENT_SECRET"),
	}

	// Feed cache TTL in seconds; zero means the built-in default.
	var feedTTL time.Duration
	if v := os.Getenv("HEARTH_FEED_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			feedTTL = time.Duration(secs) * time.Second
		}
	}

	srv := server.New(db, syncCfg, feedTTL, logger)

	// Expired rate-limit windows accumulate without a periodic sweep.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Hearth running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
