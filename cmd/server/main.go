// Command locadmin-server starts the in-memory localization dev server.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/crypto"
	"github.com/and161185/locadmin/internal/server"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration and runs the HTTP server until interrupted.
func main() {
	// Flags
	addr := flag.String("addr", ":8000", "listen address")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (random if empty)")
	accessTTL := flag.Duration("access-ttl", 24*time.Hour, "access token TTL")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	key := []byte(*jwtKey)
	if len(key) == 0 {
		// Dev convenience: tokens stop verifying across restarts, which
		// is fine for a fixture.
		b, err := crypto.RandBytes(32)
		if err != nil {
			logger.Fatal("generate jwt key", zap.Error(err))
		}
		key = b
		logger.Info("generated signing key", zap.String("key", hex.EncodeToString(b)))
	}

	app, err := server.New(logger, server.Options{JWTKey: key, AccessTTL: *accessTTL})
	if err != nil {
		logger.Fatal("build server", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
