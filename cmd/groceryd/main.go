package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/config"
	"github.com/xndadelin/Grosharing/internal/database"
	"github.com/xndadelin/Grosharing/internal/logging"
	"github.com/xndadelin/Grosharing/internal/push"
	"github.com/xndadelin/Grosharing/internal/server"
	"github.com/xndadelin/Grosharing/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "groceryd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.S3.PublicBaseURL == "" {
		cfg.S3.PublicBaseURL = "http://localhost:" + cfg.Port + "/images"
	}
	images := storage.NewImages(cfg.S3)
	if !images.Configured() {
		logger.Warn("image storage not configured; uploads disabled")
	}

	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("generate VAPID keys: %w", err)
		}
		cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey = pub, priv
		logger.Warn("generated ephemeral VAPID keys; set GROSHARING_VAPID_PUBLIC_KEY and GROSHARING_VAPID_PRIVATE_KEY to keep web push subscriptions across restarts",
			"public_key", pub)
	}
	notifier := push.NewDispatcher(
		push.NewExpoClient(cfg.ExpoHost, cfg.ExpoAccessToken),
		push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber),
	)

	srv := server.New(db, server.Config{
		Sessions:           auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL),
		Provider:           auth.NewJWT(cfg.ProviderSecret, cfg.ProviderIssuer, 0),
		Images:             images,
		Notifier:           notifier,
		VAPIDPublicKey:     cfg.VAPIDPublicKey,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WSOriginPatterns:   cfg.WSOriginPatterns,
	}, logger)

	for house, password := range cfg.HousePasswords {
		if err := srv.HouseStore().SetPassword(house, password); err != nil {
			return fmt.Errorf("set password for %s: %w", house, err)
		}
		logger.Info("house password set", "house", house)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.RateLimiter().StartCleanup(ctx, 5*time.Minute)
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}
	go cleanupSessions(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: chat feeds are long-lived WebSocket connections.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("grosharing running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// cleanupSessions drops revoked-session rows whose tokens have expired anyway.
func cleanupSessions(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Warn("cleanup revoked sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("cleaned up revoked sessions", "count", n)
			}
		}
	}
}
