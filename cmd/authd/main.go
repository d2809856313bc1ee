// Command authd serves the account lifecycle API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/bricola/authcore"
	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/httpapi"
	otelexport "github.com/bricola/authcore/metrics/export/otel"
	"github.com/bricola/authcore/metrics/export/prometheus"
	"github.com/bricola/authcore/notify"
	"github.com/bricola/authcore/store/pgstore"
	"github.com/bricola/authcore/store/redisstore"
)

func main() {
	if err := _main(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func _main() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.LogFile != "" {
		if err := initLogRotator(cfg.LogFile); err != nil {
			return err
		}
		defer logRotator.Close()
	}
	setLogLevels(cfg.LogLevel)

	log.Infof("Store driver: %v", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	engine, err := authcore.New().
		WithConfig(cfg.engineConfig()).
		WithUserStore(store).
		WithNotifier(notifier).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	exporter, err := otelexport.NewExporter(otel.GetMeterProvider().Meter("authcore"), engine)
	if err != nil {
		return fmt.Errorf("register otel metrics: %w", err)
	}
	defer exporter.Close()

	router := httpapi.NewRouter(engine, httpapi.Config{
		SecureCookies: cfg.secureCookies(),
		Metrics:       prometheus.NewExporter(engine).Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Infof("Listen: %v", cfg.HTTPAddr)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Infof("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown: %v", err)
	}

	sent, failed, dropped := engine.NotifierStats()
	log.Infof("Mail sent %v failed %v dropped %v", sent, failed, dropped)
	return nil
}

func openStore(ctx context.Context, cfg *config) (account.Store, func(), error) {
	switch cfg.StoreDriver {
	case storeRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping %v: %w", cfg.RedisAddr, err)
		}
		return redisstore.New(client, cfg.RedisPrefix), func() { client.Close() }, nil

	case storePostgres:
		store, db, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, func() { closeDB(db) }, nil

	default:
		log.Warnf("Using the in-memory store; accounts are lost on restart")
		return account.NewMemoryStore(), func() {}, nil
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Errorf("Close database: %v", err)
	}
}

func newNotifier(cfg *config) (notify.Notifier, error) {
	if !cfg.smtpConfigured() {
		log.Infof("SMTP not configured, mail is logged instead of sent")
		return notify.LogNotifier{}, nil
	}

	s, err := notify.NewSMTP(notify.SMTPConfig{
		Host:       cfg.SMTPHost,
		User:       cfg.SMTPUser,
		Password:   cfg.SMTPPassword,
		From:       cfg.MailFrom,
		SkipVerify: cfg.SMTPSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}
	return s, nil
}
