package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"time"

	"grledger/internal/amqp"
	"grledger/internal/auth"
	"grledger/internal/cache"
	"grledger/internal/cli"
	"grledger/internal/forms"
	apphttp "grledger/internal/http"
	"grledger/internal/insight"
	"grledger/internal/ledger"
	"grledger/internal/log"
	"grledger/internal/middleware/ratelimit"
	"grledger/internal/payment"
	"grledger/internal/render"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	logger.Info("Starting grledger", "backend", cfg.DataBackend, "port", cfg.Port)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	be, err := cli.OpenBackend(bootCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	// Change events are optional; without a broker the export worker only
	// runs its periodic pass.
	var publisher ledger.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	app := ledger.New(be.Store, cli.LedgerOptions(cfg, logger, publisher))
	if err := app.Load(bootCtx); err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		os.Exit(1)
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = randomSecret()
		logger.Warn("JWT_SECRET not set, sessions end when the server restarts")
	}

	var provider insight.Provider
	if gemini, err := insight.NewGemini(bootCtx, cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
		provider = gemini
	} else if errors.Is(err, insight.ErrNoAPIKey) {
		logger.Info("GEMINI_API_KEY not set, insight answers with the connection fallback")
	} else {
		logger.Warn("Gemini client unavailable", log.FieldError, err)
	}

	caches := cache.NewManager(logger)
	pages := cache.NewLRUCache[[]byte](128, 30*time.Minute)
	caches.Register(pages)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	renderer, err := render.New(pages, logger)
	if err != nil {
		logger.Error("Failed to parse print templates", log.FieldError, err)
		os.Exit(1)
	}

	auditor := insight.NewAuditor(provider, cfg.InsightTimeout, logger)
	if txs := app.Transactions(); len(txs) > 0 {
		_ = auditor.Start(txs)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		App:      app,
		Auth:     auth.NewAuthenticator(app, cfg.LoginDelay),
		Tokens:   auth.NewTokens(secret, cfg.SessionTTL),
		Auditor:  auditor,
		Payments: payment.NewLinks(cfg.MidtransServerKey, cfg.MidtransProduction, logger),
		Renderer: renderer,
		Bank: forms.BankDefaults{
			BankName:    cfg.InvoiceBankName,
			AccountName: cfg.InvoiceAccountName,
			AccountNo:   cfg.InvoiceAccountNo,
		},
		Location: cfg.Location(),
		Logger:   logger,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		Ready: be.Ping,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	if be.Watch != nil {
		go func() {
			err := be.Watch(ctx, func(key string) {
				if err := app.Reload(ctx, key); err != nil {
					logger.Warn("Reload after external change failed", log.FieldBlobKey, key, log.FieldError, err)
					return
				}
				logger.Info("Reloaded after external change", log.FieldBlobKey, key)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("File watcher stopped", log.FieldError, err)
			}
		}()
	}

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	m := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", m.Trace.TotalRequests,
		"rate_limited", m.RateLimit.Rejected,
		"suspicious", m.Suspicious.SuspiciousRequests)
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return []byte(hex.EncodeToString(b))
}
