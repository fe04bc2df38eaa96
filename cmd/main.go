package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cybershield/backend/internal/analysis"
	"cybershield/backend/internal/api/handler"
	"cybershield/backend/internal/complaint"
	"cybershield/backend/internal/config"
	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/events"
	"cybershield/backend/internal/llm"
	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/notify"
	"cybershield/backend/internal/storage"
	"cybershield/backend/internal/telegram"

	"golang.org/x/sync/errgroup"
)

// openStore returns the complaint store selected by STORE_DRIVER.
func openStore(cfg *config.Config) (storage.Storage, error) {
	if cfg.StoreDriver != "postgres" {
		log.Println("INFO: using in-memory complaint store")
		return storage.NewMemoryStore(cfg.TrackingCodePrefix), nil
	}
	db, err := storage.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established, migrations complete.")
	return storage.NewStorageService(db, cfg.TrackingCodePrefix), nil
}

// openEvents returns the lifecycle event publisher selected by EVENTS_DRIVER.
func openEvents(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case "redis":
		return events.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "mqtt":
		return events.NewMQTTPublisher(events.MQTTConfig{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
	}
	return events.Nop{}, nil
}

func main() {
	log.Println("Starting CyberShield backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open complaint store: %v", err)
	}

	publisher, err := openEvents(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect %s event broker: %v", cfg.EventsDriver, err)
	}
	defer publisher.Close()

	provider, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up language model: %v", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	log.Printf("INFO: language model provider: %s", provider.Name())

	loc, err := localization.Default()
	if err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	// 2. Services
	classifier := analysis.NewClassifier(provider)
	extractor := analysis.NewExtractor(provider, classifier)
	guide := analysis.NewGuide(provider, loc)

	complaints := complaint.NewService(store, classifier, guide, notify.NewComposer(loc), notify.NewMailer(cfg), publisher)

	hub := dialogue.NewHub(dialogue.NewEngine(loc), extractor, complaints, dialogue.Options{
		IdleTimeout:    cfg.SessionIdleTimeout,
		ExtractTimeout: cfg.ExtractTimeout,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	// 3. Optional Telegram front end
	if cfg.TelegramBotToken != "" {
		botService, bot, err := telegram.NewBotService(cfg.TelegramBotToken, hub, complaints, loc)
		if err != nil {
			log.Fatalf("Failed to start Telegram bot: %v", err)
		}
		g.Go(func() error {
			botService.Run(ctx, bot)
			return nil
		})
		if rp, ok := publisher.(*events.RedisPublisher); ok {
			g.Go(func() error {
				rp.Listen(ctx, botService.NotifyStatus)
				return nil
			})
		}
	} else {
		log.Println("WARNING: TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
	}

	// 4. HTTP
	h := handler.NewHandler(hub, complaints, extractor, cfg.JWTSecret)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(h, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g.Go(func() error {
		log.Printf("INFO: listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Server stopped")
}
