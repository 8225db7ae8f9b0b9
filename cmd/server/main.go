package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pgnest/config"
	"pgnest/internal/database"
	"pgnest/internal/domain"
	"pgnest/internal/repository"
	"pgnest/internal/router"
	"pgnest/internal/ws"
	"pgnest/pkg/cloudinary"
	"pgnest/pkg/events"
	"pgnest/pkg/mailer"
	"pgnest/pkg/payment"
	"pgnest/pkg/redisx"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := repository.NewSettingRepository(db).SeedDefaults(domain.DefaultSettings); err != nil {
		log.Printf("[settings] seed failed: %v", err)
	}
	database.SeedAdmin(db, &cfg.Admin)

	deps := router.Deps{Hub: ws.NewHub()}

	deps.Cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if errors.Is(err, cloudinary.ErrNotConfigured) {
		log.Printf("[cloudinary] not configured, uploads disabled")
		deps.Cloud = nil
	} else if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	if cfg.Redis.Addr != "" {
		rdb := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("[redis] ping failed, running without cache and locks: %v", err)
			_ = rdb.Close()
		} else {
			log.Printf("[redis] connected to %s", cfg.Redis.Addr)
			deps.Redis = rdb
			defer rdb.Close()
		}
		cancel()
	}

	deps.Events = events.New(cfg.NATS.URL)

	deps.Mailer = mailer.New(mailer.Config{
		MailerSendKey: cfg.Mail.MailerSendKey,
		FromName:      cfg.Mail.FromName,
		FromEmail:     cfg.Mail.FromEmail,
		SMTPHost:      cfg.Mail.SMTPHost,
		SMTPPort:      cfg.Mail.SMTPPort,
		SMTPUser:      cfg.Mail.SMTPUser,
		SMTPPass:      cfg.Mail.SMTPPass,
		SMTPUseTLS:    cfg.Mail.SMTPUseTLS,
		DevMode:       cfg.Mail.DevMode,
	})

	if cfg.Payment.KeyID != "" {
		deps.Payments = payment.NewRazorpayProvider(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.WebhookSecret)
	} else {
		log.Printf("[payment] RAZORPAY_KEY_ID not set, using stub provider (development only)")
		deps.Payments = &payment.StubProvider{Secret: cfg.Payment.WebhookSecret}
	}

	engine := router.Setup(cfg, db, deps)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	if err := deps.Events.Close(); err != nil {
		log.Printf("[events] close: %v", err)
	}
	fmt.Println("server stopped")
}
