package main

import (
	"context"
	"fmt"
	"funnel-engine/internal/client"
	"funnel-engine/internal/config"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/logger"
	"funnel-engine/internal/repository"
	"funnel-engine/internal/server"
	"funnel-engine/internal/service"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.New(cfg.Log, os.Stdout).With("env", cfg.Environment.Name)
	slog.SetDefault(lg)

	db := client.InitDBClient(cfg.Database)

	identityCache := repository.NewMemoryIdentityCache()
	rdb, err := client.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatal(err)
	}
	if rdb != nil {
		identityCache = repository.NewRedisIdentityCache(rdb, cfg.Redis.TTL)
	}

	var (
		processor       client.PaymentProcessor
		paypalClient    client.PaypalClient
		braintreeClient client.BraintreeClient
	)
	switch cfg.PaymentProvider {
	case "braintree":
		braintreeClient = client.NewBraintreeClient(&cfg.BrainTree)
		processor = braintreeClient
	case "paypal":
		paypalClient = client.NewPaypalClient(&cfg.Paypal)
		processor = paypalClient
	default:
		log.Fatalf("unsupported payment provider %q", cfg.PaymentProvider)
	}

	flowRepo := repository.NewFlowRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	identityRepo := repository.NewPendingIdentityRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	resolver := funnel.NewIdentityResolver(
		identityRepo,
		cfg.Identity.MaxAttempts,
		cfg.Identity.InitialDelay,
		cfg.Identity.RetryDelay,
		funnel.WithLogger(lg),
	)

	// PayPal sends the buyer back here after approving the saved card
	returnURL := cfg.Paypal.RedirectURL
	if returnURL == "" {
		returnURL = cfg.BaseURL
	}

	flowService := service.NewFlowService(flowRepo)
	identityService := service.NewIdentityService(resolver, identityCache, lg)
	purchaseService := service.NewPurchaseService(purchaseRepo, flowRepo, cfg.Attribution.Window, time.Now, lg)
	checkoutService := service.NewCheckoutService(
		processor,
		flowService,
		identityService,
		purchaseRepo,
		vaultRepo,
		service.NewLogTracker(lg),
		lg,
		service.CheckoutOptions{
			DedupPerSession: cfg.Charge.DedupPerSession,
			ReturnURL:       returnURL,
			CancelURL:       cfg.BaseURL,
		},
	)
	webhookService := service.NewWebhookService(
		paypalClient,
		braintreeClient,
		identityRepo,
		vaultRepo,
		webhookEventRepo,
		lg,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(server.Services{
		Checkout: checkoutService,
		Identity: identityService,
		Purchase: purchaseService,
		Flow:     flowService,
		Webhook:  webhookService,
	}, cfg.Auth, cfg.RateLimit)

	lg.Info("starting HTTP server", "addr", serverAddr, "provider", cfg.PaymentProvider)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error: ", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	lg.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("HTTP server shutdown error: ", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
