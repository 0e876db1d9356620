package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"puja-booking-server/cache"
	"puja-booking-server/config"
	"puja-booking-server/database"
	"puja-booking-server/jobs"
	"puja-booking-server/logger"
	"puja-booking-server/mailer"
	"puja-booking-server/media"
	"puja-booking-server/metrics"
	"puja-booking-server/middleware"
	"puja-booking-server/routes"
	"puja-booking-server/services"
	"puja-booking-server/sheets"
	ws "puja-booking-server/websocket"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Setup("info", false)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if envErr != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}

	// Initialize database
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx := context.Background()
	if cfg.Database.SeedCatalog {
		if err := seedCatalog(ctx, db); err != nil {
			log.Error().Err(err).Msg("failed to seed catalog")
		}
	}

	m := metrics.New()
	couponCache := newCouponCache(ctx, cfg)

	sender, err := mailer.New(cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure mailer")
	}
	sheetClient := sheets.NewClient(cfg.Sheets)

	hub := ws.NewHub()
	go hub.Run()

	authService := services.NewAuthService(db, cfg.JWT)
	if err := authService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Error().Err(err).Msg("failed to bootstrap admin")
	}

	couponService := services.NewCouponService(database.NewCouponStore(db), couponCache,
		services.PricingPolicy{ExcludedTotals: cfg.Pricing.ExcludedTotals}, m)
	bookingService := services.NewBookingService(database.NewBookingStore(db), database.NewCatalogStore(db),
		couponService, hub, m)
	outboxStore := database.NewOutboxStore(db)

	apiLimiter := middleware.NewRateLimiter(rate.Every(time.Second/5), 60)
	authLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/5), 5)
	stopAPIJanitor := apiLimiter.StartJanitor(10*time.Minute, time.Hour)
	stopAuthJanitor := authLimiter.StartJanitor(10*time.Minute, time.Hour)

	deps := routes.Deps{
		Config:      cfg,
		DB:          db,
		Auth:        authService,
		Coupons:     couponService,
		Bookings:    bookingService,
		Outbox:      outboxStore,
		Countdown:   services.NewCountdown(cfg.Launch.At, nil),
		Hub:         hub,
		Metrics:     m,
		APILimiter:  apiLimiter,
		AuthLimiter: authLimiter,
	}
	uploader, err := media.NewImageUploader(cfg.Cloudinary)
	if err != nil {
		log.Error().Err(err).Msg("image uploads disabled")
	} else if uploader != nil {
		deps.Images = uploader
	}

	router := routes.NewRouter(deps)

	// Background jobs
	dispatcher := jobs.NewOutboxDispatcher(outboxStore, sender, sheetClient, cfg, m)
	dispatcher.Start()
	tokenCleanup := jobs.NewTokenCleanupJob(authService, time.Hour)
	tokenCleanup.Start()
	outboxExpiration := jobs.NewExpirationJob(outboxStore, cfg.Outbox.Retention, 6*time.Hour)
	outboxExpiration.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	outboxExpiration.Stop()
	tokenCleanup.Stop()
	dispatcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shut down")
	}

	hub.Stop()
	stopAPIJanitor()
	stopAuthJanitor()
	if err := couponCache.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close coupon cache")
	}
	if err := database.Close(db); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
	log.Info().Msg("server stopped")
}

// newCouponCache prefers redis and falls back to process memory
func newCouponCache(ctx context.Context, cfg *config.Config) cache.CouponCache {
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.CouponTTL)
		if err == nil {
			log.Info().Msg("coupon cache backed by redis")
			return redisCache
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory coupon cache")
	}
	return cache.NewMemoryCache(cfg.Redis.CouponTTL)
}
