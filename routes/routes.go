package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"puja-booking-server/config"
	"puja-booking-server/database"
	"puja-booking-server/metrics"
	"puja-booking-server/middleware"
	"puja-booking-server/services"
	"puja-booking-server/types"
	ws "puja-booking-server/websocket"
)

// Deps is everything the HTTP layer needs; main builds it once
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Auth      *services.AuthService
	Coupons   *services.CouponService
	Bookings  *services.BookingService
	Outbox    *database.OutboxStore
	Countdown *services.Countdown
	Hub       *ws.Hub
	Metrics   *metrics.Metrics

	// Images is nil when uploads are not configured
	Images ImageUploader

	// Limiters default to fresh instances when nil
	APILimiter  *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine with every API route registered
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.APILimiter == nil {
		d.APILimiter = middleware.NewRateLimiter(rate.Every(time.Second/5), 60)
	}
	if d.AuthLimiter == nil {
		d.AuthLimiter = middleware.NewRateLimiter(rate.Every(time.Minute/5), 5)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Metrics))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.InputValidation())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Puja booking server is running",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	secret := cfg.JWT.Secret
	requireAuth := middleware.RequireAuth(secret, d.Auth)
	adminOnly := middleware.RequireAuth(secret, d.Auth, types.RoleAdmin)
	clientOnly := middleware.RequireAuth(secret, d.Auth, types.RoleClient)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(d.APILimiter.Middleware())

	public := apiV1.Group("")
	public.Use(middleware.OptionalAuth(secret, d.Auth))

	admin := apiV1.Group("")
	admin.Use(adminOnly)

	authed := apiV1.Group("")
	authed.Use(requireAuth)

	auth := &authHandler{
		auth: d.Auth,
		cookie: cookieSettings{
			domain:     cfg.Cookie.Domain,
			secure:     cfg.Cookie.Secure,
			accessTTL:  cfg.JWT.ExpiryHours * 3600,
			refreshTTL: int(d.Auth.RefreshTTL().Seconds()),
		},
	}
	registerAuthRoutes(apiV1, auth, requireAuth, d.AuthLimiter.Middleware())

	public.GET("/countdown", countdownHandler(d.Countdown))

	registerAccountRoutes(admin, &accountHandler{db: d.DB})
	registerCatalogRoutes(public, admin, &catalogHandler{db: d.DB, images: d.Images})
	registerCouponRoutes(public, admin, &couponHandler{coupons: d.Coupons})
	registerBookingRoutes(authed, &bookingHandler{bookings: d.Bookings}, clientOnly, adminOnly, middleware.LaunchGate(d.Countdown))
	registerAdminRoutes(admin, &adminHandler{
		outbox:   d.Outbox,
		hub:      d.Hub,
		upgrader: ws.NewUpgrader(cfg.Server.AllowedOrigins),
	})

	return router
}
