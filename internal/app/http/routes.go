package routes

import (
	"net/http"
	"time"

	"arcana-app/config"
	adminapi "arcana-app/internal/api/admin"
	authapi "arcana-app/internal/api/auth"
	"arcana-app/internal/api/billing"
	"arcana-app/internal/api/plans"
	stripewebhooks "arcana-app/internal/api/stripewebhook"
	"arcana-app/internal/api/users"
	"arcana-app/internal/app/http/middleware"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/astrology"
	"arcana-app/internal/infra/geo"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/logger"
	"arcana-app/internal/pkg/metrics"
	"arcana-app/internal/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the process-wide resources the HTTP surface is built on.
// Redis is optional.
type Dependencies struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Payments and Geo override the configured providers.
	Payments *stripe.Client
	Geo      geo.Lookup
}

type handlers struct {
	plans    *plans.Handler
	billing  *billing.Handler
	webhooks *stripewebhooks.Handler
	users    *users.Handler
	auth     *authapi.Handler
	admin    *adminapi.Handler
}

func buildHandlers(d Dependencies) handlers {
	payments := d.Payments
	if payments == nil {
		payments = stripe.NewClient(config.STRIPE_SECRET_KEY)
	}
	lookup := d.Geo
	if lookup == nil {
		lookup = geo.NewIPAPIClient(config.GEO_API_URL, 3*time.Second)
	}

	geoOpts := []geo.Option{
		geo.WithLogger(d.Logger),
		geo.WithMetrics(d.Metrics),
		geo.WithDefaultRegion(config.DEFAULT_REGION),
	}
	if d.Redis != nil {
		geoOpts = append(geoOpts, geo.WithCache(d.Redis))
	}
	resolver := geo.NewResolver(lookup, geoOpts...)

	catalog := plans.NewCatalog(d.DB, resolver)
	priceSync := plans.NewPriceSync(d.DB, payments, d.Logger)

	manager := billing.NewManager(d.DB, payments,
		billing.WithLogger(d.Logger),
		billing.WithMetrics(d.Metrics),
		billing.WithRegionResolver(resolver),
		billing.WithAppURL(config.APP_URL),
	)

	processor := stripewebhooks.NewProcessor(d.DB, payments, d.Logger)

	calc := astrology.NewCalculator(d.DB, d.Logger)
	userService := users.NewService(d.DB, resolver, calc, d.Logger)

	authService := authapi.NewService(d.DB, payments, config.JWT_SECRET, config.DEFAULT_PLAN_ID, d.Logger)
	google := authapi.NewGoogle(authapi.GoogleConfig{
		ClientID:         config.GOOGLE_CLIENT_ID,
		ClientSecret:     config.GOOGLE_CLIENT_SECRET,
		RedirectURL:      config.GOOGLE_REDIRECT_URL,
		FrontendRedirect: config.GOOGLE_FRONTEND_REDIRECT,
		SecureCookies:    !config.IsDevelopment(),
	})

	return handlers{
		plans:    plans.NewHandler(catalog, priceSync),
		billing:  billing.NewHandler(manager),
		webhooks: stripewebhooks.NewHandler(processor, config.STRIPE_WEBHOOK_SECRET, d.Logger, d.Metrics),
		users:    users.NewHandler(userService),
		auth:     authapi.NewHandler(authService, google),
		admin:    adminapi.NewHandler(adminapi.NewService(d.DB)),
	}
}

// NewRouter builds the engine with the global middleware chain and every
// route registered.
func NewRouter(d Dependencies) *gin.Engine {
	d.Logger = logger.OrNop(d.Logger)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Logger),
		middleware.AccessLog(d.Logger, d.Metrics),
	)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	registerRoutes(r, d.DB, buildHandlers(d))
	return r
}

func registerRoutes(r *gin.Engine, db *gorm.DB, h handlers) {
	r.NoRoute(func(c *gin.Context) {
		response.Message(c, http.StatusNotFound, "Not found")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Signature-verified; the raw body must reach the handler untouched.
	api.POST("/webhooks/stripe", h.webhooks.StripeWebhook)

	api.GET("/plans", h.plans.GetPlans)

	public := api.Group("/auth")
	public.Use(middleware.SanitizeInput())
	public.POST("/register", h.auth.Register)
	public.POST("/login", h.auth.Login)
	public.GET("/google", h.auth.GoogleStart)
	public.GET("/google/callback", h.auth.GoogleCallback)

	// Authenticated
	auth := api.Group("/")
	auth.Use(middleware.AuthMiddleware(config.JWT_SECRET))

	auth.GET("/user/me", h.users.GetCurrentUser)
	auth.GET("/user", h.users.GetProfile)
	auth.PUT("/user", middleware.SanitizeInput(), h.users.UpdateProfile)
	auth.GET("/user/astrology", h.users.GetAstrology)
	auth.POST("/user/astrology", middleware.SanitizeInput(), h.users.UpdateAstrology)

	auth.GET("/subscription", h.billing.GetSubscription)
	auth.POST("/subscription", h.billing.UpdateSubscription)
	auth.POST("/subscription/checkout", h.billing.Checkout)
	auth.POST("/subscription/portal", h.billing.Portal)
	auth.GET("/payments", h.billing.ListPayments)

	// Subscribed users
	subscribed := auth.Group("/")
	subscribed.Use(middleware.RequireActiveSubscription(db))
	subscribed.GET("/subscription/entitlement", func(c *gin.Context) {
		sub, _ := c.Get("subscription")
		s, _ := sub.(*subscriptions.Subscription)
		response.OK(c, gin.H{"entitled": true, "planId": s.PlanID, "status": s.Status})
	})

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(config.JWT_SECRET), middleware.RequireRole("admin"))
	admin.GET("/dashboard", h.admin.Dashboard)
	admin.GET("/users", h.admin.ListUsers)
	admin.GET("/users/:id", h.admin.GetUserDetails)
	admin.GET("/payments", h.admin.ListPayments)
	admin.POST("/sync-prices", h.plans.SyncPrices)
}
