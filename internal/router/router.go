package router

import (
	"log"
	"time"

	"kodisha/config"
	"kodisha/internal/channel"
	"kodisha/internal/fanout"
	"kodisha/internal/handler"
	"kodisha/internal/lifecycle"
	"kodisha/internal/middleware"
	"kodisha/internal/repository"
	"kodisha/internal/resolver"
	"kodisha/internal/service"
	"kodisha/internal/ws"
	"kodisha/pkg/cardproc"
	"kodisha/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	propRepo := repository.NewPropertyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)

	// Fan-out consumes committed transitions behind the request cycle.
	events := fanout.New(requestRepo, hub, notifSvc, userRepo)
	events.Start()

	// Settlement channels
	proc := cardproc.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.SecretKey)
	if !proc.Configured() {
		log.Printf("[GATEWAY] card processor not configured; gateway channel will answer unavailable")
	}
	gatewayAdapter := channel.NewGatewayAdapter(proc, cfg.Payment.Currency, cfg.Gateway.MinAmountCents)
	registry := channel.NewRegistry(
		gatewayAdapter,
		channel.NewPeerTransferAdapter(),
		channel.NewBankTransferAdapter(cfg.BankTransfer),
	)

	rslv := resolver.New(userRepo, propRepo, userRepo)
	manager := lifecycle.New(paymentRepo, events, cfg.Payment.DueHorizon, cfg.Payment.Currency)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	paymentHandler := handler.NewPaymentHandler(userRepo, propRepo, paymentRepo, requestRepo, rslv, manager)
	channelHandler := handler.NewChannelHandler(userRepo, paymentRepo, registry, gatewayAdapter, manager, cloud)
	statsHandler := handler.NewStatsHandler(userRepo, propRepo, paymentRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	propertyHandler := handler.NewPropertyHandler(propRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			// Projections first so they are not swallowed by /:id.
			payments.GET("/stats", statsHandler.Stats)
			payments.GET("/overdue", statsHandler.Overdue)
			payments.GET("/next-due", statsHandler.NextDue)

			payments.POST("", paymentHandler.Create)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.Get)
			payments.PUT("/:id", adminMw, paymentHandler.Update)
			payments.DELETE("/:id", adminMw, paymentHandler.Delete)
			payments.POST("/:id/cancel", adminMw, paymentHandler.Cancel)
			payments.POST("/sweep-overdue", adminMw, paymentHandler.Sweep)

			payments.POST("/:id/gateway/intent", channelHandler.GatewayIntent)
			payments.POST("/:id/gateway/confirm", channelHandler.GatewayConfirm)
			payments.POST("/:id/peer-transfer/instructions", channelHandler.PeerInstructions)
			payments.POST("/:id/bank-transfer/instructions", channelHandler.BankInstructions)
			payments.POST("/:id/settle", channelHandler.Settle)
			payments.POST("/:id/receipt", channelHandler.UploadReceipt)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.POST("/buildings", propertyHandler.CreateBuilding)
			admin.POST("/units", propertyHandler.CreateUnit)
			admin.GET("/units/:id", propertyHandler.GetUnit)
		}
	}

	r.GET("/ws/payments", ws.UpgradePaymentsWS(&cfg.JWT, hub))

	return r
}
