package router

import (
	"log"
	"net/http"

	"pgnest/config"
	"pgnest/internal/domain"
	"pgnest/internal/handler"
	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"
	"pgnest/internal/ws"
	"pgnest/pkg/cloudinary"
	"pgnest/pkg/events"
	"pgnest/pkg/mailer"
	"pgnest/pkg/payment"
	"pgnest/pkg/redisx"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the external clients built in main. Cloud and Redis may be nil.
type Deps struct {
	Cloud    cloudinary.Client
	Redis    *redis.Client
	Events   events.Publisher
	Mailer   mailer.Sender
	Payments payment.Provider
	Hub      *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()
	r := gin.New()
	r.Use(gin.Recovery())
	limiter := func(q middleware.Quota) middleware.Limiter {
		if deps.Redis != nil {
			return redisx.NewRateLimiter(deps.Redis, q.Limit, q.Window)
		}
		return middleware.NewMemoryLimiter(q)
	}
	r.Use(middleware.RateLimit(limiter(middleware.QuotaGlobal), "global"))
	r.MaxMultipartMemory = 8 << 20

	// Repositories
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	kycRepo := repository.NewKYCRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	contactRepo := repository.NewContactRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	hub := deps.Hub
	if hub == nil {
		hub = ws.NewHub()
	}

	// Redis-backed helpers stay nil interfaces when Redis is off.
	var searchCache service.SearchCache
	var locker service.Locker
	if deps.Redis != nil {
		searchCache = redisx.NewSearchCache(deps.Redis, cfg.Redis.SearchTTL)
		locker = redisx.Locker{RDB: deps.Redis}
	}

	// Services
	var push service.DevicePusher
	if fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath); fcmSvc != nil {
		push = fcmSvc
		log.Printf("[fcm] push notifications enabled")
	} else {
		log.Printf("[fcm] push notifications disabled")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, settingRepo, push, hub, deps.Mailer, deps.Events, cfg.Server.PublicURL)
	referralSvc := service.NewReferralService(referralRepo, userRepo, bookingRepo, settingRepo, notifSvc)
	authSvc := service.NewAuthService(cfg, userRepo, referralSvc, notifSvc)
	settingsSvc := service.NewSettingsService(settingRepo)
	listingSvc := service.NewListingService(listingRepo, roomRepo, reviewRepo, searchCache, deps.Cloud, cfg.Cloudinary.Folder)
	kycSvc := service.NewKYCService(kycRepo, deps.Cloud, cfg.Cloudinary.Folder, notifSvc)
	bookingSvc := service.NewBookingService(bookingRepo, listingRepo, kycRepo, roomRepo, paymentRepo, settingRepo, notifSvc, searchCache)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, bookingRepo, paymentRepo, settingRepo, locker, notifSvc)
	paymentSvc := service.NewPaymentService(paymentRepo, bookingRepo, deps.Payments, invoiceSvc, referralSvc, notifSvc, searchCache, cfg.Payment.Currency, cfg.Payment.MerchantName)
	visitSvc := service.NewVisitService(visitRepo, listingRepo, notifSvc)

	// Handlers
	audit := handler.NewAuditor(auditRepo)
	authHandler := handler.NewAuthHandler(authSvc, audit)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, referralSvc, audit)
	meHandler := handler.NewMeHandler(userRepo, notificationRepo, kycSvc, audit)
	uploadHandler := handler.NewUploadHandler(deps.Cloud, userRepo, cfg.Cloudinary.Folder)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	listingHandler := handler.NewListingHandler(listingSvc, audit)
	distanceHandler := handler.NewDistanceHandler(listingRepo)
	bookingHandler := handler.NewBookingHandler(bookingSvc, bookingRepo, audit)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, paymentRepo, audit)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc, invoiceRepo)
	kycHandler := handler.NewKYCHandler(kycSvc, kycRepo, audit)
	visitHandler := handler.NewVisitHandler(visitSvc, visitRepo, audit)
	referralHandler := handler.NewReferralHandler(referralSvc, userRepo, referralRepo)
	contactHandler := handler.NewContactHandler(contactRepo, notifSvc, cfg.Mail.SupportEmail, audit)
	ownerHandler := handler.NewOwnerHandler(listingSvc, listingRepo, bookingRepo, visitRepo, paymentRepo, audit)
	adminHandler := handler.NewAdminHandler(adminRepo, userRepo, auditRepo, settingsSvc, authSvc, audit)

	authMw := middleware.AuthRequired(&cfg.JWT)
	optionalAuth := middleware.OptionalAuth(&cfg.JWT)
	authLimit := middleware.RateLimit(limiter(middleware.QuotaAuth), "auth")
	bookingLimit := middleware.RateLimit(limiter(middleware.QuotaBooking), "booking")
	contactLimit := middleware.RateLimit(limiter(middleware.QuotaContact), "contact")

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": hub.ClientCount()})
	})

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authLimit, authHandler.Register)
			authGroup.POST("/login", authLimit, authHandler.Login)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", authLimit, googleOAuthHandler.Token)
		}

		api.GET("/listings", listingHandler.Search)
		api.GET("/listings/:id", optionalAuth, listingHandler.Detail)
		api.GET("/listings/:id/reviews", listingHandler.Reviews)
		api.GET("/listings/:id/distance", distanceHandler.GetDistance)
		api.POST("/listings/:id/reviews", authMw, listingHandler.AddReview)
		api.DELETE("/reviews/:id", authMw, listingHandler.DeleteReview)

		api.GET("/listings/:id/booking", authMw, bookingHandler.Page)
		api.POST("/listings/:id/bookings", authMw, bookingLimit, middleware.KYCVerified(kycRepo), bookingHandler.Create)
		api.POST("/listings/:id/visits", authMw, bookingLimit, visitHandler.Request)
		api.GET("/bookings/:id", authMw, bookingHandler.Get)
		api.POST("/bookings/:id/cancel", authMw, bookingHandler.Cancel)
		api.POST("/bookings/:id/payments", authMw, bookingLimit, paymentHandler.Checkout)
		api.GET("/bookings/:id/invoice", authMw, invoiceHandler.ByBooking)
		api.POST("/payments/verify", authMw, paymentHandler.Verify)
		api.POST("/payments/failure", authMw, paymentHandler.Failure)
		api.GET("/invoices/:id", authMw, invoiceHandler.Get)
		api.PATCH("/visits/:id/status", authMw, visitHandler.SetStatus)
		api.POST("/contact", contactLimit, contactHandler.Submit)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.GetProfile)
			me.PATCH("", meHandler.UpdateProfile)
			me.POST("/avatar", uploadHandler.UploadAvatar)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
			me.GET("/kyc", kycHandler.State)
			me.POST("/kyc", kycHandler.Submit)
			me.GET("/bookings", bookingHandler.Mine)
			me.GET("/visits", visitHandler.Mine)
			me.GET("/invoices", invoiceHandler.Mine)
			me.GET("/referrals", referralHandler.GetMyReferrals)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		}

		owner := api.Group("/owner")
		owner.Use(authMw, middleware.RequireRole(domain.RoleOwner, domain.RoleAdmin))
		{
			owner.GET("/dashboard", ownerHandler.Dashboard)
			owner.GET("/listings", ownerHandler.Listings)
			owner.POST("/listings", ownerHandler.CreateListing)
			owner.PUT("/listings/:id", ownerHandler.UpdateListing)
			owner.PATCH("/listings/:id/status", ownerHandler.SetListingStatus)
			owner.POST("/listings/:id/images", ownerHandler.UploadImage)
			owner.DELETE("/listings/:id/images/:imageId", ownerHandler.DeleteImage)
			owner.GET("/listings/:id/rooms", ownerHandler.Rooms)
			owner.POST("/listings/:id/rooms", ownerHandler.AddRoom)
			owner.PUT("/listings/:id/rooms", ownerHandler.UpdateRooms)
			owner.GET("/bookings", bookingHandler.OwnerList)
			owner.PATCH("/bookings/:id/status", bookingHandler.SetStatus)
			owner.GET("/visits", visitHandler.OwnerList)
			owner.PATCH("/visits/:id/status", visitHandler.SetStatus)
		}

		api.POST("/admin/login", authLimit, adminHandler.AdminLogin)
		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id/role", adminHandler.UpdateUserRole)
			admin.GET("/listings", adminHandler.ListListings)
			admin.PATCH("/listings/:id/status", ownerHandler.SetListingStatus)
			admin.GET("/bookings", bookingHandler.AdminList)
			admin.PATCH("/bookings/:id/status", bookingHandler.SetStatus)
			admin.POST("/bookings/:id/invoice", invoiceHandler.Regenerate)
			admin.GET("/payments", paymentHandler.AdminList)
			admin.GET("/invoices", invoiceHandler.AdminList)
			admin.GET("/kyc", kycHandler.Queue)
			admin.PATCH("/kyc/:id", kycHandler.Review)
			admin.GET("/visits", visitHandler.AdminList)
			admin.PATCH("/visits/:id/status", visitHandler.SetStatus)
			admin.GET("/reviews", adminHandler.ListReviews)
			admin.DELETE("/reviews/:id", listingHandler.DeleteReview)
			admin.GET("/referrals", referralHandler.AdminList)
			admin.GET("/contacts", contactHandler.AdminList)
			admin.PATCH("/contacts/:id/resolve", contactHandler.Resolve)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.GET("/audit-logs", adminHandler.AuditLog)
		}

		api.POST("/webhooks/razorpay", paymentHandler.Webhook)
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, hub))

	return r
}
