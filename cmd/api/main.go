package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/middleware"
	"marketplace/internal/modules/admin"
	"marketplace/internal/modules/auth"
	"marketplace/internal/modules/cart"
	"marketplace/internal/modules/catalog"
	"marketplace/internal/modules/notify"
	"marketplace/internal/modules/order"
	"marketplace/internal/modules/payment"
	"marketplace/internal/modules/upload"
	"marketplace/internal/pkg/events"
	jwtsvc "marketplace/internal/pkg/jwt"
	"marketplace/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	authCfg, err := config.LoadAuthRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewSessionTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	j := jwtsvc.New(authCfg.AccessSecret, authCfg.RefreshSecret, authCfg.AccessTTL, authCfg.RefreshTTL)

	hub := notify.NewHub()
	defer hub.Close()

	publisher := events.NewPublisher(os.Getenv("RABBITMQ_URL"))

	authService := auth.NewService(userRepo, tokenRepo, j, authCfg.RefreshTokenPepper)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(productRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	cartService := cart.NewService(cartRepo, productRepo)
	cartHandler := cart.NewHandler(cartService)

	orderService := order.NewService(orderRepo, cartRepo, productRepo, publisher, hub)
	orderHandler := order.NewHandler(orderService)

	paymentService := payment.NewService(paymentRepo, orderRepo, hub)
	paymentHandler := payment.NewHandler(paymentService)

	uploadService := upload.NewService(uploadRepo, os.Getenv("UPLOAD_DIR"), os.Getenv("UPLOAD_URL_BASE"))
	uploadHandler := upload.NewHandler(uploadService)

	adminService := admin.NewService(userRepo, tokenRepo)
	adminHandler := admin.NewHandler(adminService)

	wsHandler := notify.NewHandler(hub, j, userRepo)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	var loginLimiter gin.HandlerFunc
	if rdb != nil {
		loginLimiter = middleware.RateLimit(rdb, 10, time.Minute)
	}

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS())

	r.Static(upload.StaticURLBase, uploadService.BaseDir())
	r.GET("/ws/notifications", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1, loginLimiter)
		catalogHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.SessionAuth(j, userRepo))
		{
			authHandler.RegisterProtectedRoutes(protected)
			cartHandler.RegisterRoutes(protected)
			orderHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			uploadHandler.RegisterRoutes(protected)

			merchant := protected.Group("/merchant")
			merchant.Use(middleware.MerchantOnly())
			{
				catalogHandler.RegisterMerchantRoutes(merchant)
			}

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.AdminOnly())
			{
				adminHandler.RegisterRoutes(adminGroup)
			}
		}
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
