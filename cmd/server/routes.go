package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agenthub-system/config"
	"agenthub-system/internal/database"
	"agenthub-system/internal/handlers"
	"agenthub-system/internal/logger"
	"agenthub-system/internal/middleware"
	"agenthub-system/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.New(cfg.AppEnv)
	defer log.Sync()

	db, err := database.NewConnection(database.DSN(cfg.DB))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb := config.NewRedisClient(cfg.Redis)

	store, err := storage.NewProfileStore(cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize blob storage", zap.Error(err))
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RateLimit("120-M"))

	authHandler := handlers.NewAuthHandler(db, cfg.Auth)
	publicHandler := handlers.NewPublicHandler(db)
	salesHandler := handlers.NewSalesHandler(db, rdb)
	payoutHandler := handlers.NewPayoutHandler(db, rdb, cfg.Payout)
	agentHandler := handlers.NewAgentHandler(db, rdb, store, cfg.Payout, cfg.Storage)
	adminHandler := handlers.NewAdminHandler(db, rdb)

	secret := []byte(cfg.Auth.JWTSecret)

	// --- Public routes ---
	api := r.Group("/api")
	{
		api.GET("/public/all-agents", publicHandler.AllAgents)
		api.GET("/public/agents", publicHandler.SearchByProvince)

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	// --- Agent routes (bearer token) ---
	protected := r.Group("/api")
	protected.Use(middleware.JWTAuth(db, secret))
	{
		protected.POST("/log-sale", salesHandler.LogSale)
		protected.POST("/request-payout", payoutHandler.RequestPayout)
		protected.GET("/get-agent-profile", agentHandler.GetProfile)
		protected.PUT("/update-agent-profile/:agentId", agentHandler.UpdateProfile)
		protected.POST("/upload-profile-picture", agentHandler.UploadProfilePicture)
		protected.GET("/get-agent-sales/:agentId", agentHandler.GetAgentSales)
		protected.GET("/get-top-performers", agentHandler.TopPerformers)
	}

	// --- Admin routes (bearer token + admin role) ---
	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTAuth(db, secret), middleware.RequireAdmin())
	{
		admin.GET("/all-agents", adminHandler.AllAgents)
		admin.GET("/all-sales", adminHandler.AllSales)
		admin.PUT("/approve-sale/:saleId", adminHandler.ApproveSale)
		admin.PUT("/reject-sale/:saleId", adminHandler.RejectSale)
		admin.GET("/all-payouts", adminHandler.AllPayouts)
		admin.PUT("/approve-payout/:payoutId", adminHandler.ApprovePayout)
		admin.PUT("/complete-payout/:payoutId", adminHandler.CompletePayout)
		admin.GET("/get-agent-details/:agentId", adminHandler.GetAgentDetails)
		admin.PUT("/update-agent-details/:agentId", adminHandler.UpdateAgentDetails)
		admin.PUT("/update-agent-auth/:agentId", adminHandler.UpdateAgentAuth)
		admin.GET("/search-agents", adminHandler.SearchAgents)
	}

	r.GET("/health", healthCheckHandler(db, rdb))

	addr := ":" + cfg.Server.Port
	log.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func healthCheckHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now(),
		})
	}
}
