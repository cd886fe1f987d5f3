package main

import (
	"log"
	"os"

	_ "github.com/faruq2021/KogiExportHub/api/swagger" // swagger docs
	"github.com/faruq2021/KogiExportHub/internal/database"
	"github.com/faruq2021/KogiExportHub/internal/handler"
	"github.com/faruq2021/KogiExportHub/internal/middleware"
	"github.com/faruq2021/KogiExportHub/internal/repository"
	"github.com/faruq2021/KogiExportHub/internal/service"
	"github.com/faruq2021/KogiExportHub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           KogiExportHub API
// @version         1.0
// @description     Regional trade marketplace with tax collection, government revenue recognition and civic infrastructure funding.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	if err := database.Seed(db); err != nil {
		log.Fatalf("Database seeding failed: %v", err)
	}

	// Set up WebSocket Hub for the live revenue feed
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	taxRecordRepo := repository.NewTaxRecordRepository(db)
	revenueReportRepo := repository.NewRevenueReportRepository(db)
	fundingRepo := repository.NewFundingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	paymentService := service.NewPaymentService(service.FlutterwaveConfig{
		SecretKey:   os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		CallbackURL: getenv("PAYMENT_CALLBACK_URL", "http://localhost:8080/payments/callback"),
	})

	jurisdiction := getenv("TAX_JURISDICTION", "Kogi State")

	userService := service.NewUserService(userRepo)
	taxService := service.NewTaxService(taxRuleRepo, taxRecordRepo, productRepo, userRepo, auditRepo, wsHub, jurisdiction)
	receiptService := service.NewReceiptService()
	marketplaceService := service.NewMarketplaceService(productRepo, transactionRepo, userRepo, paymentService, taxService, txManager)
	fundingService := service.NewFundingService(fundingRepo, userRepo, auditRepo, paymentService)
	revenueService := service.NewRevenueService(revenueReportRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	marketplaceHandler := handler.NewMarketplaceHandler(marketplaceService)
	paymentHandler := handler.NewPaymentHandler(marketplaceService, fundingService, paymentService, receiptService, transactionRepo)
	taxationHandler := handler.NewTaxationHandler(taxService, revenueService, receiptService, taxRecordRepo)
	fundingHandler := handler.NewFundingHandler(fundingService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for the admin revenue dashboard
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	marketplaceHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	taxationHandler.RegisterRoutes(router.Group(""))
	fundingHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
