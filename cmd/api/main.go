package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/handler"
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/internal/ws"
	"go-warehouse-ws/pkg/database"
	"go-warehouse-ws/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.GetDSN(), cfg.Database.LogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Auto Migrate (Hati-hati di production, sebaiknya pakai `inventoryctl migrate`)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 3. Cache: Redis kalau dikonfigurasi, fallback ke memory
	appCache := openCache(cfg.Redis)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	store := repository.NewStore(db)
	tokens := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := service.NewAuthService(store.Users(), tokens)
	userService := service.NewUserService(store.Users())
	catalogService := service.NewCatalogService(store, appCache)
	itemService := service.NewItemService(store, appCache, wsHub)
	ledgerService := service.NewLedgerService(store, appCache, wsHub, time.Now)
	requestService := service.NewRequestService(store, appCache, wsHub, time.Now)
	dashService := service.NewDashboardService(store, appCache, cfg.App.LowStockThreshold, time.Now)
	reportService := service.NewReportService(store)

	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	itemHandler := handler.NewItemHandler(itemService)
	txHandler := handler.NewTransactionHandler(ledgerService)
	requestHandler := handler.NewRequestHandler(requestService)
	dashHandler := handler.NewDashboardHandler(dashService)
	reportHandler := handler.NewReportHandler(reportService)

	rateLimit, err := middleware.RateLimit(cfg.App.RateLimit)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT %q: %v", cfg.App.RateLimit, err)
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Warehouse Stock v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1", rateLimit)
	requireAuth := middleware.RequireAuth(authService)

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/change-password", authHandler.ChangePassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Get("/me", requireAuth, authHandler.Me)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Dashboard Routes (authenticated users can view)
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// Catalog Routes
	canView := middleware.RequireCapability(model.CapItemView)
	canManageCatalog := middleware.RequireCapability(model.CapCatalogManage)
	protected.Get("/categories", canView, catalogHandler.GetCategories)
	protected.Get("/categories/:id", canView, catalogHandler.GetCategory)
	protected.Post("/categories", canManageCatalog, catalogHandler.CreateCategory)
	protected.Put("/categories/:id", canManageCatalog, catalogHandler.UpdateCategory)
	protected.Delete("/categories/:id", canManageCatalog, catalogHandler.DeleteCategory)

	protected.Get("/units", canView, catalogHandler.GetUnits)
	protected.Get("/units/:id", canView, catalogHandler.GetUnit)
	protected.Post("/units", canManageCatalog, catalogHandler.CreateUnit)
	protected.Put("/units/:id", canManageCatalog, catalogHandler.UpdateUnit)
	protected.Delete("/units/:id", canManageCatalog, catalogHandler.DeleteUnit)

	// Item Routes
	canManageItems := middleware.RequireCapability(model.CapItemManage)
	protected.Get("/items", canView, itemHandler.GetItems)
	protected.Get("/items/:id", canView, itemHandler.GetItem)
	protected.Post("/items", canManageItems, itemHandler.CreateItem)
	protected.Put("/items/:id", canManageItems, itemHandler.UpdateItem)
	protected.Delete("/items/:id", canManageItems, itemHandler.DeleteItem)

	// Transaction Routes
	protected.Get("/transactions", middleware.RequireCapability(model.CapTransactionView), txHandler.GetTransactions)
	protected.Get("/transactions/:id", middleware.RequireCapability(model.CapTransactionView), txHandler.GetTransaction)
	protected.Post("/transactions", middleware.RequireCapability(model.CapTransactionCreate), txHandler.CreateTransaction)

	// Item Request Routes
	canProcess := middleware.RequireCapability(model.CapRequestProcess)
	protected.Get("/item-requests", middleware.RequireCapability(model.CapRequestView), requestHandler.GetRequests)
	protected.Get("/item-requests/:id", middleware.RequireCapability(model.CapRequestView), requestHandler.GetRequest)
	protected.Post("/item-requests", middleware.RequireCapability(model.CapRequestCreate), requestHandler.CreateRequest)
	protected.Post("/item-requests/:id/approve", canProcess, requestHandler.Approve)
	protected.Post("/item-requests/:id/reject", canProcess, requestHandler.Reject)

	// Report Routes
	reports := protected.Group("/reports", middleware.RequireCapability(model.CapReportView))
	reports.Get("/stock", reportHandler.Stock)
	reports.Get("/transactions", reportHandler.Transactions)
	reports.Get("/requests", reportHandler.Requests)

	// User Management Routes
	canManageUsers := middleware.RequireCapability(model.CapUserManage)
	protected.Get("/users", canManageUsers, userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser) // self or user:manage, checked in service
	protected.Post("/users", canManageUsers, userHandler.CreateUser)
	protected.Put("/users/:id", canManageUsers, userHandler.UpdateUser)
	protected.Delete("/users/:id", canManageUsers, userHandler.DeleteUser)

	// Profile
	protected.Get("/profile", userHandler.GetProfile)
	protected.Put("/profile", userHandler.UpdateProfile)

	// WebSocket Route (token di query: /ws?token=<jwt>)
	app.Use("/ws", middleware.RequireWSAuth(authService), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func openCache(rc config.RedisConfig) cache.Cache {
	if !rc.Enabled() {
		log.Println("Redis not configured, using in-memory cache")
		return cache.NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cache.NewRedis(ctx, cache.RedisOptions{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB})
	if err != nil {
		log.Printf("Warning: Redis unavailable (%v), using in-memory cache", err)
		return cache.NewMemory()
	}
	log.Printf("✅ Redis cache connected: %s", rc.Addr())
	return c
}
