package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-barcode-stock/internal/handler"
	"go-barcode-stock/internal/model"
	"go-barcode-stock/internal/repository"
	"go-barcode-stock/internal/service"
	"go-barcode-stock/internal/ws"
	"go-barcode-stock/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	if err := db.AutoMigrate(&model.Product{}, &model.HistoryEntry{}); err != nil {
		log.Fatal("Migration failed: ", err)
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	historyRepo := repository.NewHistoryRepo(db)

	invService := service.NewInventoryService(productRepo, historyRepo, wsHub)
	statsService := service.NewStatsService(historyRepo)

	invHandler := handler.NewInventoryHandler(invService)
	statsHandler := handler.NewStatsHandler(statsService)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Barcode Stock Tracker v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 6. Routes
	api := app.Group("/api")

	api.Get("/products", invHandler.GetProducts)
	api.Post("/products", invHandler.CreateProduct)
	api.Get("/product/:barcode", invHandler.GetProduct)
	api.Post("/stock/in", invHandler.StockIn)
	api.Post("/stock/out", invHandler.StockOut)
	api.Get("/history", invHandler.GetHistory)

	api.Get("/stats", statsHandler.GetOverviewStats)
	api.Get("/stats/stock-movement", statsHandler.GetStockMovement)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		// Kirim snapshot awal dulu, baru daftar ke broadcast set. Observer
		// selalu lihat initial_data sebelum event incremental apa pun.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		payload, err := invService.InitialData(ctx)
		cancel()
		if err != nil {
			log.Printf("initial snapshot failed: %v", err)
			c.Close()
			return
		}
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.Close()
			return
		}

		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exited")
}
