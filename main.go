package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cs2-arbitrage/internal/api"
	"cs2-arbitrage/internal/config"
	"cs2-arbitrage/internal/database"
	"cs2-arbitrage/internal/market"
	"cs2-arbitrage/internal/market/csfloat"
	"cs2-arbitrage/internal/market/steam"
	"cs2-arbitrage/internal/monitor"
	"cs2-arbitrage/internal/store"
	"cs2-arbitrage/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	// Marketplace sources; missing credentials degrade to public access
	sources := []market.Marketplace{
		csfloat.New(cfg.CSFloatAPIKey),
		steam.New(cfg.SteamAPIKey),
	}
	log.Printf("Initialized %d marketplaces", len(sources))

	// Without a database the engine runs stateless: on-demand queries only,
	// no background monitoring.
	var ledger *store.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		ledger = store.New(db)
	} else {
		log.Println("DATABASE_URL not set, running in stateless mode")
	}

	engine := monitor.New(cfg, sources, ledger)

	stopHub := make(chan struct{})
	hub := ws.NewHub()
	go hub.Run(stopHub)
	engine.SetPublisher(hub)

	if ledger != nil {
		if err := engine.Start(); err != nil {
			log.Fatal("Failed to start price monitoring:", err)
		}
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Live opportunity feed
	r.GET("/ws", func(c *gin.Context) {
		hub.HandleWS(c.Writer, c.Request)
	})

	// API routes
	apiGroup := r.Group("/api/v1")
	api.SetupRoutes(apiGroup, engine)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	engine.Stop()
	close(stopHub)
	server.Close()
}
