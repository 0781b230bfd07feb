package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	v1 "go_configserver/api/v1"
	"go_configserver/internal/cache"
	"go_configserver/internal/config"
	"go_configserver/internal/db"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3. Run migrations when requested
	if cfg.Migrate {
		if err := db.Migrate(db.DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	// 4. Initialize Redis (optional, sync cache only)
	if cfg.Redis.Addr != "" {
		if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	// 5. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// Setup API v1 routes
	v1.SetupRouter(r, db.DB, cfg)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
