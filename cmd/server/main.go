package main

import (
	"fmt"
	"log"

	"github.com/Burashka44/House-RentBot/internal/config"
	"github.com/Burashka44/House-RentBot/internal/handlers"
	"github.com/Burashka44/House-RentBot/internal/middleware"
	"github.com/Burashka44/House-RentBot/internal/services"
	"github.com/Burashka44/House-RentBot/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	db, err := store.InitDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	store.SetDB(db)

	r := gin.Default()

	// health
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, middleware.AuthRequired([]byte(cfg.JWTSecret)))

	if cfg.SchedulerEnabled {
		services.StartScheduler(db)
	}

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
