package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ayush7kr/TaskManagementSystem/internal/config"
	database "github.com/Ayush7kr/TaskManagementSystem/internal/db"
	"github.com/Ayush7kr/TaskManagementSystem/internal/mail"
	"github.com/Ayush7kr/TaskManagementSystem/internal/storage"

	apiserver "github.com/Ayush7kr/TaskManagementSystem/internal/api/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting TaskMaster API Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations
	db.AutoMigrate()
	// Guarantee an admin exists before the team policy can lock things down.
	database.SeedAdminUser(db.DB, cfg)

	// 4. Avatar Storage & Mail
	store := storage.New(cfg)
	dispatcher := mail.New(cfg)

	// 5. Setup Metrics
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 6. Start Server
	srv := apiserver.New(cfg, db, store, dispatcher)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)

	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
