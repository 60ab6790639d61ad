package database

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ayush7kr/TaskManagementSystem/internal/auth"
	"github.com/Ayush7kr/TaskManagementSystem/internal/config"
	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
)

// SeedAdminUser guarantees at least one admin account exists so the team
// policy can be flipped to admin-only without locking everyone out.
func SeedAdminUser(db *gorm.DB, cfg *config.Config) {
	if cfg.Auth.AdminPassword == "" {
		log.Println("Info: no admin password configured, skipping admin seed")
		return
	}

	hash, err := auth.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		log.Printf("⚠️ Admin seed failed to hash password: %v", err)
		return
	}

	admin := models.User{
		Username:     cfg.Auth.AdminUsername,
		Email:        cfg.Auth.AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		AvatarURL:    models.DefaultAvatarURL,
	}

	// UPSERT on username so restarts never duplicate or overwrite the account.
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&admin)

	if result.Error != nil {
		log.Printf("⚠️ Admin seed failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("🌱 Seeded admin account %q", admin.Username)
	}
}
