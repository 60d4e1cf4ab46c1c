package repositories

import (
	"github.com/anonto42/yatube/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables for every entity.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
}
