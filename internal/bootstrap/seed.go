package bootstrap

import (
	"errors"

	"anoa.com/gemcert/internal/entity"
	"anoa.com/gemcert/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Certificate{},
		&entity.Admin{},
	)
}

// SeedAdmin creates the default admin account when it does not exist yet.
func SeedAdmin(db *gorm.DB, username, password string, log *logger.Logger) error {
	if username == "" || password == "" {
		return errors.New("admin username and password must not be empty")
	}

	var count int64
	if err := db.Model(&entity.Admin{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Info("admin user already exists, skipping seed", "username", username)
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := entity.Admin{
		Username:     username,
		PasswordHash: string(hashedPasswordBytes),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("admin user seeded", "username", username)
	return nil
}
