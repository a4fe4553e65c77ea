package bootstrap

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"streamvault/internal/models"
)

// MigrateAndSeed ensures required tables exist and seeds the first admin
// account. adminEmail/adminPassword may be empty, in which case no admin is
// created and the operator seeds one by hand.
func MigrateAndSeed(db *gorm.DB, adminEmail, adminPassword string) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := ensureDefaultAdmin(db, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("seed admin failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Plan{},
		&models.PlanPricing{},
		&models.PaymentMethod{},
		&models.PaymentWidget{},
		&models.Order{},
		&models.IptvCredential{},
		&models.ActivityLog{},
	}
}

// ensureDefaultAdmin creates the bootstrap admin when no admin exists yet.
func ensureDefaultAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:         email,
		Name:          "Administrator",
		PasswordHash:  string(hash),
		Role:          models.RoleAdmin,
		EmailVerified: true,
	}
	return db.Create(&admin).Error
}
