package repository

import (
	"time"

	"gorm.io/gorm"

	"streamvault/internal/models"
)

// CredentialRepository handles IPTV credential database operations.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindByID returns a credential by ID.
func (r *CredentialRepository) FindByID(id uint) (*models.IptvCredential, error) {
	var cred models.IptvCredential
	if err := r.db.First(&cred, id).Error; err != nil {
		return nil, err
	}
	return &cred, nil
}

// FindByUserID returns all of a user's credentials, active and expired.
func (r *CredentialRepository) FindByUserID(userID uint) ([]models.IptvCredential, error) {
	var creds []models.IptvCredential
	err := r.db.Where("user_id = ?", userID).Order("order_id ASC, connection_number ASC").Find(&creds).Error
	return creds, err
}

// FindByOrderID returns the credentials issued for an order.
func (r *CredentialRepository) FindByOrderID(orderID uint) ([]models.IptvCredential, error) {
	var creds []models.IptvCredential
	err := r.db.Where("order_id = ?", orderID).Order("connection_number ASC").Find(&creds).Error
	return creds, err
}

// FindByOrderAndSlot returns the credential for one connection slot.
func (r *CredentialRepository) FindByOrderAndSlot(orderID uint, connectionNumber int) (*models.IptvCredential, error) {
	var cred models.IptvCredential
	err := r.db.Where("order_id = ? AND connection_number = ?", orderID, connectionNumber).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Create creates a new credential.
func (r *CredentialRepository) Create(cred *models.IptvCredential) error {
	return r.db.Create(cred).Error
}

// Update updates credential fields.
func (r *CredentialRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.IptvCredential{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes a credential.
func (r *CredentialRepository) Delete(id uint) error {
	return r.db.Delete(&models.IptvCredential{}, id).Error
}

// DeactivateExpired flips is_active off for credentials past their expiry
// and returns the number of rows touched.
func (r *CredentialRepository) DeactivateExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.IptvCredential{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// FindExpiringBetween returns active credentials whose expiry falls inside
// the window, for reminder emails.
func (r *CredentialRepository) FindExpiringBetween(from, to time.Time) ([]models.IptvCredential, error) {
	var creds []models.IptvCredential
	err := r.db.
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?", true, from, to).
		Find(&creds).Error
	return creds, err
}
