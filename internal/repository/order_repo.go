package repository

import (
	"time"

	"gorm.io/gorm"

	"streamvault/internal/models"
)

// OrderRepository handles order database operations.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID returns an order by ID.
func (r *OrderRepository) FindByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNo returns an order by its public order number.
func (r *OrderRepository) FindByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindAll returns all orders, newest first, optionally filtered by status.
func (r *OrderRepository) FindAll(status string) ([]models.Order, error) {
	var orders []models.Order
	db := r.db.Order("created_at DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Find(&orders).Error
	return orders, err
}

// FindByUserID returns a user's orders, newest first.
func (r *OrderRepository) FindByUserID(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Create creates a new order.
func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update updates order fields.
func (r *OrderRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// TransitionFromPending applies updates only while the order is still
// pending. The status condition makes the terminal transition exclusive:
// concurrent verify/reject calls race on the same row and only the first
// one affects it.
func (r *OrderRepository) TransitionFromPending(id uint, updates map[string]interface{}) (int64, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CountCreatedSince counts orders created at or after t.
func (r *OrderRepository) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

// CountVerifiedSince counts orders verified at or after t.
func (r *OrderRepository) CountVerifiedSince(t time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("verified_at >= ?", t).Count(&count).Error
	return count, err
}
