package repository

import (
	"gorm.io/gorm"

	"streamvault/internal/models"
)

// PaymentOptionRepository handles payment method and widget database
// operations.
type PaymentOptionRepository struct {
	db *gorm.DB
}

func NewPaymentOptionRepository(db *gorm.DB) *PaymentOptionRepository {
	return &PaymentOptionRepository{db: db}
}

// MethodsForPlan returns active methods covering the connection count,
// sorted by sort order.
func (r *PaymentOptionRepository) MethodsForPlan(planID uint, connections int) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.
		Where("plan_id = ? AND is_active = ? AND min_connections <= ? AND max_connections >= ?",
			planID, true, connections, connections).
		Order("sort_order ASC").
		Find(&methods).Error
	return methods, err
}

// WidgetForPlan returns the first active widget covering the connection
// count, or gorm.ErrRecordNotFound.
func (r *PaymentOptionRepository) WidgetForPlan(planID uint, connections int) (*models.PaymentWidget, error) {
	var widget models.PaymentWidget
	err := r.db.
		Where("plan_id = ? AND is_active = ? AND min_connections <= ? AND max_connections >= ?",
			planID, true, connections, connections).
		Order("id ASC").
		First(&widget).Error
	if err != nil {
		return nil, err
	}
	return &widget, nil
}

func (r *PaymentOptionRepository) FindMethodByID(id uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.First(&method, id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *PaymentOptionRepository) FindWidgetByID(id uint) (*models.PaymentWidget, error) {
	var widget models.PaymentWidget
	if err := r.db.First(&widget, id).Error; err != nil {
		return nil, err
	}
	return &widget, nil
}

func (r *PaymentOptionRepository) FindAllMethods() ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.Order("plan_id ASC, sort_order ASC").Find(&methods).Error
	return methods, err
}

func (r *PaymentOptionRepository) FindAllWidgets() ([]models.PaymentWidget, error) {
	var widgets []models.PaymentWidget
	err := r.db.Order("plan_id ASC, id ASC").Find(&widgets).Error
	return widgets, err
}

func (r *PaymentOptionRepository) CreateMethod(m *models.PaymentMethod) error {
	return r.db.Create(m).Error
}

func (r *PaymentOptionRepository) UpdateMethod(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.PaymentMethod{}).Where("id = ?", id).Updates(updates).Error
}

func (r *PaymentOptionRepository) DeleteMethod(id uint) error {
	return r.db.Delete(&models.PaymentMethod{}, id).Error
}

func (r *PaymentOptionRepository) CreateWidget(w *models.PaymentWidget) error {
	return r.db.Create(w).Error
}

func (r *PaymentOptionRepository) UpdateWidget(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.PaymentWidget{}).Where("id = ?", id).Updates(updates).Error
}

func (r *PaymentOptionRepository) DeleteWidget(id uint) error {
	return r.db.Delete(&models.PaymentWidget{}, id).Error
}
