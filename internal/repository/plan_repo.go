package repository

import (
	"gorm.io/gorm"

	"streamvault/internal/models"
)

// PlanRepository handles plan and plan pricing database operations.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// FindByID returns a plan with its pricing rows.
func (r *PlanRepository) FindByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Preload("Pricing").First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindAll returns plans with pricing, optionally only active ones.
func (r *PlanRepository) FindAll(activeOnly bool) ([]models.Plan, error) {
	var plans []models.Plan
	db := r.db.Preload("Pricing").Order("id ASC")
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Find(&plans).Error
	return plans, err
}

// Create creates a new plan.
func (r *PlanRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

// Update updates plan fields.
func (r *PlanRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Plan{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes a plan and its pricing rows.
func (r *PlanRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&models.PlanPricing{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Plan{}, id).Error
	})
}

// ReplacePricing swaps the full price list of a plan in one transaction.
func (r *PlanRepository) ReplacePricing(planID uint, rows []models.PlanPricing) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanPricing{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// PriceFor returns the configured price for a (plan, connections) pair.
func (r *PlanRepository) PriceFor(planID uint, connections int) (string, error) {
	var row models.PlanPricing
	if err := r.db.Where("plan_id = ? AND connections = ?", planID, connections).First(&row).Error; err != nil {
		return "", err
	}
	return row.Price, nil
}
