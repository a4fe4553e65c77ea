package service

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamvault/internal/models"
)

// PlanService carries the public plan catalogue reads and the admin CRUD.
type PlanService struct {
	plans    PlanStore
	activity ActivityStore
	logger   *zap.Logger
}

func NewPlanService(plans PlanStore, activity ActivityStore, logger *zap.Logger) *PlanService {
	return &PlanService{plans: plans, activity: activity, logger: logger}
}

// List returns plans with their pricing rows. Public.
func (s *PlanService) List(activeOnly bool) ([]models.Plan, error) {
	plans, err := s.plans.FindAll(activeOnly)
	if err != nil {
		return nil, Internal("list plans", err)
	}
	return plans, nil
}

// Get returns one plan with pricing, or nil when it does not exist.
// Queries return null rather than failing on a missing id.
func (s *PlanService) Get(id uint) (*models.Plan, error) {
	plan, err := s.plans.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, Internal("load plan", err)
	}
	return plan, nil
}

// Create inserts a plan and its per-connection price rows. Admin only.
func (s *PlanService) Create(caller Caller, plan *models.Plan, pricing []models.PlanPricing) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage plans")
	}
	if err := validatePlan(plan, pricing); err != nil {
		return err
	}
	if err := s.plans.Create(plan); err != nil {
		return Internal("create plan", err)
	}
	for i := range pricing {
		pricing[i].PlanID = plan.ID
	}
	if err := s.plans.ReplacePricing(plan.ID, pricing); err != nil {
		return Internal("store plan pricing", err)
	}
	s.logActivity(caller, "plan_created", plan.ID, map[string]interface{}{"name": plan.Name})
	return nil
}

// Update applies field updates and, when pricing is non-nil, replaces the
// full price list for the plan. Admin only.
func (s *PlanService) Update(caller Caller, id uint, updates map[string]interface{}, pricing []models.PlanPricing) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage plans")
	}
	if _, err := s.plans.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("plan %d not found", id)
		}
		return Internal("load plan", err)
	}
	if len(updates) > 0 {
		if err := s.plans.Update(id, updates); err != nil {
			return Internal("update plan", err)
		}
	}
	if pricing != nil {
		for i := range pricing {
			pricing[i].PlanID = id
			if pricing[i].Connections < 1 || pricing[i].Connections > 10 {
				return Validationf("pricing connections must be between 1 and 10")
			}
		}
		if err := s.plans.ReplacePricing(id, pricing); err != nil {
			return Internal("store plan pricing", err)
		}
	}
	s.logActivity(caller, "plan_updated", id, updates)
	return nil
}

// Delete removes a plan. Admin only. Existing orders keep their snapshots.
func (s *PlanService) Delete(caller Caller, id uint) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage plans")
	}
	if err := s.plans.Delete(id); err != nil {
		return Internal("delete plan", err)
	}
	s.logActivity(caller, "plan_deleted", id, nil)
	return nil
}

func validatePlan(plan *models.Plan, pricing []models.PlanPricing) error {
	if plan.Name == "" {
		return Validationf("plan name is required")
	}
	if plan.DurationDays <= 0 {
		return Validationf("duration days must be positive")
	}
	if plan.MaxConnections < 1 || plan.MaxConnections > 10 {
		return Validationf("max connections must be between 1 and 10")
	}
	seen := make(map[int]bool, len(pricing))
	for _, p := range pricing {
		if p.Connections < 1 || p.Connections > 10 {
			return Validationf("pricing connections must be between 1 and 10")
		}
		if seen[p.Connections] {
			return Validationf("duplicate price for %d connections", p.Connections)
		}
		seen[p.Connections] = true
	}
	return nil
}

func (s *PlanService) logActivity(caller Caller, action string, planID uint, detail map[string]interface{}) {
	if err := s.activity.Append(action, "plan", planID, caller.UserID, detail); err != nil {
		s.logger.Warn("activity log append failed", zap.String("action", action), zap.Error(err))
	}
}
