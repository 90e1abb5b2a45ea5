package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

// PlanRepository reads the plan catalog. Plans are immutable once fetched;
// there is no write path here.
type PlanRepository struct {
	db DBTX
}

func NewPlanRepository(db DBTX) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) List(ctx context.Context) ([]*entity.Plan, error) {
	query := `
		SELECT id, code, name, monthly_price_cents, included_branches_count,
		       annual_discount_percent, created_at, updated_at
		FROM plans
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]*entity.Plan, 0)
	byID := make(map[uint64]*entity.Plan)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
		byID[plan.ID] = plan
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachAddons(ctx, byID); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id uint64) (*entity.Plan, error) {
	query := `
		SELECT id, code, name, monthly_price_cents, included_branches_count,
		       annual_discount_percent, created_at, updated_at
		FROM plans
		WHERE id = ?
	`

	plan := &entity.Plan{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.Code,
		&plan.Name,
		&plan.MonthlyPriceCents,
		&plan.IncludedBranchesCount,
		&plan.AnnualDiscountPercent,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachAddons(ctx, map[uint64]*entity.Plan{plan.ID: plan}); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *PlanRepository) attachAddons(ctx context.Context, plans map[uint64]*entity.Plan) error {
	if len(plans) == 0 {
		return nil
	}

	query := `
		SELECT id, plan_id, name, monthly_price_cents, pricing_scope, is_included,
		       created_at, updated_at
		FROM plan_addons
		ORDER BY plan_id ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		addon := &entity.AddonTemplate{}
		var scope string
		if err := rows.Scan(
			&addon.ID,
			&addon.PlanID,
			&addon.Name,
			&addon.MonthlyPriceCents,
			&scope,
			&addon.IsIncluded,
			&addon.CreatedAt,
			&addon.UpdatedAt,
		); err != nil {
			return err
		}
		addon.PricingScope = entity.PricingScope(scope)

		if plan, ok := plans[addon.PlanID]; ok {
			plan.Addons = append(plan.Addons, addon)
		}
	}
	return rows.Err()
}

func scanPlan(rows *sql.Rows) (*entity.Plan, error) {
	plan := &entity.Plan{}
	if err := rows.Scan(
		&plan.ID,
		&plan.Code,
		&plan.Name,
		&plan.MonthlyPriceCents,
		&plan.IncludedBranchesCount,
		&plan.AnnualDiscountPercent,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return plan, nil
}
