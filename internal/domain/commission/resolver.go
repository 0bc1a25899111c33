package commission

import (
	"context"
	"strings"
	"time"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
	"batteryshop/pkg/logger"
)

// Resolver finds or creates the agent of a sale and accrues commission.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver creates a new resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// Resolve returns the referenced agent. An explicit id must exist; otherwise the agent
// is looked up by normalized mobile number and created on first encounter.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (*Agent, error) {
	if ref.AgentID != nil {
		return r.repo.GetByID(ctx, *ref.AgentID)
	}

	mobile, err := NormalizeMobile(ref.Mobile)
	if err != nil {
		return nil, err
	}

	a, err := r.repo.FindByMobile(ctx, mobile)
	if err == nil {
		return a, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = mobile
	}
	now := r.now()
	a, err = r.repo.Ensure(ctx, &Agent{
		ID:                  id.New(),
		Name:                name,
		MobileNumber:        mobile,
		TotalCommissionPaid: types.Zero(),
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "commission agent created", "agent_id", a.ID, "mobile", mobile)
	return a, nil
}

// Accrue adds amount to the agent's running total.
func (r *Resolver) Accrue(ctx context.Context, agentID id.ID, amount types.Money) error {
	if !amount.IsPositive() {
		return nil
	}
	return r.repo.AddCommission(ctx, agentID, amount)
}

// ValidateAmount rejects negative commission.
func ValidateAmount(amount types.Money) error {
	if amount.IsNegative() {
		return apperror.NewValidation("commission amount must not be negative").
			WithDetail("field", "commission.amount")
	}
	return nil
}

// Distribute spreads the sale commission evenly over units, 2 decimals half-up.
// Leftover paise go to the first units, one each, so the shares sum to amount exactly.
func Distribute(amount types.Money, units int) []types.Money {
	return types.SplitEvenly(amount, units)
}
