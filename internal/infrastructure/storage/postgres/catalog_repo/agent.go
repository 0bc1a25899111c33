package catalog_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/infrastructure/storage/postgres"
)

const agentsTable = "commission_agents"

var agentColumns = postgres.ExtractDBColumns[commission.Agent]()

// AgentRepo implements commission.Repository.
type AgentRepo struct {
	*BaseCatalogRepo[commission.Agent]
	now func() time.Time
}

var _ commission.Repository = (*AgentRepo)(nil)

// NewAgentRepo creates a new commission agent repository.
func NewAgentRepo(txManager *postgres.TxManager) *AgentRepo {
	return &AgentRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[commission.Agent](txManager, agentsTable, "commission agent", agentColumns),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// GetByID retrieves an agent by ID.
func (r *AgentRepo) GetByID(ctx context.Context, agentID id.ID) (*commission.Agent, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": agentID}), agentID.String())
}

// FindByMobile retrieves an agent by normalized mobile number.
func (r *AgentRepo) FindByMobile(ctx context.Context, mobile string) (*commission.Agent, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"mobile_number": mobile}), mobile)
}

func (r *AgentRepo) ensureQuery(a *commission.Agent) squirrel.InsertBuilder {
	// The no-op update makes RETURNING yield the existing row on conflict.
	return r.insertQuery(a, agentColumns).
		Suffix("ON CONFLICT (mobile_number) DO UPDATE SET mobile_number = EXCLUDED.mobile_number").
		Suffix("RETURNING " + strings.Join(agentColumns, ", "))
}

// Ensure inserts the agent unless the mobile number is taken and returns the stored row.
func (r *AgentRepo) Ensure(ctx context.Context, a *commission.Agent) (*commission.Agent, error) {
	if id.IsNil(a.ID) {
		a.ID = id.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
		a.UpdatedAt = a.CreatedAt
	}

	sql, args, err := r.ensureQuery(a).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	var stored commission.Agent
	if err := pgxscan.Get(ctx, r.querier(ctx), &stored, sql, args...); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("ensure agent: %w", err))
	}
	return &stored, nil
}

func (r *AgentRepo) addCommissionQuery(agentID id.ID, amount types.Money) squirrel.UpdateBuilder {
	return r.Builder().
		Update(agentsTable).
		Set("total_commission_paid", squirrel.Expr("total_commission_paid + ?", amount)).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": agentID})
}

// AddCommission atomically increments the agent's running total.
func (r *AgentRepo) AddCommission(ctx context.Context, agentID id.ID, amount types.Money) error {
	sql, args, err := r.addCommissionQuery(agentID, amount).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("add commission: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("commission agent", agentID.String())
	}
	return nil
}
