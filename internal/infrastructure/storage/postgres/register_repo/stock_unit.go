// Package register_repo provides the PostgreSQL stock unit register.
package register_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"batteryshop/internal/core/id"
	"batteryshop/internal/domain/stock"
	"batteryshop/internal/infrastructure/storage/postgres"
)

const stockUnitsTable = "stock_units"

var (
	unitColumns = postgres.ExtractDBColumns[stock.Unit]()
	// seq is assigned by the database.
	unitInsertColumns = postgres.Without(unitColumns, "seq")
)

// fifoOrder is the allocation order of available units.
const fifoOrder = "acquired_at, purchase_date NULLS LAST, seq"

// claimOldestSQL claims the oldest available units in one statement. Rows locked by a
// concurrent sale are skipped rather than waited on, so two sales never get the same unit.
var claimOldestSQL = `
	UPDATE ` + stockUnitsTable + ` u
	SET status = $3, sold_at = $4
	FROM (
		SELECT id FROM ` + stockUnitsTable + `
		WHERE product_id = $1 AND status = $5
		ORDER BY ` + fifoOrder + `
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	) picked
	WHERE u.id = picked.id
	RETURNING ` + qualified("u", unitColumns)

func qualified(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// StockUnitRepo implements stock.Repository.
type StockUnitRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	now       func() time.Time
}

var _ stock.Repository = (*StockUnitRepo)(nil)

// NewStockUnitRepo creates a new stock unit repository.
func NewStockUnitRepo(txManager *postgres.TxManager) *StockUnitRepo {
	return &StockUnitRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ClaimOldest marks up to qty of the oldest available units sold.
func (r *StockUnitRepo) ClaimOldest(ctx context.Context, productID id.ID, qty int, soldAt time.Time) ([]stock.Unit, error) {
	var units []stock.Unit
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &units, claimOldestSQL,
		productID, qty, stock.StatusSold, soldAt, stock.StatusAvailable)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("claim oldest units: %w", err))
	}

	// UPDATE ... RETURNING does not preserve the subquery order.
	stock.SortFIFO(units)
	return units, nil
}

func (r *StockUnitRepo) claimSerialsQuery(productID id.ID, serials []string, soldAt time.Time) squirrel.UpdateBuilder {
	return r.builder.
		Update(stockUnitsTable).
		Set("status", stock.StatusSold).
		Set("sold_at", soldAt).
		Where(squirrel.Eq{"product_id": productID}).
		Where("serial_number = ANY(?)", serials).
		Where(squirrel.Eq{"status": stock.StatusAvailable}).
		Suffix("RETURNING " + strings.Join(unitColumns, ", "))
}

// ClaimSerials marks the named units sold when still available.
// Units already sold or missing are simply absent from the result.
func (r *StockUnitRepo) ClaimSerials(ctx context.Context, productID id.ID, serials []string, soldAt time.Time) ([]stock.Unit, error) {
	if len(serials) == 0 {
		return nil, nil
	}

	sql, args, err := r.claimSerialsQuery(productID, serials, soldAt).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build claim: %w", err)
	}

	var units []stock.Unit
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &units, sql, args...); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("claim serials: %w", err))
	}
	return units, nil
}

// CountAvailable returns the number of available units of the product.
func (r *StockUnitRepo) CountAvailable(ctx context.Context, productID id.ID) (int, error) {
	sql, args, err := r.builder.
		Select("count(*)").
		From(stockUnitsTable).
		Where(squirrel.Eq{"product_id": productID, "status": stock.StatusAvailable}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count available units: %w", err)
	}
	return n, nil
}

func (r *StockUnitRepo) listAvailableQuery(productID id.ID, limit int) squirrel.SelectBuilder {
	q := r.builder.
		Select(unitColumns...).
		From(stockUnitsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"status": stock.StatusAvailable}).
		OrderBy(fifoOrder)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

// ListAvailable returns available units in FIFO order. limit <= 0 means no limit.
func (r *StockUnitRepo) ListAvailable(ctx context.Context, productID id.ID, limit int) ([]stock.Unit, error) {
	sql, args, err := r.listAvailableQuery(productID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var units []stock.Unit
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &units, sql, args...); err != nil {
		return nil, fmt.Errorf("list available units: %w", err)
	}
	return units, nil
}

func (r *StockUnitRepo) prepareUnits(units []stock.Unit) [][]any {
	now := r.now()
	rows := make([][]any, 0, len(units))
	for i := range units {
		u := &units[i]
		if id.IsNil(u.ID) {
			u.ID = id.New()
		}
		if u.Status == "" {
			u.Status = stock.StatusAvailable
		}
		if u.AcquiredAt.IsZero() {
			u.AcquiredAt = now
		}
		rows = append(rows, postgres.RowValues(u, unitInsertColumns))
	}
	return rows
}

// CreateUnits inserts units. Inside a transaction the COPY protocol is used.
func (r *StockUnitRepo) CreateUnits(ctx context.Context, units []stock.Unit) error {
	if len(units) == 0 {
		return nil
	}
	rows := r.prepareUnits(units)

	if r.txManager.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, stockUnitsTable, unitInsertColumns, rows); err != nil {
			return fmt.Errorf("copy stock units: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockUnitsTable).Columns(unitInsertColumns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert stock units: %w", err))
	}
	return nil
}
