// Package document_repo provides PostgreSQL storage for sale documents.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"batteryshop/internal/core/id"
	"batteryshop/internal/domain/sale"
	"batteryshop/internal/infrastructure/storage/postgres"
)

const saleLinesTable = "sale_line_items"

var saleLineColumns = postgres.ExtractDBColumns[sale.LineItem]()

// SaleLineRepo implements sale.Repository.
type SaleLineRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	now       func() time.Time
}

var _ sale.Repository = (*SaleLineRepo)(nil)

// NewSaleLineRepo creates a new sale line repository.
func NewSaleLineRepo(txManager *postgres.TxManager) *SaleLineRepo {
	return &SaleLineRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *SaleLineRepo) rows(lines []sale.LineItem) [][]any {
	now := r.now()
	rows := make([][]any, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		if id.IsNil(l.ID) {
			l.ID = id.New()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		rows = append(rows, postgres.RowValues(l, saleLineColumns))
	}
	return rows
}

// CreateLines writes all lines of an invoice with COPY inside the sale transaction.
// Duplicate (invoice_number, line_no) or stock_unit_id rows fail with CONFLICT.
func (r *SaleLineRepo) CreateLines(ctx context.Context, lines []sale.LineItem) error {
	if len(lines) == 0 {
		return nil
	}

	rows := r.rows(lines)
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inserter := postgres.NewBatchInserter(r.txManager)
		n, err := inserter.CopyFromSlice(ctx, saleLinesTable, saleLineColumns, rows)
		if err != nil {
			return fmt.Errorf("copy sale lines: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy sale lines: wrote %d of %d rows", n, len(rows))
		}
		return nil
	})
}

func (r *SaleLineRepo) listByInvoiceQuery(invoiceNumber string) squirrel.SelectBuilder {
	return r.builder.
		Select(saleLineColumns...).
		From(saleLinesTable).
		Where(squirrel.Eq{"invoice_number": invoiceNumber}).
		OrderBy("line_no")
}

// ListByInvoice returns the lines of an invoice ordered by line number.
// An unknown invoice yields an empty slice.
func (r *SaleLineRepo) ListByInvoice(ctx context.Context, invoiceNumber string) ([]sale.LineItem, error) {
	sql, args, err := r.listByInvoiceQuery(invoiceNumber).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.LineItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	return lines, nil
}
