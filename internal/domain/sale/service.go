package sale

import (
	"context"
	"errors"
	"strings"
	"time"

	"batteryshop/internal/core/apperror"
	appctx "batteryshop/internal/core/context"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/numerator"
	"batteryshop/internal/core/tx"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/domain/pricing"
	"batteryshop/internal/domain/stock"
	"batteryshop/pkg/logger"
)

// Deps are the collaborators of the sale service.
type Deps struct {
	TxManager tx.Manager
	Products  catalog.Repository
	Allocator *stock.Allocator
	Customers *customer.Resolver
	Agents    *commission.Resolver
	Lines     Repository
	Numerator numerator.Generator

	// InvoiceConfig defaults to numerator.InvoiceConfig("INV").
	InvoiceConfig  numerator.Config
	InvoiceOptions *numerator.Options

	// Audit is optional.
	Audit AuditRecorder
	// Events is optional.
	Events EventPublisher
	// Observer is optional.
	Observer Observer
}

// Service runs sale transactions.
type Service struct {
	txManager tx.Manager
	products  catalog.Repository
	allocator *stock.Allocator
	customers *customer.Resolver
	agents    *commission.Resolver
	lines     Repository
	numerator numerator.Generator

	invoiceCfg  numerator.Config
	invoiceOpts *numerator.Options

	audit    AuditRecorder
	events   EventPublisher
	observer Observer
	now      func() time.Time
}

// NewService creates a new sale service.
func NewService(d Deps) *Service {
	cfg := d.InvoiceConfig
	if cfg.Prefix == "" {
		cfg = numerator.InvoiceConfig("INV")
	}
	opts := d.InvoiceOptions
	if opts == nil {
		opts = numerator.DefaultOptions()
	}

	return &Service{
		txManager:   d.TxManager,
		products:    d.Products,
		allocator:   d.Allocator,
		customers:   d.Customers,
		agents:      d.Agents,
		lines:       d.Lines,
		numerator:   d.Numerator,
		invoiceCfg:  cfg,
		invoiceOpts: opts,
		audit:       d.Audit,
		events:      d.Events,
		observer:    d.Observer,
		now:         time.Now,
	}
}

// Submit validates and executes a sale as one unit of work.
// Either every line is committed under one invoice number, or nothing is written.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	r := newRun(s.observer)

	p, err := validate(req)
	if err != nil {
		r.abort(ctx, err)
		return nil, err
	}

	var result *Result
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.execute(ctx, r, p)
		return err
	})
	if err != nil {
		err = s.classify(ctx, err)
		r.abort(ctx, err)
		return nil, err
	}

	r.to(ctx, StateCommitted, 0)
	logger.Info(ctx, "sale committed",
		"invoice", result.InvoiceNumber,
		"customer_id", result.Customer.ID,
		"customer_created", result.CustomerWasCreated,
		"units", len(result.LineItems),
		"final_total", result.Totals.Final.StringFixed(2))

	return result, nil
}

func (s *Service) execute(ctx context.Context, r *run, p *plan) (*Result, error) {
	cust, created, err := s.customers.Resolve(ctx, p.identity)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFields(ctx, "customer_id", cust.ID)
	r.to(ctx, StateCustomerResolved, 0)

	var (
		agent  *commission.Agent
		shares []types.Money
	)
	if p.agent != nil {
		agent, err = s.agents.Resolve(ctx, *p.agent)
		if err != nil {
			return nil, err
		}
		shares = commission.Distribute(p.commission, p.totalUnits)
	}

	now := s.now()
	actor := appctx.GetUserID(ctx)
	lines := make([]LineItem, 0, p.totalUnits)

	for i, pl := range p.lines {
		r.to(ctx, StatePerLineProcessing, i+1)

		product, err := s.products.GetByID(ctx, pl.productID)
		if err != nil {
			return nil, err
		}
		if product.Category != pl.category {
			return nil, apperror.NewValidation("product does not belong to the declared category").
				WithDetail("line", i+1).
				WithDetail("productId", product.ID.String()).
				WithDetail("category", string(pl.category))
		}

		alloc, err := s.allocator.Allocate(ctx, product, pl.item.Quantity, pl.item.Serials)
		if err != nil {
			return nil, err
		}

		amounts := pricing.ForLine(pl.item.MRP, pl.item.Discount, pl.item.FinalAmount, pl.item.Quantity)
		vehicle := optional(pl.item.VehicleNumber)

		for k, u := range alloc.Units {
			li := LineItem{
				ID:               id.New(),
				CustomerID:       cust.ID,
				ProductID:        product.ID,
				StockUnitID:      u.UnitID,
				SerialNumber:     u.SerialNumber,
				Category:         product.Category,
				UnitMRP:          amounts.UnitMRP,
				UnitBasePrice:    amounts.UnitBasePrice,
				UnitTax:          amounts.UnitTax,
				UnitDiscount:     amounts.Discounts[k],
				UnitFinalAmount:  amounts.FinalAmounts[k],
				SaleChannel:      p.channel,
				PaymentMethod:    p.paymentMethod,
				VehicleNumber:    vehicle,
				CommissionAmount: types.Zero(),
				SoldBy:           actor,
				CreatedAt:        now,
			}
			if agent != nil {
				li.HasCommission = true
				li.AgentID = &agent.ID
				li.CommissionAmount = shares[len(lines)]
			}
			lines = append(lines, li)
		}
	}

	r.to(ctx, StateCommitting, 0)

	number, err := s.numerator.GetNextNumber(ctx, s.invoiceCfg, s.invoiceOpts, now)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFields(ctx, "invoice", number)
	for i := range lines {
		lines[i].InvoiceNumber = number
		lines[i].LineNo = i + 1
	}

	if err := s.lines.CreateLines(ctx, lines); err != nil {
		return nil, err
	}

	if agent != nil {
		if err := s.agents.Accrue(ctx, agent.ID, p.commission); err != nil {
			return nil, err
		}
		agent.TotalCommissionPaid = agent.TotalCommissionPaid.Add(p.commission)
	}

	totals := SumLines(lines)
	if s.audit != nil {
		changes := map[string]any{
			"customerId": cust.ID.String(),
			"channel":    string(p.channel),
			"units":      totals.Units,
			"final":      totals.Final.StringFixed(2),
			"lines":      lines,
		}
		if err := s.audit.Record(ctx, "sale", number, "create", changes); err != nil {
			return nil, err
		}
	}

	if s.events != nil {
		ev := CompletedEvent{
			InvoiceNumber:      number,
			CustomerID:         cust.ID,
			CustomerWasCreated: created,
			SaleChannel:        p.channel,
			SoldBy:             actor,
			Units:              totals.Units,
			Final:              totals.Final,
			Commission:         totals.Commission,
			CreatedAt:          now,
		}
		if agent != nil {
			ev.AgentID = &agent.ID
		}
		if err := s.events.Emit(ctx, "sale", number, EventCompleted, ev); err != nil {
			return nil, err
		}
	}

	return &Result{
		InvoiceNumber:      number,
		LineItems:          lines,
		Customer:           cust,
		CustomerWasCreated: created,
		Agent:              agent,
		Totals:             totals,
	}, nil
}

// classify maps a failed unit of work onto the error taxonomy.
func (s *Service) classify(ctx context.Context, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Code == apperror.CodeInternal {
			logger.Error(ctx, "sale failed", "error", err)
		}
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(ctx, "sale cancelled, rolled back", "error", err)
		return apperror.NewInternal(err)
	}
	logger.Error(ctx, "sale failed", "error", err)
	return apperror.NewInternal(err)
}

// GetInvoice returns the invoice aggregated from its lines.
func (s *Service) GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, apperror.NewValidation("invoice number is required")
	}
	lines, err := s.lines.ListByInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.NewNotFound("invoice", invoiceNumber)
	}
	return NewInvoice(lines), nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
