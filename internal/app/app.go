// Package app wires the storage layer and domain services shared by the server,
// the worker and the operator CLI.
package app

import (
	"context"
	"fmt"

	"batteryshop/internal/config"
	"batteryshop/internal/domain/auth"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/domain/sale"
	"batteryshop/internal/domain/stock"
	"batteryshop/internal/infrastructure/numerator"
	"batteryshop/internal/infrastructure/storage/postgres"
	"batteryshop/internal/infrastructure/storage/postgres/catalog_repo"
	"batteryshop/internal/infrastructure/storage/postgres/document_repo"
	"batteryshop/internal/infrastructure/storage/postgres/register_repo"
	"batteryshop/pkg/logger"
)

// App holds the wired components.
type App struct {
	Config *config.Config

	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Products  *catalog_repo.ProductRepo
	Customers *catalog_repo.CustomerRepo
	Agents    *catalog_repo.AgentRepo
	Units     *register_repo.StockUnitRepo
	Lines     *document_repo.SaleLineRepo

	Sales       *sale.Service
	JWT         *auth.JWTService
	Outbox      *postgres.OutboxPublisher
	Idempotency *postgres.IdempotencyStore // nil when disabled
	Audit       *postgres.AuditService     // nil when disabled
}

// New connects to the database and builds every component.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a, err := build(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info(ctx, "application wired",
		"isolation", cfg.DB.IsolationLevel,
		"invoice_strategy", cfg.Invoice.Strategy,
		"idempotency", a.Idempotency != nil,
		"audit", a.Audit != nil)
	return a, nil
}

func build(cfg *config.Config, pool *postgres.Pool) (*App, error) {
	txm := postgres.NewTxManagerWithOptions(pool, cfg.TxOptions())

	a := &App{
		Config:    cfg,
		Pool:      pool,
		TxManager: txm,
		Products:  catalog_repo.NewProductRepo(txm),
		Customers: catalog_repo.NewCustomerRepo(txm),
		Agents:    catalog_repo.NewAgentRepo(txm),
		Units:     register_repo.NewStockUnitRepo(txm),
		Lines:     document_repo.NewSaleLineRepo(txm),
		JWT: auth.NewJWTService(auth.JWTConfig{
			Secret:         cfg.JWTSecret,
			Issuer:         auth.DefaultJWTConfig("").Issuer,
			AccessTokenTTL: cfg.JWTTTL,
		}),
		Outbox: postgres.NewOutboxPublisher(txm),
	}

	if cfg.Features.Idempotency {
		a.Idempotency = postgres.NewIdempotencyStore(txm, cfg.Features.IdempotencyTTL)
	}

	deps := sale.Deps{
		TxManager: txm,
		Products:  a.Products,
		Allocator: stock.NewAllocator(a.Units, a.Products),
		Customers: customer.NewResolver(a.Customers).WithHashCost(cfg.Sale.PasswordHashCost),
		Agents:    commission.NewResolver(a.Agents),
		Lines:     a.Lines,
		Numerator: numerator.New(txm),
		Events:    a.Outbox,
	}
	deps.InvoiceConfig, deps.InvoiceOptions = cfg.InvoiceNumbering()

	if cfg.Features.Audit {
		audit, err := postgres.NewAuditService(txm, cfg.Features.AuditCompressThreshold)
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		a.Audit = audit
		deps.Audit = audit
	}

	a.Sales = sale.NewService(deps)
	return a, nil
}

// Close releases the connection pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
