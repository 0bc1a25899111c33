package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.ExtractDBColumns[catalog.Product]()

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[catalog.Product]
	now func() time.Time
}

var _ catalog.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[catalog.Product](txManager, productsTable, "product", productColumns),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": productID}), productID.String())
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"sku": sku}), sku)
}

// Create inserts a product. ID and timestamps are filled when zero.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now()
		p.UpdatedAt = p.CreatedAt
	}
	return r.BaseCatalogRepo.Create(ctx, p)
}

func (r *ProductRepo) takeOnHandQuery(productID id.ID, qty int) squirrel.UpdateBuilder {
	return r.Builder().
		Update(productsTable).
		Set("on_hand_quantity", squirrel.Expr("on_hand_quantity - ?", qty)).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.GtOrEq{"on_hand_quantity": qty})
}

// TakeOnHand decrements the counter only when enough is on hand.
func (r *ProductRepo) TakeOnHand(ctx context.Context, productID id.ID, qty int) error {
	sql, args, err := r.takeOnHandQuery(productID, qty).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("take on hand: %w", err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing updated: either the product is gone or the counter is short.
	p, err := r.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	return apperror.NewInsufficientStock(productID.String(), qty, p.OnHandQuantity).
		WithDetail("sku", p.SKU)
}

func (r *ProductRepo) setOnHandQuery(productID id.ID, qty int) squirrel.UpdateBuilder {
	return r.Builder().
		Update(productsTable).
		Set("on_hand_quantity", qty).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": productID})
}

// SetOnHand overwrites the counter. A negative qty is rejected by the check constraint.
func (r *ProductRepo) SetOnHand(ctx context.Context, productID id.ID, qty int) error {
	sql, args, err := r.setOnHandQuery(productID, qty).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("set on hand: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}
