package catalog_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/infrastructure/storage/postgres"
)

const (
	usersTable            = "users"
	customerProfilesTable = "customer_profiles"
)

// customerFrom joins identities with their profile. Staff users have no profile row.
const customerFrom = usersTable + " u JOIN " + customerProfilesTable + " p ON p.user_id = u.id"

var customerColumns = []string{
	"u.id", "u.name", "u.email", "u.phone", "u.role",
	"u.password_hash", "u.must_reset_password",
	"p.classification", "p.company_name", "p.gst_number", "p.business_address",
	"u.created_at", "u.updated_at",
}

// CustomerRepo implements customer.Repository over users + customer_profiles.
type CustomerRepo struct {
	*BaseCatalogRepo[customer.Customer]
	now func() time.Time
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[customer.Customer](txManager, customerFrom, "customer", customerColumns),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (r *CustomerRepo) customerSelect() squirrel.SelectBuilder {
	return r.baseSelect().Where(squirrel.Eq{"u.role": customer.RoleCustomer})
}

// FindByEmail matches case-insensitively.
func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	email = strings.TrimSpace(email)
	q := r.customerSelect().Where("lower(u.email) = lower(?)", email)
	return r.getOne(ctx, q, email)
}

// FindByPhone matches exactly.
func (r *CustomerRepo) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	phone = strings.TrimSpace(phone)
	return r.getOne(ctx, r.customerSelect().Where(squirrel.Eq{"u.phone": phone}), phone)
}

func (r *CustomerRepo) createQueries(c *customer.Customer) ([]postgres.BatchQuery, error) {
	userSQL, userArgs, err := r.Builder().
		Insert(usersTable).
		Columns("id", "name", "email", "phone", "role", "password_hash", "must_reset_password", "created_at", "updated_at").
		Values(c.ID, c.Name, c.Email, c.Phone, c.Role, c.PasswordHash, c.MustResetPassword, c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user insert: %w", err)
	}

	profileSQL, profileArgs, err := r.Builder().
		Insert(customerProfilesTable).
		Columns("user_id", "classification", "company_name", "gst_number", "business_address", "updated_at").
		Values(c.ID, c.Classification, c.CompanyName, c.GSTNumber, c.BusinessAddress, c.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profile insert: %w", err)
	}

	return []postgres.BatchQuery{
		{SQL: userSQL, Args: userArgs},
		{SQL: profileSQL, Args: profileArgs},
	}, nil
}

// Create inserts the identity and its profile in one round-trip.
// A concurrent insert of the same email or phone surfaces as CONFLICT.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
		c.UpdatedAt = c.CreatedAt
	}
	if c.Role == "" {
		c.Role = customer.RoleCustomer
	}

	queries, err := r.createQueries(c)
	if err != nil {
		return err
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return postgres.NewBatchInserter(r.txManager).ExecuteBatch(ctx, queries)
	})
}

func (r *CustomerRepo) updateContactQuery(c *customer.Customer) squirrel.UpdateBuilder {
	return r.Builder().
		Update(usersTable).
		Set("name", c.Name).
		Set("email", c.Email).
		Set("phone", c.Phone).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"role": customer.RoleCustomer})
}

// UpdateContact rewrites name, email and phone.
func (r *CustomerRepo) UpdateContact(ctx context.Context, c *customer.Customer) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = r.now()
	}
	sql, args, err := r.updateContactQuery(c).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("update customer: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("customer", c.ID.String())
	}
	return nil
}

// keepIfBlank writes v unless it is blank, in which case the stored value stays.
func keepIfBlank(col, v string) squirrel.Sqlizer {
	return squirrel.Expr(fmt.Sprintf("COALESCE(NULLIF(?, ''), %s)", col), strings.TrimSpace(v))
}

func (r *CustomerRepo) mergeProfileQuery(customerID id.ID, d customer.BusinessDetails) squirrel.UpdateBuilder {
	return r.Builder().
		Update(customerProfilesTable).
		Set("company_name", keepIfBlank("company_name", d.CompanyName)).
		Set("gst_number", keepIfBlank("gst_number", d.GSTNumber)).
		Set("business_address", keepIfBlank("business_address", d.BusinessAddress)).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"user_id": customerID})
}

// MergeBusinessProfile updates business fields keeping stored values where d is blank.
// Classification is not part of the statement.
func (r *CustomerRepo) MergeBusinessProfile(ctx context.Context, customerID id.ID, d customer.BusinessDetails) error {
	if d.IsEmpty() {
		return nil
	}

	sql, args, err := r.mergeProfileQuery(customerID, d).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("merge business profile: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("customer profile", customerID.String())
	}
	return nil
}
