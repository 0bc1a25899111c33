package catalog_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
)

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func TestProductRepo_TakeOnHandIsConditional(t *testing.T) {
	repo := NewProductRepo(nil)
	repo.now = func() time.Time { return fixedNow }
	productID := id.New()

	sql, args, err := repo.takeOnHandQuery(productID, 3).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE products SET on_hand_quantity = on_hand_quantity - $1, updated_at = $2 WHERE id = $3 AND on_hand_quantity >= $4",
		sql)
	assert.Equal(t, []any{3, fixedNow, productID, 3}, args)
}

func TestProductRepo_SetOnHand(t *testing.T) {
	repo := NewProductRepo(nil)
	repo.now = func() time.Time { return fixedNow }
	productID := id.New()

	sql, args, err := repo.setOnHandQuery(productID, 4).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE products SET on_hand_quantity = $1, updated_at = $2 WHERE id = $3",
		sql)
	assert.Equal(t, []any{4, fixedNow, productID}, args)
}

func TestProductRepo_SelectColumns(t *testing.T) {
	repo := NewProductRepo(nil)

	sql, _, err := repo.baseSelect().ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, sku, name, category, ah_va, warranty, mrp, dealer_price, on_hand_quantity, created_at, updated_at FROM products",
		sql)
}

func TestCustomerRepo_FindByEmailIsCaseInsensitiveAndCustomerOnly(t *testing.T) {
	repo := NewCustomerRepo(nil)

	sql, args, err := repo.customerSelect().Where("lower(u.email) = lower(?)", "Asha@Example.com").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM users u JOIN customer_profiles p ON p.user_id = u.id")
	assert.Contains(t, sql, "WHERE u.role = $1 AND lower(u.email) = lower($2)")
	assert.Equal(t, []any{customer.RoleCustomer, "Asha@Example.com"}, args)
}

func TestCustomerRepo_MergeProfileKeepsStoredValuesForBlanks(t *testing.T) {
	repo := NewCustomerRepo(nil)
	repo.now = func() time.Time { return fixedNow }
	customerID := id.New()

	sql, args, err := repo.mergeProfileQuery(customerID, customer.BusinessDetails{
		CompanyName: "  Sharma Motors ",
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE customer_profiles SET company_name = COALESCE(NULLIF($1, ''), company_name), "+
			"gst_number = COALESCE(NULLIF($2, ''), gst_number), "+
			"business_address = COALESCE(NULLIF($3, ''), business_address), "+
			"updated_at = $4 WHERE user_id = $5",
		sql)
	assert.Equal(t, []any{"Sharma Motors", "", "", fixedNow, customerID}, args)
	assert.NotContains(t, sql, "classification")
}

func TestCustomerRepo_CreateWritesIdentityAndProfile(t *testing.T) {
	repo := NewCustomerRepo(nil)
	c := &customer.Customer{
		ID:             id.New(),
		Name:           "Asha",
		Email:          "asha@example.com",
		Phone:          "9876543210",
		Role:           customer.RoleCustomer,
		Classification: customer.ClassificationIndividual,
	}

	queries, err := repo.createQueries(c)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Contains(t, queries[0].SQL, "INSERT INTO users (id,name,email,phone,role,password_hash,must_reset_password,created_at,updated_at)")
	assert.Contains(t, queries[1].SQL, "INSERT INTO customer_profiles (user_id,classification,company_name,gst_number,business_address,updated_at)")
	assert.Equal(t, c.ID, queries[1].Args[0])
	assert.Equal(t, customer.ClassificationIndividual, queries[1].Args[1])
}

func TestCustomerRepo_UpdateContactNeverTouchesStaff(t *testing.T) {
	repo := NewCustomerRepo(nil)
	c := &customer.Customer{ID: id.New(), Name: "Asha", Email: "a@x.in", Phone: "9876543210", UpdatedAt: fixedNow}

	sql, args, err := repo.updateContactQuery(c).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE users SET name = $1, email = $2, phone = $3, updated_at = $4 WHERE id = $5 AND role = $6", sql)
	assert.Equal(t, customer.RoleCustomer, args[5])
}

func TestAgentRepo_EnsureReturnsStoredRow(t *testing.T) {
	repo := NewAgentRepo(nil)
	a := &commission.Agent{
		ID:                  id.New(),
		Name:                "Ravi",
		MobileNumber:        "9123456780",
		TotalCommissionPaid: types.Zero(),
		CreatedAt:           fixedNow,
		UpdatedAt:           fixedNow,
	}

	sql, args, err := repo.ensureQuery(a).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO commission_agents (created_at,id,mobile_number,name,total_commission_paid,updated_at) VALUES ($1,$2,$3,$4,$5,$6)")
	assert.Contains(t, sql, "ON CONFLICT (mobile_number) DO UPDATE SET mobile_number = EXCLUDED.mobile_number")
	assert.Contains(t, sql, "RETURNING id, name, mobile_number, total_commission_paid, created_at, updated_at")
	assert.Len(t, args, 6)
}

func TestAgentRepo_AddCommissionIsAtomicIncrement(t *testing.T) {
	repo := NewAgentRepo(nil)
	repo.now = func() time.Time { return fixedNow }
	agentID := id.New()
	amount := types.MustMoney("150.00")

	sql, args, err := repo.addCommissionQuery(agentID, amount).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE commission_agents SET total_commission_paid = total_commission_paid + $1, updated_at = $2 WHERE id = $3",
		sql)
	assert.Equal(t, []any{amount, fixedNow, agentID}, args)
}
