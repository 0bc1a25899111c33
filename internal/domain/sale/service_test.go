package sale

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batteryshop/internal/core/apperror"
	appctx "batteryshop/internal/core/context"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/numerator"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/domain/stock"
)

var (
	saleDay = time.Date(2026, 10, 16, 11, 30, 0, 0, time.UTC)
	t0      = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	store       *memStore
	audit       *auditLog
	events      *eventLog
	svc         *Service
	transitions []State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{store: newMemStore(), audit: &auditLog{}, events: &eventLog{}}
	products := productRepo{f.store}
	resolver := customer.NewResolver(customerRepo{f.store})

	f.svc = NewService(Deps{
		TxManager: f.store,
		Products:  products,
		Allocator: stock.NewAllocator(unitRepo{f.store}, products),
		Customers: resolver,
		Agents:    commission.NewResolver(agentRepo{f.store}),
		Lines:     lineRepo{f.store},
		Numerator: &numerator.MockGenerator{},
		Audit:     f.audit,
		Events:    f.events,
		Observer: func(_, to State, _ int) {
			f.transitions = append(f.transitions, to)
		},
	})
	f.svc.now = func() time.Time { return saleDay }
	return f
}

func item(p catalog.Product, qty int, final string) Item {
	return Item{
		ProductID:   p.ID.String(),
		Category:    string(p.Category),
		Quantity:    qty,
		MRP:         p.MRP,
		Discount:    types.Zero(),
		FinalAmount: types.MustMoney(final),
	}
}

func retailRequest(items ...Item) Request {
	return Request{
		CustomerName:   "Ravi",
		CustomerMobile: "9000000001",
		Channel:        customer.ChannelRetail,
		PaymentMethod:  "upi",
		Items:          items,
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryCarTruckTractor, "1180", 3)
	f.store.addUnit(bat.ID, "SN-C", t0.Add(3*time.Hour))
	f.store.addUnit(bat.ID, "SN-A", t0.Add(1*time.Hour))
	f.store.addUnit(bat.ID, "SN-B", t0.Add(2*time.Hour))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "clerk-1"})
	res, err := f.svc.Submit(ctx, retailRequest(item(bat, 2, "2000")))
	require.NoError(t, err)

	assert.Equal(t, "INV-20261016-0001", res.InvoiceNumber)
	assert.True(t, res.CustomerWasCreated)
	assert.Equal(t, customer.ClassificationIndividual, res.Customer.Classification)
	assert.Equal(t, "9000000001@customer.local", res.Customer.Email)
	require.Len(t, f.store.customers, 1)

	require.Len(t, res.LineItems, 2)
	for i, l := range res.LineItems {
		assert.Equal(t, res.InvoiceNumber, l.InvoiceNumber)
		assert.Equal(t, i+1, l.LineNo)
		assert.Equal(t, "1000.00", l.UnitFinalAmount.StringFixed(2))
		assert.Equal(t, "180.00", l.UnitTax.StringFixed(2))
		assert.Equal(t, "1180.00", l.UnitMRP.StringFixed(2))
		assert.Equal(t, customer.ChannelRetail, l.SaleChannel)
		assert.Equal(t, "upi", l.PaymentMethod)
		assert.Equal(t, "clerk-1", l.SoldBy)
		assert.False(t, l.HasCommission)
		assert.Nil(t, l.AgentID)
	}
	assert.Equal(t, "SN-A", res.LineItems[0].SerialNumber)
	assert.Equal(t, "SN-B", res.LineItems[1].SerialNumber)

	assert.Equal(t, 1, f.store.onHand(bat.ID))
	assert.Equal(t, stock.StatusSold, f.store.unitStatus("SN-A"))
	assert.Equal(t, stock.StatusSold, f.store.unitStatus("SN-B"))
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("SN-C"))
	assert.Len(t, f.store.linesFor(res.InvoiceNumber), 2)
	assert.Equal(t, "2000.00", res.Totals.Final.StringFixed(2))
	assert.Equal(t, []string{"sale:INV-20261016-0001:create"}, f.audit.entries)

	assert.Equal(t, []State{
		StateCustomerResolved,
		StatePerLineProcessing,
		StateCommitting,
		StateCommitted,
	}, f.transitions)
}

func TestSubmit_AtomicWhenSecondLineFails(t *testing.T) {
	f := newFixture(t)
	a := f.store.addProduct("BAT-A", catalog.CategoryBike, "2360", 1)
	b := f.store.addProduct("BAT-B", catalog.CategoryUPSInverter, "5900", 0)
	w := f.store.addProduct("WATER-5L", catalog.CategoryWater, "118", 10)
	f.store.addUnit(a.ID, "A-1", t0)

	_, err := f.svc.Submit(context.Background(), retailRequest(
		item(a, 1, "2300"),
		item(b, 1, "5800"),
		item(w, 2, "200"),
	))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Empty(t, f.store.lines)
	assert.Empty(t, f.store.customers)
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("A-1"))
	assert.Equal(t, 1, f.store.onHand(a.ID))
	assert.Equal(t, 0, f.store.onHand(b.ID))
	assert.Equal(t, 10, f.store.onHand(w.ID))
	assert.Empty(t, f.audit.entries)
	assert.Equal(t, StateAborted, f.transitions[len(f.transitions)-1])
}

func TestSubmit_ConcurrentSalesForLastUnit(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryCarTruckTractor, "1180", 1)
	f.store.addUnit(bat.ID, "LAST-1", t0)
	f.svc.observer = nil

	const contenders = 2
	var (
		wg   sync.WaitGroup
		errs = make([]error, contenders)
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := retailRequest(item(bat, 1, "1180"))
			req.CustomerMobile = []string{"9000000001", "9000000002"}[i]
			_, errs[i] = f.svc.Submit(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsInsufficientStock(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)
	assert.Len(t, f.store.lines, 1)
	assert.Equal(t, 0, f.store.onHand(bat.ID))
}

func TestSubmit_CommissionDistribution(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryCarTruckTractor, "1180", 3)
	for i, s := range []string{"S1", "S2", "S3"} {
		f.store.addUnit(bat.ID, s, t0.Add(time.Duration(i)*time.Hour))
	}

	req := retailRequest(item(bat, 3, "3540"))
	req.Commission = &CommissionRequest{AgentName: "Raju", AgentMobile: "+91 98765 43210", Amount: types.MustMoney("300.00")}

	res, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.LineItems, 3)
	total := types.Zero()
	for _, l := range res.LineItems {
		assert.True(t, l.HasCommission)
		require.NotNil(t, l.AgentID)
		assert.Equal(t, res.Agent.ID, *l.AgentID)
		assert.Equal(t, "100.00", l.CommissionAmount.StringFixed(2))
		total = total.Add(l.CommissionAmount)
	}
	assert.Equal(t, "300.00", total.StringFixed(2))
	assert.Equal(t, "9876543210", res.Agent.MobileNumber)
	assert.Equal(t, "300.00", f.store.agents[res.Agent.ID].TotalCommissionPaid.StringFixed(2))
}

func TestSubmit_CommissionRemainderSpreadByPaisa(t *testing.T) {
	f := newFixture(t)
	w := f.store.addProduct("WATER-1L", catalog.CategoryWater, "30", 10)

	req := retailRequest(item(w, 3, "90"))
	req.Commission = &CommissionRequest{AgentMobile: "9876543210", Amount: types.MustMoney("100")}

	res, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	got := []string{}
	for _, l := range res.LineItems {
		got = append(got, l.CommissionAmount.StringFixed(2))
	}
	assert.Equal(t, []string{"33.34", "33.33", "33.33"}, got)
	assert.Equal(t, "100.00", res.Totals.Commission.StringFixed(2))
}

func TestSubmit_UnknownAgentIDRollsBack(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 1)
	f.store.addUnit(bat.ID, "S1", t0)

	req := retailRequest(item(bat, 1, "1180"))
	req.Commission = &CommissionRequest{AgentID: id.New().String(), Amount: types.MustMoney("50")}

	_, err := f.svc.Submit(context.Background(), req)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.store.customers)
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("S1"))
}

func TestSubmit_ExistingCustomerMatchedByEmail(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 1)
	f.store.addUnit(bat.ID, "S1", t0)
	existing := customer.Customer{
		ID: id.New(), Name: "Ravi", Email: "ravi@mail.in", Phone: "9000000009",
		Role: customer.RoleCustomer, Classification: customer.ClassificationBusiness,
	}
	f.store.customers = append(f.store.customers, existing)

	req := retailRequest(item(bat, 1, "1180"))
	req.CustomerEmail = "RAVI@mail.in"

	res, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, res.CustomerWasCreated)
	assert.Equal(t, existing.ID, res.Customer.ID)
	assert.Equal(t, customer.ClassificationBusiness, res.Customer.Classification)
	assert.Len(t, f.store.customers, 1)
}

func TestSubmit_Water(t *testing.T) {
	f := newFixture(t)
	w := f.store.addProduct("WATER-5L", catalog.CategoryWater, "118", 7)

	res, err := f.svc.Submit(context.Background(), retailRequest(item(w, 5, "500")))
	require.NoError(t, err)

	require.Len(t, res.LineItems, 5)
	for _, l := range res.LineItems {
		assert.Equal(t, stock.NonSerialMarker, l.SerialNumber)
		assert.Nil(t, l.StockUnitID)
		assert.Equal(t, "100.00", l.UnitFinalAmount.StringFixed(2))
	}
	assert.Equal(t, 2, f.store.onHand(w.ID))
	assert.Empty(t, f.store.units)
}

func TestSubmit_ManualSerials(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 3)
	f.store.addUnit(bat.ID, "S1", t0)
	f.store.addUnit(bat.ID, "S2", t0.Add(time.Hour))
	f.store.addUnit(bat.ID, "S3", t0.Add(2*time.Hour))

	it := item(bat, 1, "1100")
	it.Serials = stock.Selector{"S3"}
	it.VehicleNumber = "DL3CAB1234"

	res, err := f.svc.Submit(context.Background(), retailRequest(it))
	require.NoError(t, err)

	require.Len(t, res.LineItems, 1)
	assert.Equal(t, "S3", res.LineItems[0].SerialNumber)
	require.NotNil(t, res.LineItems[0].VehicleNumber)
	assert.Equal(t, "DL3CAB1234", *res.LineItems[0].VehicleNumber)
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("S1"))
}

func TestSubmit_CategoryMismatch(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 1)
	f.store.addUnit(bat.ID, "S1", t0)

	it := item(bat, 1, "1180")
	it.Category = "UPS/Inverter"

	_, err := f.svc.Submit(context.Background(), retailRequest(it))
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("S1"))
}

func TestSubmit_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	it := Item{ProductID: id.New().String(), Category: "bike", Quantity: 1,
		MRP: types.MustMoney("100"), FinalAmount: types.MustMoney("100")}

	_, err := f.svc.Submit(context.Background(), retailRequest(it))
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.store.customers)
}

func TestSubmit_PersistenceConflictRollsBack(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 1)
	f.store.addUnit(bat.ID, "S1", t0)
	f.store.failCreateLines = apperror.NewRetryConflict(errors.New("duplicate key"))

	_, err := f.svc.Submit(context.Background(), retailRequest(item(bat, 1, "1180")))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, apperror.RetryMessage, appErr.Message)
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("S1"))
	assert.Equal(t, 1, f.store.onHand(bat.ID))
	assert.Empty(t, f.store.customers)
}

func TestSubmit_UnexpectedErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 1)
	f.store.addUnit(bat.ID, "S1", t0)
	f.store.failCreateLines = errors.New("connection reset by peer")

	_, err := f.svc.Submit(context.Background(), retailRequest(item(bat, 1, "1180")))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)
	assert.Equal(t, "Internal server error", appErr.Message)
}

func TestSubmit_CancelledContextRollsBack(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 1)
	f.store.addUnit(bat.ID, "S1", t0)

	ctx, cancel := context.WithCancel(context.Background())
	f.svc.numerator = &numerator.MockGenerator{
		GetNextNumberFunc: func(context.Context, numerator.Config, *numerator.Options, time.Time) (string, error) {
			cancel()
			return "INV-20261016-0001", nil
		},
	}

	_, err := f.svc.Submit(ctx, retailRequest(item(bat, 1, "1180")))
	require.Error(t, err)
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("S1"))
	assert.Empty(t, f.store.lines)
}

func TestSubmit_ValidationNeverStartsTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), Request{CustomerName: "Ravi"})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, []State{StateAborted}, f.transitions)
}

func TestGetInvoice(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryBike, "1180", 2)
	f.store.addUnit(bat.ID, "S1", t0)
	f.store.addUnit(bat.ID, "S2", t0.Add(time.Hour))

	res, err := f.svc.Submit(context.Background(), retailRequest(item(bat, 2, "2000")))
	require.NoError(t, err)

	inv, err := f.svc.GetInvoice(context.Background(), res.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, res.InvoiceNumber, inv.InvoiceNumber)
	assert.Equal(t, 2, inv.Totals.Units)
	assert.Equal(t, "2000.00", inv.Totals.Final.StringFixed(2))
	assert.Equal(t, "360.00", inv.Totals.Tax.StringFixed(2))

	_, err = f.svc.GetInvoice(context.Background(), "INV-20261016-9999")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSubmit_EmitsCompletedEvent(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryCarTruckTractor, "1180", 2)
	f.store.addUnit(bat.ID, "SN-1", t0)
	f.store.addUnit(bat.ID, "SN-2", t0.Add(time.Hour))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "clerk-9"})
	res, err := f.svc.Submit(ctx, retailRequest(item(bat, 2, "2000")))
	require.NoError(t, err)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, res.InvoiceNumber, ev.InvoiceNumber)
	assert.Equal(t, res.Customer.ID, ev.CustomerID)
	assert.Equal(t, 2, ev.Units)
	assert.Equal(t, "clerk-9", ev.SoldBy)
	assert.Equal(t, "2000.00", ev.Final.StringFixed(2))
	assert.Nil(t, ev.AgentID)
}

func TestSubmit_EventFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	bat := f.store.addProduct("BAT-100", catalog.CategoryCarTruckTractor, "1180", 1)
	f.store.addUnit(bat.ID, "SN-1", t0)
	f.events.err = errors.New("outbox unavailable")

	_, err := f.svc.Submit(context.Background(), retailRequest(item(bat, 1, "1000")))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)

	assert.Empty(t, f.store.lines)
	assert.Equal(t, 1, f.store.onHand(bat.ID))
	assert.Equal(t, stock.StatusAvailable, f.store.unitStatus("SN-1"))
}
