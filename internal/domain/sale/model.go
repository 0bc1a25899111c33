// Package sale implements the sale transaction: one request, one invoice, one line per unit.
package sale

import (
	"time"

	"github.com/shopspring/decimal"

	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
)

// Channel is the sale channel (retail or wholesale).
type Channel = customer.Channel

// DefaultPaymentMethod is recorded when the request names none.
const DefaultPaymentMethod = "cash"

// LineItem is one physical unit sold. Rows are immutable once written.
type LineItem struct {
	ID            id.ID            `db:"id" json:"id"`
	InvoiceNumber string           `db:"invoice_number" json:"invoiceNumber"`
	LineNo        int              `db:"line_no" json:"lineNo"`
	CustomerID    id.ID            `db:"customer_id" json:"customerId"`
	ProductID     id.ID            `db:"product_id" json:"productId"`
	StockUnitID   *id.ID           `db:"stock_unit_id" json:"stockUnitId,omitempty"`
	SerialNumber  string           `db:"serial_number" json:"serialNumber"`
	Category      catalog.Category `db:"category" json:"category"`

	UnitMRP         types.Money `db:"unit_mrp" json:"unitMrp"`
	UnitBasePrice   types.Money `db:"unit_base_price" json:"unitBasePrice"`
	UnitTax         types.Money `db:"unit_tax" json:"unitTax"`
	UnitDiscount    types.Money `db:"unit_discount" json:"unitDiscount"`
	UnitFinalAmount types.Money `db:"unit_final_amount" json:"unitFinalAmount"`

	SaleChannel   Channel `db:"sale_channel" json:"saleChannel"`
	PaymentMethod string  `db:"payment_method" json:"paymentMethod"`
	VehicleNumber *string `db:"vehicle_number" json:"vehicleNumber,omitempty"`

	HasCommission    bool        `db:"has_commission" json:"hasCommission"`
	AgentID          *id.ID      `db:"agent_id" json:"agentId,omitempty"`
	CommissionAmount types.Money `db:"commission_amount" json:"commissionAmount"`

	SoldBy    string    `db:"sold_by" json:"soldBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Totals sums the money columns of a set of lines.
type Totals struct {
	Units      int         `json:"units"`
	MRP        types.Money `json:"mrp"`
	Tax        types.Money `json:"tax"`
	Discount   types.Money `json:"discount"`
	Final      types.Money `json:"final"`
	Commission types.Money `json:"commission"`
}

// SumLines computes Totals.
func SumLines(lines []LineItem) Totals {
	t := Totals{
		Units:      len(lines),
		MRP:        decimal.Zero,
		Tax:        decimal.Zero,
		Discount:   decimal.Zero,
		Final:      decimal.Zero,
		Commission: decimal.Zero,
	}
	for _, l := range lines {
		t.MRP = t.MRP.Add(l.UnitMRP)
		t.Tax = t.Tax.Add(l.UnitTax)
		t.Discount = t.Discount.Add(l.UnitDiscount)
		t.Final = t.Final.Add(l.UnitFinalAmount)
		t.Commission = t.Commission.Add(l.CommissionAmount)
	}
	return t
}

// Invoice is the derived view of all lines sharing an invoice number.
type Invoice struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	CustomerID    id.ID      `json:"customerId"`
	SaleChannel   Channel    `json:"saleChannel"`
	PaymentMethod string     `json:"paymentMethod"`
	CreatedAt     time.Time  `json:"createdAt"`
	Lines         []LineItem `json:"lineItems"`
	Totals        Totals     `json:"totals"`
}

// NewInvoice groups lines of one invoice. lines must be non-empty.
func NewInvoice(lines []LineItem) *Invoice {
	first := lines[0]
	return &Invoice{
		InvoiceNumber: first.InvoiceNumber,
		CustomerID:    first.CustomerID,
		SaleChannel:   first.SaleChannel,
		PaymentMethod: first.PaymentMethod,
		CreatedAt:     first.CreatedAt,
		Lines:         lines,
		Totals:        SumLines(lines),
	}
}

// Result is the outcome of a committed sale.
type Result struct {
	InvoiceNumber      string             `json:"invoiceNumber"`
	LineItems          []LineItem         `json:"lineItems"`
	Customer           *customer.Customer `json:"customer"`
	CustomerWasCreated bool               `json:"customerWasCreated"`
	Agent              *commission.Agent  `json:"agent,omitempty"`
	Totals             Totals             `json:"totals"`
}

// EventCompleted is emitted once per committed invoice.
const EventCompleted = "sale.completed"

// CompletedEvent is the payload of EventCompleted.
type CompletedEvent struct {
	InvoiceNumber      string      `json:"invoiceNumber"`
	CustomerID         id.ID       `json:"customerId"`
	CustomerWasCreated bool        `json:"customerWasCreated"`
	AgentID            *id.ID      `json:"agentId,omitempty"`
	SaleChannel        Channel     `json:"saleChannel"`
	SoldBy             string      `json:"soldBy,omitempty"`
	Units              int         `json:"units"`
	Final              types.Money `json:"final"`
	Commission         types.Money `json:"commission"`
	CreatedAt          time.Time   `json:"createdAt"`
}
