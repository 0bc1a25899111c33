package dto

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/domain/sale"
	"batteryshop/internal/domain/stock"
	"batteryshop/pkg/logger"
)

// --- Request DTOs ---

// SerialList accepts either a JSON array of serials or a single delimited string.
// Numeric serials are read as their literal text. Entries of any other JSON type are
// dropped, so a malformed selection falls back to FIFO allocation instead of failing the sale.
type SerialList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *SerialList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*s = nil
	case string:
		*s = SerialList(stock.ParseSelector(v))
	case json.Number:
		*s = SerialList{v.String()}
	case []any:
		list := make(SerialList, 0, len(v))
		for _, e := range v {
			switch e := e.(type) {
			case string:
				list = append(list, e)
			case json.Number:
				list = append(list, e.String())
			}
		}
		if dropped := len(v) - len(list); dropped > 0 {
			logger.Warn(context.Background(), "ignoring serial numbers that are not text or numbers",
				"dropped", dropped)
		}
		*s = list
	default:
		logger.Warn(context.Background(), "ignoring malformed serial selection, using FIFO")
		*s = nil
	}
	return nil
}

// SaleItemRequest is one requested product line.
type SaleItemRequest struct {
	ProductID      string      `json:"productId"`
	Category       string      `json:"category"`
	Quantity       int         `json:"quantity"`
	SerialNumbers  SerialList  `json:"serialNumbers,omitempty"`
	VehicleNumber  string      `json:"vehicleNumber,omitempty"`
	MRP            types.Money `json:"mrp"`
	DiscountAmount types.Money `json:"discountAmount"`
	FinalAmount    types.Money `json:"finalAmount"`
}

func (i SaleItemRequest) isBlank() bool {
	return strings.TrimSpace(i.ProductID) == "" &&
		strings.TrimSpace(i.Category) == "" &&
		i.Quantity == 0
}

func (i SaleItemRequest) toDomain() sale.Item {
	return sale.Item{
		ProductID:     i.ProductID,
		Category:      i.Category,
		Quantity:      i.Quantity,
		Serials:       stock.Selector(i.SerialNumbers),
		VehicleNumber: i.VehicleNumber,
		MRP:           i.MRP,
		Discount:      i.DiscountAmount,
		FinalAmount:   i.FinalAmount,
	}
}

// SaleCommissionRequest attributes commission to an agent.
type SaleCommissionRequest struct {
	AgentID     string      `json:"agentId,omitempty"`
	AgentName   string      `json:"agentName,omitempty"`
	AgentMobile string      `json:"agentMobile,omitempty"`
	Amount      types.Money `json:"amount"`
}

// CreateSaleRequest is the body of POST /sales.
//
// Older counters send a single item flattened into the top level;
// the embedded SaleItemRequest carries those fields.
type CreateSaleRequest struct {
	CustomerName   string `json:"customerName"`
	CustomerMobile string `json:"customerMobile"`
	CustomerEmail  string `json:"customerEmail,omitempty"`
	Channel        string `json:"channel"`
	PaymentMethod  string `json:"paymentMethod"`

	CompanyName     string `json:"companyName,omitempty"`
	GSTNumber       string `json:"gstNumber,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`

	Items      []SaleItemRequest      `json:"items,omitempty"`
	Commission *SaleCommissionRequest `json:"commission,omitempty"`

	SaleItemRequest
}

// ToDomain converts the body into a sale request.
func (r *CreateSaleRequest) ToDomain() (sale.Request, error) {
	items := r.Items
	legacy := !r.SaleItemRequest.isBlank()
	switch {
	case len(items) > 0 && legacy:
		return sale.Request{}, apperror.NewValidation("send either items or a single flattened item, not both").
			WithDetail("field", "items")
	case len(items) == 0 && legacy:
		items = []SaleItemRequest{r.SaleItemRequest}
	}

	req := sale.Request{
		CustomerName:   r.CustomerName,
		CustomerMobile: r.CustomerMobile,
		CustomerEmail:  r.CustomerEmail,
		Channel:        sale.Channel(strings.ToLower(strings.TrimSpace(r.Channel))),
		PaymentMethod:  r.PaymentMethod,
		Business: customer.BusinessDetails{
			CompanyName:     r.CompanyName,
			GSTNumber:       r.GSTNumber,
			BusinessAddress: r.BusinessAddress,
		},
		Items: make([]sale.Item, 0, len(items)),
	}
	for _, it := range items {
		req.Items = append(req.Items, it.toDomain())
	}

	if r.Commission != nil {
		req.Commission = &sale.CommissionRequest{
			AgentID:     r.Commission.AgentID,
			AgentName:   r.Commission.AgentName,
			AgentMobile: r.Commission.AgentMobile,
			Amount:      r.Commission.Amount,
		}
	}
	return req, nil
}

// --- Response DTOs ---

// SaleCustomerResponse is the customer summary returned with a sale.
type SaleCustomerResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Classification  string `json:"classification"`
	CompanyName     string `json:"companyName,omitempty"`
	GSTNumber       string `json:"gstNumber,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`
}

// SaleAgentResponse is the agent credited with commission.
type SaleAgentResponse struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	MobileNumber        string      `json:"mobileNumber"`
	TotalCommissionPaid types.Money `json:"totalCommissionPaid"`
}

// SaleResponse is returned after a committed sale.
type SaleResponse struct {
	InvoiceNumber      string               `json:"invoiceNumber"`
	LineItems          []sale.LineItem      `json:"lineItems"`
	Customer           SaleCustomerResponse `json:"customer"`
	CustomerWasCreated bool                 `json:"customerWasCreated"`
	Agent              *SaleAgentResponse   `json:"agent,omitempty"`
	Totals             sale.Totals          `json:"totals"`
}

// FromSaleResult builds the response body.
func FromSaleResult(r *sale.Result) SaleResponse {
	resp := SaleResponse{
		InvoiceNumber:      r.InvoiceNumber,
		LineItems:          r.LineItems,
		CustomerWasCreated: r.CustomerWasCreated,
		Totals:             r.Totals,
	}
	if resp.LineItems == nil {
		resp.LineItems = []sale.LineItem{}
	}
	if r.Customer != nil {
		resp.Customer = fromCustomer(r.Customer)
	}
	if r.Agent != nil {
		resp.Agent = fromAgent(r.Agent)
	}
	return resp
}

func fromCustomer(c *customer.Customer) SaleCustomerResponse {
	return SaleCustomerResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Classification:  string(c.Classification),
		CompanyName:     deref(c.CompanyName),
		GSTNumber:       deref(c.GSTNumber),
		BusinessAddress: deref(c.BusinessAddress),
	}
}

func fromAgent(a *commission.Agent) *SaleAgentResponse {
	return &SaleAgentResponse{
		ID:                  a.ID.String(),
		Name:                a.Name,
		MobileNumber:        a.MobileNumber,
		TotalCommissionPaid: a.TotalCommissionPaid,
	}
}

// InvoiceResponse is the read model of a stored invoice.
type InvoiceResponse struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerID    string          `json:"customerId"`
	SaleChannel   string          `json:"saleChannel"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
	LineItems     []sale.LineItem `json:"lineItems"`
	Totals        sale.Totals     `json:"totals"`
}

// FromInvoice builds the invoice response body.
func FromInvoice(inv *sale.Invoice) InvoiceResponse {
	return InvoiceResponse{
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID.String(),
		SaleChannel:   string(inv.SaleChannel),
		PaymentMethod: inv.PaymentMethod,
		CreatedAt:     inv.CreatedAt,
		LineItems:     inv.Lines,
		Totals:        inv.Totals,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
