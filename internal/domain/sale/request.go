package sale

import (
	"strings"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/domain/stock"
)

// Request is a sale as submitted by the counter.
type Request struct {
	CustomerName   string
	CustomerMobile string
	// CustomerEmail is optional; one is synthesized from the mobile number when blank.
	CustomerEmail string
	Channel       Channel
	PaymentMethod string
	Business      customer.BusinessDetails
	Items         []Item
	Commission    *CommissionRequest
}

// Item is one requested product line.
type Item struct {
	ProductID     string
	Category      string
	Quantity      int
	Serials       stock.Selector
	VehicleNumber string
	// MRP is the tax-inclusive unit price.
	MRP types.Money
	// Discount and FinalAmount are totals for the whole line.
	Discount    types.Money
	FinalAmount types.Money
}

// CommissionRequest attributes commission for the whole sale.
type CommissionRequest struct {
	AgentID     string
	AgentName   string
	AgentMobile string
	Amount      types.Money
}

// plan is a validated request.
type plan struct {
	identity      customer.Identity
	channel       Channel
	paymentMethod string
	lines         []plannedLine
	totalUnits    int

	agent      *commission.Ref
	commission types.Money
}

type plannedLine struct {
	productID id.ID
	category  catalog.Category
	item      Item
}

// validate checks the request before any unit of work begins.
func validate(req Request) (*plan, error) {
	p := &plan{
		paymentMethod: strings.TrimSpace(req.PaymentMethod),
		commission:    types.Zero(),
	}

	name := strings.TrimSpace(req.CustomerName)
	mobile := strings.TrimSpace(req.CustomerMobile)
	if name == "" {
		return nil, apperror.NewValidation("customer name is required").WithDetail("field", "customerName")
	}
	if mobile == "" {
		return nil, apperror.NewValidation("customer mobile is required").WithDetail("field", "customerMobile")
	}
	mobile, err := customer.NormalizePhone(mobile)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		email = customer.SyntheticEmail(mobile)
	}

	p.channel = req.Channel
	if p.channel == "" {
		p.channel = customer.ChannelRetail
	}
	if !p.channel.Valid() {
		return nil, apperror.NewValidation("channel must be retail or wholesale").
			WithDetail("field", "channel").
			WithDetail("value", string(req.Channel))
	}
	if p.paymentMethod == "" {
		p.paymentMethod = DefaultPaymentMethod
	}

	p.identity = customer.Identity{
		Name:     name,
		Email:    email,
		Phone:    mobile,
		Channel:  p.channel,
		Business: req.Business,
	}

	if len(req.Items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	for i, item := range req.Items {
		line, err := validateItem(i, item)
		if err != nil {
			return nil, err
		}
		p.lines = append(p.lines, line)
		p.totalUnits += item.Quantity
	}

	if req.Commission != nil {
		if err := p.withCommission(*req.Commission); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func validateItem(i int, item Item) (plannedLine, error) {
	invalid := func(field, msg string) error {
		return apperror.NewValidation(msg).
			WithDetail("line", i+1).
			WithDetail("field", field)
	}

	if strings.TrimSpace(item.ProductID) == "" {
		return plannedLine{}, invalid("productId", "product id is required")
	}
	productID, err := id.Parse(strings.TrimSpace(item.ProductID))
	if err != nil {
		return plannedLine{}, invalid("productId", "product id is malformed")
	}
	if strings.TrimSpace(item.Category) == "" {
		return plannedLine{}, invalid("category", "category is required")
	}
	category, err := catalog.ParseCategory(item.Category)
	if err != nil {
		return plannedLine{}, apperror.NewNotFound("category", item.Category).WithDetail("line", i+1)
	}
	if item.Quantity <= 0 {
		return plannedLine{}, invalid("quantity", "quantity must be positive")
	}
	if !item.MRP.IsPositive() {
		return plannedLine{}, invalid("mrp", "mrp must be positive")
	}
	if !item.FinalAmount.IsPositive() {
		return plannedLine{}, invalid("finalAmount", "final amount must be positive")
	}
	if item.Discount.IsNegative() {
		return plannedLine{}, invalid("discountAmount", "discount must not be negative")
	}

	return plannedLine{productID: productID, category: category, item: item}, nil
}

func (p *plan) withCommission(c CommissionRequest) error {
	if err := commission.ValidateAmount(c.Amount); err != nil {
		return err
	}
	if c.Amount.IsZero() {
		return nil
	}

	ref := &commission.Ref{Name: strings.TrimSpace(c.AgentName), Mobile: strings.TrimSpace(c.AgentMobile)}
	if agentID := strings.TrimSpace(c.AgentID); agentID != "" {
		parsed, err := id.Parse(agentID)
		if err != nil {
			return apperror.NewValidation("agent id is malformed").WithDetail("field", "commission.agentId")
		}
		ref.AgentID = &parsed
	} else {
		if ref.Mobile == "" {
			return apperror.NewValidation("agent id or agent mobile is required for commission").
				WithDetail("field", "commission.agentMobile")
		}
		// Fail before the transaction on a malformed number.
		if _, err := commission.NormalizeMobile(ref.Mobile); err != nil {
			return err
		}
	}

	p.agent = ref
	p.commission = c.Amount
	return nil
}
