// Package pricing derives the GST breakdown of tax-inclusive prices.
package pricing

import (
	"github.com/shopspring/decimal"

	"batteryshop/internal/core/types"
)

// GSTRatePercent is the goods-and-services tax rate embedded in every MRP.
const GSTRatePercent = 18

var gstDivisor = decimal.NewFromInt(100 + GSTRatePercent).Div(decimal.NewFromInt(100))

// Breakdown is the tax split of an MRP for a quantity. All amounts are rounded to 2 places.
type Breakdown struct {
	BasePrice types.Money `json:"basePrice"`
	GSTAmount types.Money `json:"gstAmount"`
	TotalBase types.Money `json:"totalBase"`
	TotalGST  types.Money `json:"totalGst"`
	TotalMRP  types.Money `json:"totalMrp"`
}

// Calculate splits a tax-inclusive unit MRP into base price and GST.
// base = mrp / 1.18, gst = mrp - base. The totals are derived from mrp*qty the same way,
// so TotalBase + TotalGST always equals TotalMRP.
func Calculate(mrp types.Money, qty int) Breakdown {
	base, gst := split(mrp)
	totalMRP := types.RoundMoney(mrp.Mul(decimal.NewFromInt(int64(qty))))
	totalBase, totalGST := split(totalMRP)

	return Breakdown{
		BasePrice: base,
		GSTAmount: gst,
		TotalBase: totalBase,
		TotalGST:  totalGST,
		TotalMRP:  totalMRP,
	}
}

// UnitTax is the GST embedded in one unit sold at mrp.
func UnitTax(mrp types.Money) types.Money {
	_, gst := split(mrp)
	return gst
}

func split(amount types.Money) (base, gst types.Money) {
	amount = types.RoundMoney(amount)
	base = types.RoundMoney(amount.Div(gstDivisor))
	return base, amount.Sub(base)
}

// LineAmounts are the per-unit figures stored on each sale line of one request line.
type LineAmounts struct {
	UnitMRP       types.Money
	UnitBasePrice types.Money
	UnitTax       types.Money
	Discounts     []types.Money
	FinalAmounts  []types.Money
}

// ForLine spreads the caller's line discount and final amount evenly across qty units.
// The caller's final amount is authoritative; tax is always the GST embedded in the unit MRP.
func ForLine(unitMRP, discount, finalAmount types.Money, qty int) LineAmounts {
	base, gst := split(unitMRP)
	return LineAmounts{
		UnitMRP:       types.RoundMoney(unitMRP),
		UnitBasePrice: base,
		UnitTax:       gst,
		Discounts:     types.SplitEvenly(discount, qty),
		FinalAmounts:  types.SplitEvenly(finalAmount, qty),
	}
}
