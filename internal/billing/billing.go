// Package billing computes job-card totals. All functions are pure.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/ukydev/autoserve/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	taxRate = decimal.NewFromInt(models.TaxRate)
)

// Summary holds the computed totals of a bill, rounded to two places.
type Summary struct {
	SparePartsTotal   decimal.Decimal
	ServiceCostsTotal decimal.Decimal
	Subtotal          decimal.Decimal
	Discount          decimal.Decimal
	AfterDiscount     decimal.Decimal
	TaxRate           decimal.Decimal
	TaxAmount         decimal.Decimal
	GrandTotal        decimal.Decimal
}

// Calculate computes the bill for the given lines. A percentage discount is taken from the
// subtotal; any other discount type is a fixed amount. Non-positive discounts are ignored.
// Results are not clamped, so a discount larger than the subtotal yields negative totals.
func Calculate(parts []models.SparePart, costs []models.ServiceCost, discount float64, discountType models.DiscountType) Summary {
	partsTotal := decimal.Zero
	for _, p := range parts {
		partsTotal = partsTotal.Add(lineTotal(p.Quantity, p.UnitPrice))
	}

	costsTotal := decimal.Zero
	for _, c := range costs {
		costsTotal = costsTotal.Add(decimal.NewFromFloat(c.Cost))
	}

	subtotal := partsTotal.Add(costsTotal)

	discountAmount := decimal.Zero
	if discount > 0 {
		d := decimal.NewFromFloat(discount)
		if discountType == models.DiscountPercentage {
			discountAmount = subtotal.Mul(d).Div(hundred)
		} else {
			discountAmount = d
		}
	}

	afterDiscount := subtotal.Sub(discountAmount)
	taxAmount := afterDiscount.Mul(taxRate).Div(hundred)
	grandTotal := afterDiscount.Add(taxAmount)

	return Summary{
		SparePartsTotal:   partsTotal.Round(2),
		ServiceCostsTotal: costsTotal.Round(2),
		Subtotal:          subtotal.Round(2),
		Discount:          discountAmount.Round(2),
		AfterDiscount:     afterDiscount.Round(2),
		TaxRate:           taxRate,
		TaxAmount:         taxAmount.Round(2),
		GrandTotal:        grandTotal.Round(2),
	}
}

// LineTotal returns quantity × unitPrice rounded to two places.
func LineTotal(quantity int, unitPrice float64) float64 {
	return lineTotal(quantity, unitPrice).Round(2).InexactFloat64()
}

func lineTotal(quantity int, unitPrice float64) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromFloat(unitPrice))
}

// Snapshot converts the summary into the billing record stored on a job card.
func (s Summary) Snapshot(discountType models.DiscountType) models.Billing {
	if discountType == "" {
		discountType = models.DiscountFixed
	}
	return models.Billing{
		Subtotal:     s.Subtotal.InexactFloat64(),
		TaxRate:      s.TaxRate.InexactFloat64(),
		TaxAmount:    s.TaxAmount.InexactFloat64(),
		Discount:     s.Discount.InexactFloat64(),
		DiscountType: discountType,
		GrandTotal:   s.GrandTotal.InexactFloat64(),
	}
}

// Preview is the string rendering returned by the calculate endpoint.
type Preview struct {
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount"`
	TaxRate    int    `json:"taxRate"`
	TaxAmount  string `json:"taxAmount"`
	GrandTotal string `json:"grandTotal"`
}

// Preview renders every amount with exactly two decimals. The tax rate stays numeric.
func (s Summary) Preview() Preview {
	return Preview{
		Subtotal:   s.Subtotal.StringFixed(2),
		Discount:   s.Discount.StringFixed(2),
		TaxRate:    int(s.TaxRate.IntPart()),
		TaxAmount:  s.TaxAmount.StringFixed(2),
		GrandTotal: s.GrandTotal.StringFixed(2),
	}
}
