package payroll

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type bracket struct {
	lower int64
	upper int64
	rate  decimal.Decimal
}

var (
	socialSecurityRate = decimal.RequireFromString("0.062")
	medicareRate       = decimal.RequireFromString("0.0145")
)

// Illustrative federal table keyed by annual salary. Bounds are inclusive.
var taxBrackets = [...]bracket{
	{lower: 0, upper: 10275, rate: decimal.RequireFromString("0.10")},
	{lower: 10276, upper: 41775, rate: decimal.RequireFromString("0.12")},
	{lower: 41776, upper: 89075, rate: decimal.RequireFromString("0.22")},
	{lower: 89076, upper: 170050, rate: decimal.RequireFromString("0.24")},
	{lower: 170051, upper: 215950, rate: decimal.RequireFromString("0.32")},
	{lower: 215951, upper: 539900, rate: decimal.RequireFromString("0.35")},
	{lower: 539901, upper: math.MaxInt64, rate: decimal.RequireFromString("0.37")},
}

// Calculate derives the per-period figures for an annual salary paid over
// periodsPerYear periods. Every figure is rounded up to the cent on its own.
func Calculate(annualSalary, periodsPerYear int) (Figures, error) {
	if periodsPerYear <= 0 {
		return Figures{}, fmt.Errorf("%w: periods per year must be positive, got %d", ErrInvalidArgument, periodsPerYear)
	}
	if annualSalary <= 0 {
		return Figures{}, fmt.Errorf("%w: annual salary must be positive, got %d", ErrInvalidArgument, annualSalary)
	}

	rate := TaxRate(int64(annualSalary))
	gross := CeilToCents(decimal.NewFromInt(int64(annualSalary)).Div(decimal.NewFromInt(int64(periodsPerYear))))
	fed := CeilToCents(gross.Mul(rate))
	ss := CeilToCents(gross.Mul(socialSecurityRate))
	mc := CeilToCents(gross.Mul(medicareRate))

	return Figures{
		Gross:          gross,
		Federal:        fed,
		SocialSecurity: ss,
		Medicare:       mc,
		TotalDeduction: CeilToCents(fed.Add(ss).Add(mc)),
		Rate:           rate,
	}, nil
}

// TaxRate returns the marginal rate of the first bracket containing the
// salary, or the top rate when none does.
func TaxRate(annualSalary int64) decimal.Decimal {
	for _, b := range taxBrackets {
		if annualSalary >= b.lower && annualSalary <= b.upper {
			return b.rate
		}
	}
	return taxBrackets[len(taxBrackets)-1].rate
}

// CeilToCents rounds toward positive infinity at two decimal places.
func CeilToCents(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundCeil(2)
}
