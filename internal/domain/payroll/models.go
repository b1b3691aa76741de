package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Figures holds one pay period's amounts. They are the same for every period
// of a batch; only year-to-date values change with the payment index.
type Figures struct {
	Gross          decimal.Decimal `json:"gross"`
	Federal        decimal.Decimal `json:"federalWithholding"`
	SocialSecurity decimal.Decimal `json:"socialSecurity"`
	Medicare       decimal.Decimal `json:"medicare"`
	TotalDeduction decimal.Decimal `json:"totalDeduction"`
	Rate           decimal.Decimal `json:"rate"`
}

func (f Figures) NetPay() decimal.Decimal {
	return f.Gross.Sub(f.TotalDeduction)
}

// Taxes sums the three withholdings without the TotalDeduction ceiling.
func (f Figures) Taxes() decimal.Decimal {
	return f.Federal.Add(f.SocialSecurity).Add(f.Medicare)
}

// StaticFields are request-scoped passthrough values printed on every stub.
type StaticFields struct {
	Name            string `json:"name" yaml:"name"`
	LastName        string `json:"lastName" yaml:"last_name"`
	ClientAddress   string `json:"clientAddress" yaml:"client_address"`
	Company         string `json:"company" yaml:"company"`
	CityState       string `json:"cityState" yaml:"city_state"`
	EmployerAddress string `json:"employerAddress" yaml:"address_co"`
	CheckID         string `json:"checkId" yaml:"check_id"`
	SSNDigits       string `json:"ssnDigits" yaml:"ssn_digits"`
	Dependents      string `json:"dependents" yaml:"dependents"`
}

type Alignment int

const (
	AlignInherit Alignment = iota
	AlignRight
)

// Directive is the per-token formatting applied where a token lands in a
// table cell. A zero SizePt leaves the run size untouched.
type Directive struct {
	SizePt float64
	Bold   bool
	Align  Alignment
}

func (d Directive) IsZero() bool {
	return d == Directive{}
}

// Placeholders is the resolved token map for one pay period.
type Placeholders struct {
	Payday     time.Time
	Index      int
	Values     map[string]string
	Directives map[string]Directive
}
