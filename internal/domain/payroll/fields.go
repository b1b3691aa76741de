package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormattingPolicy decides how each token is styled inside table cells.
type FormattingPolicy interface {
	DirectiveFor(token string) Directive
}

// CellFormatting is the stub layout policy: identity and headline tokens keep
// the template size, net pay is emphasised, and every amount column is shrunk
// and right aligned.
type CellFormatting struct{}

var headlineTokens = map[string]bool{
	TokenName:        true,
	TokenPayday:      true,
	TokenNetPay:      true,
	TokenDependents:  true,
	TokenPriorPayday: true,
}

func (CellFormatting) DirectiveFor(token string) Directive {
	switch {
	case token == TokenNetPay:
		return Directive{SizePt: 9, Bold: true}
	case headlineTokens[token]:
		return Directive{SizePt: 8}
	default:
		return Directive{SizePt: 7, Align: AlignRight}
	}
}

// PlainFormatting substitutes text only.
type PlainFormatting struct{}

func (PlainFormatting) DirectiveFor(string) Directive { return Directive{} }

// Resolver turns fixed per-request inputs into the token map of one period.
type Resolver struct {
	Static  StaticFields
	Figures Figures
	Policy  FormattingPolicy
}

func NewResolver(static StaticFields, figures Figures, policy FormattingPolicy) (*Resolver, error) {
	if policy == nil {
		policy = CellFormatting{}
	}
	if _, err := IntegerToWords(int(figures.NetPay().RoundBank(0).IntPart())); err != nil {
		return nil, fmt.Errorf("net pay in words: %w", err)
	}
	return &Resolver{Static: static, Figures: figures, Policy: policy}, nil
}

// Resolve builds the placeholder map for the given payday and payment index.
func (r *Resolver) Resolve(payday time.Time, index int) (Placeholders, error) {
	f := r.Figures
	net := f.NetPay()
	words, err := IntegerToWords(int(net.RoundBank(0).IntPart()))
	if err != nil {
		return Placeholders{}, err
	}
	payday = Day(payday)
	n := decimal.NewFromInt(int64(index))
	ytd := func(amount decimal.Decimal) string {
		return FormatCurrency(CeilToCents(amount.Mul(n)))
	}

	values := map[string]string{
		TokenName:           strings.TrimSpace(r.Static.Name + " " + r.Static.LastName),
		TokenClientAddress:  r.Static.ClientAddress,
		TokenCompany:        r.Static.Company,
		TokenCityState:      r.Static.CityState,
		TokenEmployerAddr:   r.Static.EmployerAddress,
		TokenCheckID:        r.Static.CheckID,
		TokenPayday:         payday.Format(DateLayout),
		TokenPriorPayday:    payday.AddDate(0, 0, -BiweeklyDays).Format(DateLayout),
		TokenNetPayWords:    words,
		TokenNetPayDecimal:  DecimalPart(net),
		TokenSSNDigits:      r.Static.SSNDigits,
		TokenNetPay:         FormatCurrency(CeilToCents(net)),
		TokenDependents:     r.Static.Dependents,
		TokenGross:          FormatCurrency(f.Gross),
		TokenFederal:        FormatCurrency(f.Federal),
		TokenSocialSecurity: FormatCurrency(f.SocialSecurity),
		TokenMedicare:       FormatCurrency(f.Medicare),
		TokenTotal:          FormatCurrency(CeilToCents(f.Taxes())),
		TokenGrossYTD:       ytd(f.Gross),
		TokenFederalYTD:     ytd(f.Federal),
		TokenSocialSecYTD:   ytd(f.SocialSecurity),
		TokenMedicareYTD:    ytd(f.Medicare),
		TokenTotalYTD:       ytd(f.Taxes()),
	}

	directives := make(map[string]Directive, len(values))
	for token := range values {
		if d := r.Policy.DirectiveFor(token); !d.IsZero() {
			directives[token] = d
		}
	}

	return Placeholders{Payday: payday, Index: index, Values: values, Directives: directives}, nil
}
