package payroll

import "time"

const (
	PeriodsBiweekly = 26
	PeriodsWeekly   = 52

	BiweeklyDays = 14
	WeeklyDays   = 7

	DateLayout = "01/02/2006"
)

// Calendar anchors. The schedule epoch and the parity anchor are both known
// paydays but serve different checks in Snap; the program start is the day
// the payment index counts from.
var (
	scheduleEpoch = civilDate(2023, time.December, 22)
	parityAnchor  = civilDate(2024, time.January, 5)
	programStart  = civilDate(2023, time.December, 21)
)

// Token names as they appear in the base template.
const (
	TokenName           = "<<nombre>>"
	TokenClientAddress  = "<<client_address>>"
	TokenCompany        = "<<company>>"
	TokenCityState      = "<<city_state>>"
	TokenEmployerAddr   = "<<address_co>>"
	TokenCheckID        = "<<check_id>>"
	TokenPayday         = "<<fecha>>"
	TokenPriorPayday    = "<<pay_date>>"
	TokenNetPayWords    = "<<netpaytext>>"
	TokenNetPayDecimal  = "<<decimal>>"
	TokenSSNDigits      = "<<ssn_digits>>"
	TokenNetPay         = "<<netpay>>"
	TokenDependents     = "<<dependents>>"
	TokenGross          = "<<salary>>"
	TokenFederal        = "<<fed>>"
	TokenSocialSecurity = "<<ss>>"
	TokenMedicare       = "<<mc>>"
	TokenTotal          = "<<totalt>>"
	TokenGrossYTD       = "<<salaryytd>>"
	TokenFederalYTD     = "<<fedytd>>"
	TokenSocialSecYTD   = "<<ssytd>>"
	TokenMedicareYTD    = "<<mcytd>>"
	TokenTotalYTD       = "<<totaltytd>>"
)

// Tokens lists every placeholder in template order.
func Tokens() []string {
	return []string{
		TokenName, TokenClientAddress, TokenCompany, TokenCityState, TokenEmployerAddr,
		TokenCheckID, TokenPayday, TokenPriorPayday, TokenNetPayWords, TokenNetPayDecimal,
		TokenSSNDigits, TokenNetPay, TokenDependents, TokenGross, TokenFederal,
		TokenSocialSecurity, TokenMedicare, TokenTotal, TokenGrossYTD, TokenFederalYTD,
		TokenSocialSecYTD, TokenMedicareYTD, TokenTotalYTD,
	}
}
