package payroll

import "fmt"

const MaxWordsValue = 9999

var ones = [...]string{
	"ZERO", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
	"TEN", "ELEVEN", "TWELVE", "THIRTEEN", "FOURTEEN", "FIFTEEN", "SIXTEEN",
	"SEVENTEEN", "EIGHTEEN", "NINETEEN",
}

var tens = [...]string{
	2: "TWENTY", 3: "THIRTY", 4: "FORTY", 5: "FIFTY",
	6: "SIXTY", 7: "SEVENTY", 8: "EIGHTY", 9: "NINETY",
}

// IntegerToWords spells 0..9999 for the check memo line, e.g.
// 1105 -> "ONE THOUSAND ONE HUNDRED AND FIVE".
func IntegerToWords(n int) (string, error) {
	if n < 0 || n > MaxWordsValue {
		return "", fmt.Errorf("%w: %d is outside 0..%d", ErrOutOfRange, n, MaxWordsValue)
	}
	return spell(n), nil
}

func spell(n int) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	case n < 1000:
		head := ones[n/100] + " HUNDRED"
		if n%100 == 0 {
			return head
		}
		return head + " AND " + spell(n%100)
	default:
		head := ones[n/1000] + " THOUSAND"
		if n%1000 == 0 {
			return head
		}
		return head + " " + spell(n%1000)
	}
}
