package reports

import "time"

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

// Summarize derives the funnel rates shown on the admin dashboard.
func Summarize(since time.Time, tokens TokenStats, batches BatchStats) Dashboard {
	return Dashboard{
		Since:          since,
		Tokens:         tokens,
		Batches:        batches,
		PaymentRate:    ratio(tokens.Paid, tokens.Total),
		RedemptionRate: ratio(tokens.Used, tokens.Paid),
		FailureRate:    ratio(batches.Failed, batches.Generated+batches.Failed),
	}
}
