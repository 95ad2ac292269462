package microcap

// StopLossTriggered returns the tickers of the priced valuations whose
// current price is at or below their stop loss, in valuation order.
//
// A zero stop loss never triggers.
func StopLossTriggered(vals []Valuation) []string {
	var res []string
	for _, v := range vals {
		if triggered(v) {
			res = append(res, v.Ticker)
		}
	}
	return res
}

func triggered(v Valuation) bool {
	if !v.Priced || !v.StopLoss.IsPositive() {
		return false
	}
	return v.Price.LessThanOrEqual(v.StopLoss)
}
