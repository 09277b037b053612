package costing

import "fmt"

// CurrencyNormalizer converts native amounts into the reporting currency and
// remembers every rate it applied. A normalizer is scoped to one calculation
// and is not safe for concurrent use.
type CurrencyNormalizer struct {
	rates     RateTable
	reporting string
	used      map[string]float64
	fallbacks map[string]bool
}

// NewCurrencyNormalizer returns a normalizer over rates targeting the
// reporting currency.
func NewCurrencyNormalizer(rates RateTable, reporting string) *CurrencyNormalizer {
	if reporting == "" {
		reporting = ReportingCurrency
	}
	return &CurrencyNormalizer{
		rates:     rates,
		reporting: reporting,
		used:      make(map[string]float64),
		fallbacks: make(map[string]bool),
	}
}

// ToReporting converts amount from the given currency. Same-currency amounts
// pass through unchanged. A missing rate is treated as 1.0 and recorded.
func (n *CurrencyNormalizer) ToReporting(amount float64, from string) float64 {
	if from == "" || from == n.reporting {
		return amount
	}
	pair := CurrencyPair{From: from, To: n.reporting}
	rate, ok := n.rates[pair]
	if !ok || rate <= 0 {
		rate = 1.0
		n.fallbacks[pair.String()] = true
	}
	n.used[pair.String()] = rate
	return amount * rate
}

// RatesUsed returns a copy of every rate applied so far, keyed "FROM/TO".
func (n *CurrencyNormalizer) RatesUsed() map[string]float64 {
	out := make(map[string]float64, len(n.used))
	for k, v := range n.used {
		out[k] = v
	}
	return out
}

// Assumptions reports one rate-fallback assumption per pair that had no rate.
func (n *CurrencyNormalizer) Assumptions() []Assumption {
	out := make([]Assumption, 0, len(n.fallbacks))
	for _, pair := range sortedKeys(n.fallbacks) {
		out = append(out, Assumption{
			Kind:    AssumptionRateFallback,
			Message: fmt.Sprintf("no exchange rate for %s; amounts converted at 1.0", pair),
		})
	}
	return out
}

//Personal.AI order the ending
