package pricing

// Shop-floor calculators. They are pure and never fail; the bool results report
// inputs for which no meaningful answer exists.

type DiscountResult struct {
	Amount     Money `json:"discountAmount"`
	FinalPrice Money `json:"finalPrice"`
}

// Discount takes percent off price.
func Discount(price, percent Money) DiscountResult {
	amount := price.Mul(percent).Div(hundred)
	return DiscountResult{Amount: amount, FinalPrice: price.Sub(amount)}
}

type GrossMarginResult struct {
	Profit             Money `json:"profit"`
	GrossMarginPercent Money `json:"grossMarginPercent"`
	// MarkupPercent is nil when cost is zero.
	MarkupPercent *Money `json:"markupPercent"`
}

// GrossMargin reports profit, margin on selling price and markup on cost. It
// returns false when selling is zero.
func GrossMargin(cost, selling Money) (GrossMarginResult, bool) {
	if selling.IsZero() {
		return GrossMarginResult{}, false
	}
	profit := selling.Sub(cost)
	res := GrossMarginResult{
		Profit:             profit,
		GrossMarginPercent: profit.Div(selling).Mul(hundred),
	}
	if !cost.IsZero() {
		markup := profit.Div(cost).Mul(hundred)
		res.MarkupPercent = &markup
	}
	return res, true
}

type MarkupResult struct {
	Amount       Money `json:"markupAmount"`
	SellingPrice Money `json:"sellingPrice"`
}

// Markup adds percent of cost on top of cost.
func Markup(cost, percent Money) MarkupResult {
	amount := cost.Mul(percent).Div(hundred)
	return MarkupResult{Amount: amount, SellingPrice: cost.Add(amount)}
}

type BreakEvenResult struct {
	Units   Money `json:"breakEvenUnits"`
	Revenue Money `json:"breakEvenRevenue"`
}

// BreakEven returns the units and revenue at which fixed costs are covered. It
// returns false unless each unit contributes a positive margin.
func BreakEven(fixed, variable, selling Money) (BreakEvenResult, bool) {
	contribution := selling.Sub(variable)
	if !contribution.IsPositive() {
		return BreakEvenResult{}, false
	}
	return BreakEvenResult{
		Units:   fixed.Div(contribution),
		Revenue: fixed.Mul(selling).Div(contribution),
	}, true
}

type MarginPriceResult struct {
	SellingPrice Money `json:"sellingPrice"`
	Profit       Money `json:"profit"`
}

// PriceForMargin finds the selling price that yields marginPercent on that price.
// Margins of 100% or more have no price and return false.
func PriceForMargin(cost, marginPercent Money) (MarginPriceResult, bool) {
	if marginPercent.GreaterThanOrEqual(hundred) {
		return MarginPriceResult{}, false
	}
	price := cost.Mul(hundred).Div(hundred.Sub(marginPercent))
	return MarginPriceResult{SellingPrice: price, Profit: price.Sub(cost)}, true
}
