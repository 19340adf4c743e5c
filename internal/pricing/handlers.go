package pricing

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/common"
)

var errNoResult = common.NewAppError("NOT_COMPUTABLE", "no result for these inputs", http.StatusUnprocessableEntity, nil)

// Handler serves the calculators. It holds no state.
type Handler struct{}

// Routes mounts GET /calculators/{kind}.
func (Handler) Routes(r chi.Router) {
	r.Get("/calculators/{kind}", Handler{}.Calculate)
}

// Calculate handles GET /api/v1/calculators/{kind}. Inputs come from the query
// string; amounts in the response are rounded to two places.
func (Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	q := query{values: r.URL.Query()}
	var (
		out any
		ok  = true
	)
	switch kind := strings.ToLower(chi.URLParam(r, "kind")); kind {
	case "discount":
		price, percent := q.amount("price"), q.amount("percent")
		if q.err == nil {
			res := Discount(price, percent)
			out = DiscountResult{Amount: res.Amount.Round(2), FinalPrice: res.FinalPrice.Round(2)}
		}
	case "gm", "gross-margin":
		cost, selling := q.amount("cost"), q.amount("selling")
		if q.err == nil {
			var res GrossMarginResult
			if res, ok = GrossMargin(cost, selling); ok {
				res.Profit = res.Profit.Round(2)
				res.GrossMarginPercent = res.GrossMarginPercent.Round(2)
				if res.MarkupPercent != nil {
					markup := res.MarkupPercent.Round(2)
					res.MarkupPercent = &markup
				}
				out = res
			}
		}
	case "markup":
		cost, percent := q.amount("cost"), q.amount("percent")
		if q.err == nil {
			res := Markup(cost, percent)
			out = MarkupResult{Amount: res.Amount.Round(2), SellingPrice: res.SellingPrice.Round(2)}
		}
	case "break-even":
		fixed, variable, selling := q.amount("fixed"), q.amount("variable"), q.amount("selling")
		if q.err == nil {
			var res BreakEvenResult
			if res, ok = BreakEven(fixed, variable, selling); ok {
				out = BreakEvenResult{Units: res.Units.Round(2), Revenue: res.Revenue.Round(2)}
			}
		}
	case "margin":
		cost, margin := q.amount("cost"), q.amount("margin")
		if q.err == nil {
			var res MarginPriceResult
			if res, ok = PriceForMargin(cost, margin); ok {
				out = MarginPriceResult{SellingPrice: res.SellingPrice.Round(2), Profit: res.Profit.Round(2)}
			}
		}
	default:
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown calculator", map[string]any{"kind": kind})
		return
	}
	switch {
	case q.err != nil:
		common.WriteError(w, q.err)
	case !ok:
		common.WriteError(w, errNoResult)
	default:
		common.JSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

// query collects the first bad parameter so a handler can read several in a row.
type query struct {
	values map[string][]string
	err    error
}

func (q *query) amount(key string) Money {
	if q.err != nil {
		return decimal.Zero
	}
	var raw string
	if v := q.values[key]; len(v) > 0 {
		raw = strings.TrimSpace(v[0])
	}
	if raw == "" {
		q.err = common.BadRequest(key, key+" is required", nil)
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		q.err = common.BadRequest(key, key+" must be a number", err)
		return decimal.Zero
	}
	return v
}
