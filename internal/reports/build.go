package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/store"
)

const (
	topItemsLimit     = 10
	lowStockLimit     = 10
	lowStockThreshold = 10
	uncategorized     = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

// Report is the full dashboard for one owner and period.
type Report struct {
	Period              Period                `json:"period"`
	Since               *time.Time            `json:"since"`
	GeneratedAt         time.Time             `json:"generatedAt"`
	Investment          Investment            `json:"investment"`
	Sales               Sales                 `json:"sales"`
	TopItems            []TopItem             `json:"topItems"`
	CategoryPerformance []CategoryPerformance `json:"categoryPerformance"`
	PaymentMethods      []PaymentMethod       `json:"paymentMethods"`
	LowStock            []LowStockItem        `json:"lowStock"`
	CategoryInventory   []CategoryInventory   `json:"categoryInventory"`
}

// Investment is always computed over all time.
type Investment struct {
	CurrentInventory decimal.Decimal `json:"currentInventory"`
	Purchased        decimal.Decimal `json:"purchased"`
	Total            decimal.Decimal `json:"total"`
}

type Sales struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Transactions      int             `json:"transactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	Profit            decimal.Decimal `json:"profit"`
	ProfitMargin      decimal.Decimal `json:"profitMargin"`
}

type TopItem struct {
	ItemID       string          `json:"itemId"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	QuantitySold int             `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
}

type CategoryPerformance struct {
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
	Items   int             `json:"items"`
	Profit  decimal.Decimal `json:"profit"`
}

type PaymentMethod struct {
	Method string          `json:"method"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type LowStockItem struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Stock  int    `json:"stock"`
}

type CategoryInventory struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Items int             `json:"items"`
}

// Dataset is everything a report is computed from.
type Dataset struct {
	Transactions []store.Transaction
	Items        []store.Item
	Categories   []store.Category
}

// Build computes the report for period at now. Transactions must cover all time
// because investment ignores the period.
func Build(period Period, now time.Time, data Dataset) Report {
	since := period.Start(now)
	inPeriod := make([]store.Transaction, 0, len(data.Transactions))
	for _, tx := range data.Transactions {
		if since == nil || !tx.CreatedAt.Before(*since) {
			inPeriod = append(inPeriod, tx)
		}
	}
	names := make(map[string]string, len(data.Categories))
	for _, c := range data.Categories {
		names[c.ID] = c.Name
	}
	return Report{
		Period:              period,
		Since:               since,
		GeneratedAt:         now,
		Investment:          investment(data.Transactions, data.Items),
		Sales:               sales(inPeriod),
		TopItems:            topItems(inPeriod),
		CategoryPerformance: categoryPerformance(inPeriod, names),
		PaymentMethods:      paymentMethods(inPeriod),
		LowStock:            lowStock(data.Items),
		CategoryInventory:   categoryInventory(data.Items, names),
	}
}

func qty(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func investment(txs []store.Transaction, items []store.Item) Investment {
	inventory := decimal.Zero
	for _, item := range items {
		inventory = inventory.Add(item.Cost.Mul(qty(item.Stock)))
	}
	purchased := decimal.Zero
	for _, tx := range txs {
		for _, line := range tx.Items {
			purchased = purchased.Add(line.UnitCost.Mul(qty(line.Quantity)))
		}
	}
	return Investment{
		CurrentInventory: inventory.Round(2),
		Purchased:        purchased.Round(2),
		Total:            inventory.Add(purchased).Round(2),
	}
}

func sales(txs []store.Transaction) Sales {
	revenue := decimal.Zero
	profit := decimal.Zero
	for _, tx := range txs {
		revenue = revenue.Add(tx.TotalAmount)
		for _, line := range tx.Items {
			profit = profit.Add(line.UnitPrice.Sub(line.UnitCost).Mul(qty(line.Quantity)))
		}
	}
	out := Sales{
		Revenue:           revenue.Round(2),
		Transactions:      len(txs),
		AverageOrderValue: decimal.Zero,
		Profit:            profit.Round(2),
		ProfitMargin:      decimal.Zero,
	}
	if len(txs) > 0 {
		out.AverageOrderValue = revenue.Div(qty(len(txs))).Round(2)
	}
	if revenue.IsPositive() {
		out.ProfitMargin = profit.Div(revenue).Mul(hundred).Round(2)
	}
	return out
}

func topItems(txs []store.Transaction) []TopItem {
	index := map[string]int{}
	out := []TopItem{}
	for _, tx := range txs {
		for _, line := range tx.Items {
			i, ok := index[line.ItemID]
			if !ok {
				i = len(out)
				index[line.ItemID] = i
				out = append(out, TopItem{ItemID: line.ItemID, Name: line.Name, Code: line.Code, Revenue: decimal.Zero, Profit: decimal.Zero})
			}
			q := qty(line.Quantity)
			out[i].QuantitySold += line.Quantity
			out[i].Revenue = out[i].Revenue.Add(line.UnitPrice.Mul(q))
			out[i].Profit = out[i].Profit.Add(line.UnitPrice.Sub(line.UnitCost).Mul(q))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].QuantitySold > out[b].QuantitySold })
	if len(out) > topItemsLimit {
		out = out[:topItemsLimit]
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
		out[i].Profit = out[i].Profit.Round(2)
	}
	return out
}

func categoryName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return uncategorized
}

func categoryPerformance(txs []store.Transaction, names map[string]string) []CategoryPerformance {
	index := map[string]int{}
	out := []CategoryPerformance{}
	for _, tx := range txs {
		for _, line := range tx.Items {
			if line.CategoryID == nil || *line.CategoryID == "" {
				continue
			}
			name := categoryName(names, *line.CategoryID)
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, CategoryPerformance{Name: name, Revenue: decimal.Zero, Profit: decimal.Zero})
			}
			q := qty(line.Quantity)
			out[i].Items += line.Quantity
			out[i].Revenue = out[i].Revenue.Add(line.UnitPrice.Mul(q))
			out[i].Profit = out[i].Profit.Add(line.UnitPrice.Sub(line.UnitCost).Mul(q))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Revenue.GreaterThan(out[b].Revenue) })
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
		out[i].Profit = out[i].Profit.Round(2)
	}
	return out
}

func paymentMethods(txs []store.Transaction) []PaymentMethod {
	index := map[string]int{}
	out := []PaymentMethod{}
	for _, tx := range txs {
		i, ok := index[tx.PaymentMethod]
		if !ok {
			i = len(out)
			index[tx.PaymentMethod] = i
			out = append(out, PaymentMethod{Method: capitalise(tx.PaymentMethod), Amount: decimal.Zero})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(tx.TotalAmount)
	}
	for i := range out {
		out[i].Amount = out[i].Amount.Round(2)
	}
	return out
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lowStock(items []store.Item) []LowStockItem {
	out := []LowStockItem{}
	for _, item := range items {
		if item.Stock > 0 && item.Stock <= lowStockThreshold {
			out = append(out, LowStockItem{ItemID: item.ID, Name: item.Name, Code: item.Code, Stock: item.Stock})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Stock < out[b].Stock })
	if len(out) > lowStockLimit {
		out = out[:lowStockLimit]
	}
	return out
}

func categoryInventory(items []store.Item, names map[string]string) []CategoryInventory {
	index := map[string]int{}
	out := []CategoryInventory{}
	for _, item := range items {
		if item.CategoryID == nil || *item.CategoryID == "" {
			continue
		}
		name := categoryName(names, *item.CategoryID)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryInventory{Name: name, Value: decimal.Zero})
		}
		out[i].Items += item.Stock
		out[i].Value = out[i].Value.Add(item.Cost.Mul(qty(item.Stock)))
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value.GreaterThan(out[b].Value) })
	for i := range out {
		out[i].Value = out[i].Value.Round(2)
	}
	return out
}
