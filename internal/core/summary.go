package core

import (
	"sort"
	"time"
)

// Totals are the derived wallet figures. They are recomputed from the
// collections on every read and never stored.
type Totals struct {
	TotalFunds       Money `json:"totalFunds"`
	TotalSaved       Money `json:"totalSaved"`
	AvailableToSpend Money `json:"availableToSpend"`
}

// ComputeTotals sums balances of accounts included in the budget and the
// saved amounts of all goals.
func ComputeTotals(accounts []Account, budgets []Budget) Totals {
	var t Totals
	for _, a := range accounts {
		if a.IncludeInBudget {
			t.TotalFunds = t.TotalFunds.Add(a.Balance)
		}
	}
	for _, b := range budgets {
		t.TotalSaved = t.TotalSaved.Add(b.SavedAmount)
	}
	t.AvailableToSpend = t.TotalFunds.Sub(t.TotalSaved)
	return t
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Amount     Money  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Spent      Money            `json:"spent"`
	Earned     Money            `json:"earned"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// SummarizeMonth aggregates spending and income for one calendar month in
// UTC. Internal transfers are neither spending nor income and are skipped.
// ByCategory only covers spending, largest first.
func SummarizeMonth(year, month int, txs []Transaction, categories []Category) MonthOverview {
	ov := MonthOverview{Year: year, Month: month}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	byCat := map[string]Money{}
	var order []string
	for _, tx := range txs {
		if tx.IsTransfer() {
			continue
		}
		d := tx.Date.UTC()
		if d.Year() != year || d.Month() != time.Month(month) {
			continue
		}
		if tx.Amount.IsNegative() {
			ov.Earned = ov.Earned.Add(tx.Amount.Neg())
			continue
		}
		ov.Spent = ov.Spent.Add(tx.Amount)
		if _, seen := byCat[tx.CategoryID]; !seen {
			order = append(order, tx.CategoryID)
		}
		byCat[tx.CategoryID] = byCat[tx.CategoryID].Add(tx.Amount)
	}

	ov.ByCategory = make([]CategoryAmount, 0, len(order))
	for _, id := range order {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{CategoryID: id, Name: names[id], Amount: byCat[id]})
	}
	sort.SliceStable(ov.ByCategory, func(i, j int) bool {
		return ov.ByCategory[i].Amount.Cents > ov.ByCategory[j].Amount.Cents
	})
	return ov
}
