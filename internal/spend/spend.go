// Package spend derives budget figures from grocery items: the house total,
// per-user spend, and budget usage. Everything here is pure.
package spend

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

// Total sums the price of every completed item. Items without a price count
// as zero.
func Total(items []model.GroceryItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Completed {
			total = total.Add(item.Cost())
		}
	}
	return total
}

// PerUser groups completed spend by completed_by, largest first. Completed
// items with no completer are skipped, as are users whose total is zero.
func PerUser(items []model.GroceryItem) []model.SpendingAggregate {
	totals := make(map[string]decimal.Decimal)
	for _, item := range items {
		if !item.Completed || item.CompletedBy == nil {
			continue
		}
		user := *item.CompletedBy
		totals[user] = totals[user].Add(item.Cost())
	}

	out := make([]model.SpendingAggregate, 0, len(totals))
	for user, amount := range totals {
		if amount.IsZero() {
			continue
		}
		out = append(out, model.SpendingAggregate{UserName: user, TotalSpent: amount})
	}
	sortAggregates(out)
	return out
}

func sortAggregates(aggs []model.SpendingAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		if c := aggs[i].TotalSpent.Cmp(aggs[j].TotalSpent); c != 0 {
			return c > 0
		}
		return aggs[i].UserName < aggs[j].UserName
	})
}
