package spend

import (
	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

const maxPercent = 999

var hundred = decimal.NewFromInt(100)

// Usage describes how much of a house budget has been spent.
type Usage struct {
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed int64           `json:"percent_used"`
	OverBudget  bool            `json:"over_budget"`
}

// BudgetUsage computes remaining budget and percent used. Percent is rounded
// to the nearest whole number, capped at 999, and 0 when the budget is not
// positive. Remaining goes negative once spending passes the budget.
func BudgetUsage(budget, spent decimal.Decimal) Usage {
	u := Usage{
		Budget:     budget,
		Spent:      spent,
		Remaining:  budget.Sub(spent),
		OverBudget: spent.GreaterThan(budget),
	}
	if budget.IsPositive() {
		pct := spent.Div(budget).Mul(hundred).Round(0).IntPart()
		if pct > maxPercent {
			pct = maxPercent
		}
		u.PercentUsed = pct
	}
	return u
}

// Share is a user's spend relative to the top spender.
type Share struct {
	model.SpendingAggregate
	Percent int64 `json:"percent"`
}

// Shares scales each user's spend against the largest total, which maps to 100.
func Shares(perUser []model.SpendingAggregate) []Share {
	top := decimal.Zero
	for _, agg := range perUser {
		if agg.TotalSpent.GreaterThan(top) {
			top = agg.TotalSpent
		}
	}

	out := make([]Share, 0, len(perUser))
	for _, agg := range perUser {
		s := Share{SpendingAggregate: agg}
		if top.IsPositive() {
			s.Percent = agg.TotalSpent.Div(top).Mul(hundred).Round(0).IntPart()
		}
		out = append(out, s)
	}
	return out
}
