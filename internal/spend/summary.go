package spend

import (
	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

// Summary holds the house total and per-user spend and can be updated one
// completion flip at a time.
type Summary struct {
	Total   decimal.Decimal
	PerUser []model.SpendingAggregate
}

// Compute builds a Summary from a full item list.
func Compute(items []model.GroceryItem) Summary {
	return Summary{Total: Total(items), PerUser: PerUser(items)}
}

// Apply returns the summary after one item changed completion state.
// Completing adds price to the total and to user; uncompleting subtracts it
// from both, clamping at zero and dropping user once their total is zero.
// An empty user only affects the total.
func (s Summary) Apply(price decimal.Decimal, user string, completed bool) Summary {
	next := Summary{PerUser: make([]model.SpendingAggregate, 0, len(s.PerUser)+1)}

	if completed {
		next.Total = s.Total.Add(price)
	} else {
		next.Total = clamp(s.Total.Sub(price))
	}

	found := false
	for _, agg := range s.PerUser {
		if user == "" || agg.UserName != user {
			next.PerUser = append(next.PerUser, agg)
			continue
		}
		found = true
		if completed {
			agg.TotalSpent = agg.TotalSpent.Add(price)
		} else {
			agg.TotalSpent = clamp(agg.TotalSpent.Sub(price))
		}
		if agg.TotalSpent.IsZero() {
			continue
		}
		next.PerUser = append(next.PerUser, agg)
	}
	if !found && completed && user != "" && !price.IsZero() {
		next.PerUser = append(next.PerUser, model.SpendingAggregate{UserName: user, TotalSpent: price})
	}

	sortAggregates(next.PerUser)
	return next
}

// SpentBy returns the user's current total, zero when absent.
func (s Summary) SpentBy(user string) decimal.Decimal {
	for _, agg := range s.PerUser {
		if agg.UserName == user {
			return agg.TotalSpent
		}
	}
	return decimal.Zero
}

// Clone returns a deep copy.
func (s Summary) Clone() Summary {
	out := Summary{Total: s.Total, PerUser: make([]model.SpendingAggregate, len(s.PerUser))}
	copy(out.PerUser, s.PerUser)
	return out
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
