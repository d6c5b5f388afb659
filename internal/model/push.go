package model

// Notification type constants
const (
	NotifTypeGroceryItemAdded     = "groceryItemAdded"
	NotifTypeGroceryItemCompleted = "groceryItemCompleted"
	NotifTypeNeighborJoined       = "neighborJoined"
)

// NotifTypeBudgetExceeded marks the once-per-budget alert sent when a
// house's completed spend passes its budget.
const NotifTypeBudgetExceeded = "budgetExceeded"

// Notification is a push message addressed to a single device token.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}
