package push

import (
	"fmt"

	"github.com/xndadelin/Grosharing/internal/model"
)

// ItemAdded builds the notification sent when actor adds itemName. self is
// true for the recipient who added the item.
func ItemAdded(actor, itemName string, self bool) model.Notification {
	body := fmt.Sprintf("%s added %s to the shopping list", actor, itemName)
	if self {
		body = fmt.Sprintf("You added %s to the shopping list", itemName)
	}
	return model.Notification{
		Title: "New grocery item added",
		Body:  body,
		Data: map[string]string{
			"type":     model.NotifTypeGroceryItemAdded,
			"itemName": itemName,
			"addedBy":  actor,
		},
	}
}

// ItemCompleted builds the notification sent when completedBy marks itemName
// as purchased.
func ItemCompleted(completedBy, itemName string, self bool) model.Notification {
	body := fmt.Sprintf("%s purchased %s", completedBy, itemName)
	if self {
		body = fmt.Sprintf("You purchased %s", itemName)
	}
	return model.Notification{
		Title: "Item completed",
		Body:  body,
		Data: map[string]string{
			"type":        model.NotifTypeGroceryItemCompleted,
			"itemName":    itemName,
			"completedBy": completedBy,
		},
	}
}
