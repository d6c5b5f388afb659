package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/xndadelin/Grosharing/internal/model"
)

func housePath(house, suffix string) string {
	return "/api/houses/" + url.PathEscape(house) + suffix
}

// SignIn exchanges an identity-provider token for a session and keeps the
// session token for later requests.
func (c *Client) SignIn(ctx context.Context, providerToken string) (*model.Session, error) {
	var sess model.Session
	if err := c.do(ctx, http.MethodPost, "/auth/session", map[string]string{"provider_token": providerToken}, &sess); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	c.token = sess.AccessToken
	return &sess, nil
}

// SignOut revokes the current session token.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.token = ""
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &u); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &u, nil
}

// HouseSummary is a house with the caller's membership.
type HouseSummary struct {
	model.House
	Joined bool `json:"joined"`
}

func (c *Client) ListHouses(ctx context.Context) ([]HouseSummary, error) {
	var houses []HouseSummary
	if err := c.do(ctx, http.MethodGet, "/api/houses", nil, &houses); err != nil {
		return nil, fmt.Errorf("list houses: %w", err)
	}
	return houses, nil
}

func (c *Client) GetHouse(ctx context.Context, house string) (*model.House, error) {
	var h model.House
	if err := c.do(ctx, http.MethodGet, housePath(house, ""), nil, &h); err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return &h, nil
}

// Join joins the house with its password. Joining a house twice succeeds.
func (c *Client) Join(ctx context.Context, house, password string) (*model.Neighbor, error) {
	var n model.Neighbor
	if err := c.do(ctx, http.MethodPost, housePath(house, "/join"), map[string]string{"password": password}, &n); err != nil {
		return nil, fmt.Errorf("join house: %w", err)
	}
	return &n, nil
}

func (c *Client) ListItems(ctx context.Context, house string) ([]model.GroceryItem, error) {
	var items []model.GroceryItem
	if err := c.do(ctx, http.MethodGet, housePath(house, "/items"), nil, &items); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (c *Client) ListNeighbors(ctx context.Context, house string) ([]model.Neighbor, error) {
	var neighbors []model.Neighbor
	if err := c.do(ctx, http.MethodGet, housePath(house, "/neighbors"), nil, &neighbors); err != nil {
		return nil, fmt.Errorf("list neighbors: %w", err)
	}
	return neighbors, nil
}

// GetBudget returns (nil, nil) when the house has no budget yet.
func (c *Client) GetBudget(ctx context.Context, house string) (*model.HouseBudget, error) {
	var b model.HouseBudget
	err := c.do(ctx, http.MethodGet, housePath(house, "/budget"), nil, &b)
	if StatusCode(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

// CreateItem inserts an item. The server attributes it to the signed-in
// user, so AddedBy and SlackID are not sent.
func (c *Client) CreateItem(ctx context.Context, item model.NewGroceryItem) (*model.GroceryItem, error) {
	body := map[string]any{
		"item_name":   item.ItemName,
		"quantity":    item.Quantity,
		"description": item.Description,
		"price":       item.Price,
		"image_url":   item.ImageURL,
	}
	var created model.GroceryItem
	if err := c.do(ctx, http.MethodPost, housePath(item.House, "/items"), body, &created); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &created, nil
}

// SetCompletion issues a conditional completion update. A lost race returns
// an error wrapping house.ErrConflict.
func (c *Client) SetCompletion(ctx context.Context, id int64, upd model.CompletionUpdate) (*model.GroceryItem, error) {
	var item model.GroceryItem
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/items/%d/completion", id), upd, &item); err != nil {
		return nil, fmt.Errorf("set completion: %w", err)
	}
	return &item, nil
}

func (c *Client) UpsertBudget(ctx context.Context, house string, amount decimal.Decimal) (*model.HouseBudget, error) {
	var b model.HouseBudget
	if err := c.do(ctx, http.MethodPut, housePath(house, "/budget"), map[string]any{"budget": amount}, &b); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return &b, nil
}

// UploadImage stores image bytes and returns their public URL.
func (c *Client) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return out.URL, nil
}

func (c *Client) SetPushToken(ctx context.Context, house, token string) error {
	if err := c.do(ctx, http.MethodPut, housePath(house, "/push-token"), map[string]string{"token": token}, nil); err != nil {
		return fmt.Errorf("set push token: %w", err)
	}
	return nil
}
