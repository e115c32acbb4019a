package backend

import (
	"context"
	"net/http"
)

// ProductSpent is one ingredient of a bouquet. Quantity may be fractional
// for consumables measured by weight or length.
type ProductSpent struct {
	TypeID   string  `json:"type_id"`
	Quantity float64 `json:"quantity"`
	Type     string  `json:"type"`
}

// CreateBouquetParams is the body of a new bouquet master.
type CreateBouquetParams struct {
	Name          LocalizedText
	Description   LocalizedText
	Price         int
	SoldOnline    bool
	PhotoURLs     []string
	Tags          []LocalizedText
	ProductsSpent []ProductSpent
}

// UpdateBouquetParams changes a bouquet. Nil fields are left untouched.
type UpdateBouquetParams struct {
	Quantity   *int
	Price      *int
	SoldOnline *bool
}

// UpdateBouquetTypeParams changes a bouquet type. Nil fields are left untouched.
type UpdateBouquetTypeParams struct {
	Name          LocalizedText
	Description   LocalizedText
	Tags          []LocalizedText
	PhotoURLs     []string
	ProductsSpent []ProductSpent
}

// CreateBouquetMaster creates a bouquet together with its type.
func (c *Client) CreateBouquetMaster(ctx context.Context, auth Auth, p CreateBouquetParams) Result {
	const op = "create bouquet (master)"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodPost, "/content/bouquets/master/", auth)
	req.body = map[string]any{
		"merchant_id":    auth.MerchantID,
		"branch_id":      auth.BranchID,
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price,
		"sold_online":    p.SoldOnline,
		"photo_urls":     orEmpty(p.PhotoURLs),
		"tags":           orEmpty(p.Tags),
		"products_spent": orEmpty(p.ProductsSpent),
	}

	return c.call(ctx, req)
}

// GetBouquets lists the branch's bouquets. Only an explicit q.Lang is sent.
func (c *Client) GetBouquets(ctx context.Context, auth Auth, q ListQuery) Result {
	const op = "get bouquets"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodGet, "/content/bouquets", auth)
	req.query = q.values(auth)

	return c.call(ctx, req)
}

// UpdateBouquet updates a bouquet's quantity, price or online flag.
func (c *Client) UpdateBouquet(ctx context.Context, auth Auth, bouquetID string, p UpdateBouquetParams) Result {
	const op = "update bouquet"
	if err := requireID(op, "bouquet_id", bouquetID); err != nil {
		return fail(err)
	}

	body := map[string]any{}
	if p.Quantity != nil {
		body["quantity"] = *p.Quantity
	}
	if p.Price != nil {
		body["price"] = *p.Price
	}
	if p.SoldOnline != nil {
		body["sold_online"] = *p.SoldOnline
	}

	req := c.authed(op, http.MethodPut, "/content/bouquets/"+pathID(bouquetID)+"/", auth)
	req.body = body

	return c.call(ctx, req)
}

// UpdateBouquetType updates a bouquet type.
func (c *Client) UpdateBouquetType(ctx context.Context, auth Auth, typeID string, p UpdateBouquetTypeParams) Result {
	const op = "update bouquet type"
	if err := requireID(op, "bouquet_type_id", typeID); err != nil {
		return fail(err)
	}

	body := UpdateTypeParams{Name: p.Name, Description: p.Description, PhotoURLs: p.PhotoURLs}.body()
	if p.Tags != nil {
		body["tags"] = p.Tags
	}
	if p.ProductsSpent != nil {
		body["products_spent"] = p.ProductsSpent
	}

	req := c.authed(op, http.MethodPut, "/content/bouquet-types/"+pathID(typeID)+"/", auth)
	req.body = body

	return c.call(ctx, req)
}

// DeleteBouquetType soft-deletes a bouquet type with its bouquet.
func (c *Client) DeleteBouquetType(ctx context.Context, auth Auth, typeID string) Result {
	return c.deleteType(ctx, auth, "bouquet_type", "/content/bouquet-types/", typeID)
}
