package backend

import (
	"context"
	"net/http"
)

// CreateFlowerParams is the body of a new flower master. Quantity is a piece
// count.
type CreateFlowerParams struct {
	Name           LocalizedText
	Description    LocalizedText
	Quantity       int
	UnitCost       int
	Price          int
	SoldSeparately bool
	SoldOnline     bool
	PhotoURLs      []string
}

// UpdateFlowerParams changes a flower's stock and sale settings. Quantity is
// always sent.
type UpdateFlowerParams struct {
	Quantity       int
	Price          *int
	SoldSeparately *bool
	SoldOnline     *bool
}

// UpdateTypeParams changes a product type. Nil fields are left untouched.
type UpdateTypeParams struct {
	Name        LocalizedText
	Description LocalizedText
	PhotoURLs   []string
}

// CreateFlowerMaster creates a flower together with its type.
func (c *Client) CreateFlowerMaster(ctx context.Context, auth Auth, p CreateFlowerParams) Result {
	const op = "create flower (master)"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodPost, "/content/flowers/master/", auth)
	req.body = map[string]any{
		"merchant_id":     auth.MerchantID,
		"branch_id":       auth.BranchID,
		"name":            p.Name,
		"description":     p.Description,
		"quantity":        p.Quantity,
		"unit_cost":       p.UnitCost,
		"price":           p.Price,
		"sold_separately": p.SoldSeparately,
		"sold_online":     p.SoldOnline,
		"photo_urls":      orEmpty(p.PhotoURLs),
		"tags":            []any{},
		"consumables":     []any{},
	}

	return c.call(ctx, req)
}

// GetFlowers lists the branch's flowers. Without q.Lang the remote returns
// every translation.
func (c *Client) GetFlowers(ctx context.Context, auth Auth, q ListQuery) Result {
	const op = "get flowers"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodGet, "/content/flowers", auth)
	req.query = q.values(auth)

	return c.call(ctx, req)
}

// UpdateFlower updates a flower (not its type).
func (c *Client) UpdateFlower(ctx context.Context, auth Auth, flowerID string, p UpdateFlowerParams) Result {
	const op = "update flower master"
	if err := requireID(op, "flower_id", flowerID); err != nil {
		return fail(err)
	}

	body := map[string]any{"quantity": p.Quantity}
	if p.Price != nil {
		body["price"] = *p.Price
	}
	if p.SoldSeparately != nil {
		body["sold_separately"] = *p.SoldSeparately
	}
	if p.SoldOnline != nil {
		body["sold_online"] = *p.SoldOnline
	}

	req := c.authed(op, http.MethodPut, "/content/flowers/"+pathID(flowerID)+"/", auth)
	req.body = body

	return c.call(ctx, req)
}

// UpdateFlowerType updates a flower type's name, description or photos.
func (c *Client) UpdateFlowerType(ctx context.Context, auth Auth, typeID string, p UpdateTypeParams) Result {
	const op = "update flower type"
	if err := requireID(op, "flower_type_id", typeID); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodPut, "/content/flower-types/"+pathID(typeID)+"/", auth)
	req.body = p.body()

	return c.call(ctx, req)
}

// DeleteFlowerType soft-deletes a flower type with its flower.
func (c *Client) DeleteFlowerType(ctx context.Context, auth Auth, typeID string) Result {
	return c.deleteType(ctx, auth, "flower_type", "/content/flower-types/", typeID)
}

func (p UpdateTypeParams) body() map[string]any {
	body := map[string]any{}
	if p.Name != nil {
		body["name"] = p.Name
	}
	if p.Description != nil {
		body["description"] = p.Description
	}
	if p.PhotoURLs != nil {
		body["photo_urls"] = p.PhotoURLs
	}
	return body
}

// deleteType issues a type DELETE and reports the fixed success record.
func (c *Client) deleteType(ctx context.Context, auth Auth, kind, prefix, typeID string) Result {
	op := "delete " + kind
	if err := requireID(op, kind+"_id", typeID); err != nil {
		return fail(err)
	}

	if _, apiErr := c.send(ctx, c.authed(op, http.MethodDelete, prefix+pathID(typeID), auth)); apiErr != nil {
		return fail(apiErr)
	}

	return success(kind + " " + typeID + " deleted successfully.")
}
