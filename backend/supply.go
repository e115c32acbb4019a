package backend

import (
	"context"
	"net/http"
)

// SupplyDateLayout is the UTC timestamp format of supplyDate.
const SupplyDateLayout = "2006-01-02T15:04:05"

// CreateSupplyParams records stock received for a product.
type CreateSupplyParams struct {
	Quantity    int
	UnitCost    int
	ProductType string
	ProductID   string
}

// CreateSupply records a supply for the session branch, dated now.
func (c *Client) CreateSupply(ctx context.Context, auth Auth, p CreateSupplyParams) Result {
	const op = "create supply"
	if err := requireScope(op, auth, false, true); err != nil {
		return fail(err)
	}
	if err := requireID(op, "product_id", p.ProductID); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodPost, "/content/supplies/", auth)
	req.body = map[string]any{
		"branchId":    auth.BranchID,
		"supplyDate":  c.now().UTC().Format(SupplyDateLayout),
		"quantity":    p.Quantity,
		"unitCost":    p.UnitCost,
		"productType": p.ProductType,
		"productId":   p.ProductID,
	}

	return c.call(ctx, req)
}
