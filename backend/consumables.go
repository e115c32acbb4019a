package backend

import (
	"context"
	"net/http"
)

// CreateConsumableParams is the body of a new consumable master. Quantity
// is measured in the unit of the measurement type and may be fractional.
type CreateConsumableParams struct {
	Name              LocalizedText
	MeasurementTypeID string
	Quantity          float64
	UnitCost          float64
	PhotoURLs         []string
}

// UpdateConsumableTypeParams changes a consumable type. Zero fields are left untouched.
type UpdateConsumableTypeParams struct {
	Name              LocalizedText
	MeasurementTypeID string
	PhotoURLs         []string
}

// CreateConsumableMaster creates a consumable together with its type.
func (c *Client) CreateConsumableMaster(ctx context.Context, auth Auth, p CreateConsumableParams) Result {
	const op = "create consumable (master)"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}
	if err := requireID(op, "measurement_type_id", p.MeasurementTypeID); err != nil {
		return fail(err)
	}

	body := map[string]any{
		"merchant_id":         auth.MerchantID,
		"branch_id":           auth.BranchID,
		"name":                p.Name,
		"measurement_type_id": p.MeasurementTypeID,
		"quantity":            p.Quantity,
		"unit_cost":           p.UnitCost,
	}
	if p.PhotoURLs != nil {
		body["photo_urls"] = p.PhotoURLs
	}

	req := c.authed(op, http.MethodPost, "/content/consumables/master/", auth)
	req.body = body

	return c.call(ctx, req)
}

// GetConsumables lists the branch's consumables. Only an explicit q.Lang is sent.
func (c *Client) GetConsumables(ctx context.Context, auth Auth, q ListQuery) Result {
	const op = "get consumables"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodGet, "/content/consumables", auth)
	req.query = q.values(auth)

	return c.call(ctx, req)
}

// UpdateConsumable sets a consumable's stock quantity.
func (c *Client) UpdateConsumable(ctx context.Context, auth Auth, consumableID string, quantity float64) Result {
	const op = "update consumable"
	if err := requireID(op, "consumable_id", consumableID); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodPut, "/content/consumables/"+pathID(consumableID)+"/", auth)
	req.body = map[string]any{"quantity": quantity}

	return c.call(ctx, req)
}

// UpdateConsumableType updates a consumable type.
func (c *Client) UpdateConsumableType(ctx context.Context, auth Auth, typeID string, p UpdateConsumableTypeParams) Result {
	const op = "update consumable type"
	if err := requireID(op, "consumable_type_id", typeID); err != nil {
		return fail(err)
	}

	body := UpdateTypeParams{Name: p.Name, PhotoURLs: p.PhotoURLs}.body()
	if p.MeasurementTypeID != "" {
		body["measurement_type_id"] = p.MeasurementTypeID
	}

	req := c.authed(op, http.MethodPut, "/content/consumable-types/"+pathID(typeID)+"/", auth)
	req.body = body

	return c.call(ctx, req)
}

// DeleteConsumableType soft-deletes a consumable type with its consumable.
func (c *Client) DeleteConsumableType(ctx context.Context, auth Auth, typeID string) Result {
	return c.deleteType(ctx, auth, "consumable_type", "/content/consumable-types/", typeID)
}

// GetMeasurementTypes lists the units consumables can be measured in. lang
// is sent only when set.
func (c *Client) GetMeasurementTypes(ctx context.Context, auth Auth, lang string) Result {
	const op = "get measurement types"

	req := c.authed(op, http.MethodGet, "/content/measurement-types", auth)
	if lang != "" {
		req.query = map[string][]string{"lang": {lang}}
	}

	return c.call(ctx, req)
}
