package backend

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// OrderStatuses are the transaction statuses orders can be listed by.
var OrderStatuses = []string{"PENDING", "FAILED", "CANCELED", "REFUND", "SUCCESSFUL"}

// OrderProduct is one line of a new order.
type OrderProduct struct {
	ProductID   string  `json:"productId"`
	TypeID      string  `json:"typeId"`
	Quantity    float64 `json:"quantity"`
	ProductType string  `json:"productType"`
	Price       float64 `json:"price"`
}

// CreateOrderParams is the body of a new order. A nil GiftCardNote is sent as null.
type CreateOrderParams struct {
	Products     []OrderProduct
	PaymentType  string
	GiftCardNote *string
}

// GetPaymentTypes lists the accepted payment methods.
func (c *Client) GetPaymentTypes(ctx context.Context, auth Auth) Result {
	return c.call(ctx, c.authed("get payment types", http.MethodGet, "/transaction/payment-types", auth))
}

// CreateOrder places an order on behalf of the session user.
func (c *Client) CreateOrder(ctx context.Context, auth Auth, p CreateOrderParams) Result {
	const op = "create order"
	if err := requireScope(op, auth, true, true); err != nil {
		return fail(err)
	}
	if auth.UserID == "" {
		return fail(invalidArgument(op, "user_id is not set in the session"))
	}
	if len(p.Products) == 0 {
		return fail(invalidArgument(op, "at least one product is required"))
	}

	req := c.authed(op, http.MethodPost, "/transaction/orders", auth)
	req.body = map[string]any{
		"userId":       auth.UserID,
		"merchantId":   auth.MerchantID,
		"branchId":     auth.BranchID,
		"paymentType":  p.PaymentType,
		"products":     p.Products,
		"giftCardNote": p.GiftCardNote,
	}

	return c.call(ctx, req)
}

// GetOrdersByStatus lists orders in the given transaction status. The
// status is matched case-insensitively; unknown statuses are rejected
// without a request.
func (c *Client) GetOrdersByStatus(ctx context.Context, auth Auth, status string, page, limit *int) Result {
	const op = "get orders"

	status = strings.ToUpper(strings.TrimSpace(status))
	if !slices.Contains(OrderStatuses, status) {
		return fail(invalidArgument(op, "Invalid status: %s. Valid statuses are: %s",
			status, strings.Join(OrderStatuses, ", ")))
	}

	req := c.authed(op, http.MethodGet, "/transaction/orders", auth)
	req.query = url.Values{
		"page":              {strconv.Itoa(intOr(page, 1))},
		"limit":             {strconv.Itoa(intOr(limit, 20))},
		"transactionStatus": {status},
	}

	return c.call(ctx, req)
}

// ConfirmOrder moves an order to the confirmed state.
func (c *Client) ConfirmOrder(ctx context.Context, auth Auth, orderID string) Result {
	const op = "confirm order"
	if err := requireID(op, "order_id", orderID); err != nil {
		return fail(err)
	}

	req := c.authed(op, http.MethodPatch, "/transaction/orders/confirm", auth)
	req.query = url.Values{"orderId": {strings.TrimSpace(orderID)}}

	return c.call(ctx, req)
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, auth Auth, orderID string) Result {
	const op = "cancel order"
	if err := requireID(op, "order_id", orderID); err != nil {
		return fail(err)
	}

	return c.call(ctx, c.authed(op, http.MethodPatch, "/transaction/orders/cancel/"+pathID(orderID), auth))
}
