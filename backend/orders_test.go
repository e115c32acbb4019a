package backend

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrdersByStatus(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"GET /transaction/orders": jsonReply(200, `{"data":[]}`),
	})

	res := c.GetOrdersByStatus(context.Background(), testAuth, "pending", nil, nil)

	require.True(t, res.OK())
	assert.Equal(t, map[string][]string{
		"page":              {"1"},
		"limit":             {"20"},
		"transactionStatus": {"PENDING"},
	}, api.last(t).Query)

	c.GetOrdersByStatus(context.Background(), testAuth, "Refund", Int(3), Int(50))
	assert.Equal(t, []string{"3"}, api.last(t).Query["page"])
	assert.Equal(t, []string{"50"}, api.last(t).Query["limit"])
}

func TestGetOrdersByStatus_InvalidStatusSendsNothing(t *testing.T) {
	api, c := newFakeAPI(t, nil)

	res := c.GetOrdersByStatus(context.Background(), testAuth, "shipped", nil, nil)

	assert.Equal(t, CodeInvalidArgument, res.Code())
	assert.Equal(t,
		"Failed to get orders: Invalid status: SHIPPED. Valid statuses are: PENDING, FAILED, CANCELED, REFUND, SUCCESSFUL",
		res.Err.Message)
	assert.Zero(t, api.count())
}

func TestCreateOrder(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /transaction/orders": jsonReply(201, `{"id":"o1"}`),
	})

	res := c.CreateOrder(context.Background(), testAuth, CreateOrderParams{
		Products:    []OrderProduct{{ProductID: "p1", TypeID: "t1", Quantity: 1, ProductType: "BOUQUET", Price: 446000}},
		PaymentType: "CLICK",
	})

	require.True(t, res.OK())
	body := api.last(t).Body
	assert.Equal(t, "u1", body["userId"])
	assert.Equal(t, "m1", body["merchantId"])
	assert.Equal(t, "b1", body["branchId"])
	assert.Equal(t, "CLICK", body["paymentType"])
	assert.Contains(t, body, "giftCardNote")
	assert.Nil(t, body["giftCardNote"])
	assert.Equal(t, []any{map[string]any{
		"productId": "p1", "typeId": "t1", "quantity": float64(1), "productType": "BOUQUET", "price": float64(446000),
	}}, body["products"])
}

func TestCreateOrder_Validation(t *testing.T) {
	api, c := newFakeAPI(t, nil)
	ctx := context.Background()

	assert.Equal(t, CodeInvalidArgument, c.CreateOrder(ctx, testAuth, CreateOrderParams{PaymentType: "CASH"}).Code())

	noUser := testAuth
	noUser.UserID = ""
	assert.Equal(t, CodeInvalidArgument, c.CreateOrder(ctx, noUser, CreateOrderParams{Products: []OrderProduct{{}}}).Code())
	assert.Zero(t, api.count())
}

func TestConfirmAndCancelOrder(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"PATCH /transaction/orders/confirm":   jsonReply(200, `{"status":"CONFIRMED"}`),
		"PATCH /transaction/orders/cancel/o2": jsonReply(200, `{"status":"CANCELED"}`),
	})
	ctx := context.Background()

	res := c.ConfirmOrder(ctx, testAuth, "  o1 \n")
	require.True(t, res.OK())
	assert.Equal(t, []string{"o1"}, api.last(t).Query["orderId"])

	res = c.CancelOrder(ctx, testAuth, "o2")
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"status": "CANCELED"}, res.Value())
}

func TestSearchFeed_Defaults(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"GET /content/feed": jsonReply(200, `{"data":[],"total":0}`),
	})

	res := c.SearchFeed(context.Background(), Auth{BearerToken: "tok"}, FeedQuery{})

	require.True(t, res.OK())
	got := api.last(t)
	assert.Equal(t, map[string][]string{"page": {"1"}, "limit": {"20"}, "lang": {"ru"}}, got.Query)
	assert.Empty(t, got.Header.Get("Authorization"), "feed is public")
}

func TestSearchFeed_Filters(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"GET /content/feed": jsonReply(200, `{}`),
	})

	c.SearchFeed(context.Background(), testAuth, FeedQuery{
		ProductType: "BOUQUET",
		Search:      "tulip",
		MinPrice:    Int(0),
		MaxPrice:    Int(500000),
		Sort:        "price-ascending",
		HasDiscount: Bool(false),
		Tags:        []string{"Mono", "Red"},
	})

	q := api.last(t).Query
	assert.Equal(t, []string{"m1"}, q["merchant_id"])
	assert.Equal(t, []string{"uz"}, q["lang"])
	assert.Equal(t, []string{"BOUQUET"}, q["product_type"])
	assert.Equal(t, []string{"0"}, q["min_price"])
	assert.Equal(t, []string{"500000"}, q["max_price"])
	assert.Equal(t, []string{"false"}, q["has_discount"])
	assert.Equal(t, []string{"Mono,Red"}, q["tags"])
}

func TestCreateSupply(t *testing.T) {
	fixed := time.Date(2025, 3, 8, 9, 30, 0, 0, time.FixedZone("UZT", 5*3600))
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /content/supplies/": jsonReply(201, `{"id":"s1"}`),
	}, WithClock(func() time.Time { return fixed }))

	res := c.CreateSupply(context.Background(), testAuth, CreateSupplyParams{
		Quantity: 40, UnitCost: 7000, ProductType: "FLOWER", ProductID: "f1",
	})

	require.True(t, res.OK())
	assert.Equal(t, map[string]any{
		"branchId":    "b1",
		"supplyDate":  "2025-03-08T04:30:00",
		"quantity":    float64(40),
		"unitCost":    float64(7000),
		"productType": "FLOWER",
		"productId":   "f1",
	}, api.last(t).Body)
}

func TestCreateSupply_RequiresBranch(t *testing.T) {
	api, c := newFakeAPI(t, nil)

	res := c.CreateSupply(context.Background(), Auth{BearerToken: "tok"}, CreateSupplyParams{ProductID: "f1"})

	assert.Equal(t, CodeInvalidArgument, res.Code())
	assert.Zero(t, api.count())
}
