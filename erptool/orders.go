package erptool

import (
	"context"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/tool"
)

type feedArgs struct {
	Page        *int     `json:"page,omitempty" description:"Page number, default 1"`
	Limit       *int     `json:"limit,omitempty" description:"Items per page, default 20"`
	ProductType string   `json:"product_type,omitempty" enum:"BOUQUET,FLOWER,SWEET,SWEET_BOX,CONSUMABLE,BOUQUET_TYPE,FLOWER_TYPE,SWEET_TYPE,SWEET_BOX_TYPE,CONSUMABLE_TYPE"`
	Search      string   `json:"search,omitempty" description:"Case-insensitive search over names and descriptions"`
	MinPrice    *int     `json:"min_price,omitempty" description:"Minimum price in UZS, inclusive"`
	MaxPrice    *int     `json:"max_price,omitempty" description:"Maximum price in UZS, inclusive"`
	Sort        string   `json:"sort,omitempty" enum:"price-ascending,price-descending,createdAt-ascending,createdAt-descending,updatedAt-ascending,updatedAt-descending,rating-ascending,rating-descending"`
	HasDiscount *bool    `json:"has_discount,omitempty" description:"Only discounted (true) or only full-price (false) products"`
	Tags        []string `json:"tags,omitempty" description:"Products must carry all of these tags, e.g. ['Mono', 'Red']"`
}

type orderProductArg struct {
	ProductID   string  `json:"productId"`
	TypeID      string  `json:"typeId"`
	Quantity    float64 `json:"quantity"`
	ProductType string  `json:"productType" enum:"BOUQUET,FLOWER,SWEET,SWEET_BOX"`
	Price       float64 `json:"price" description:"Unit price in UZS"`
}

type createOrderArgs struct {
	Products     []orderProductArg `json:"products" description:"Products as listed by search_feed"`
	PaymentType  string            `json:"payment_type" description:"A name from get_payment_types, e.g. CLICK"`
	GiftCardNote *string           `json:"gift_card_note,omitempty"`
}

type ordersByStatusArgs struct {
	Status string `json:"status" description:"One of PENDING, FAILED, CANCELED, REFUND, SUCCESSFUL"`
	Page   *int   `json:"page,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

type orderIDArgs struct {
	OrderID string `json:"order_id" description:"The complete order id"`
}

func (s *Suite) searchFeed() tool.Tool {
	return define(s, "search_feed",
		"Search the shop's public product feed (bouquets, flowers, sweets, ...).",
		func(ctx context.Context, auth backend.Auth, a feedArgs) backend.Result {
			return s.client.SearchFeed(ctx, auth, backend.FeedQuery{
				Page:        a.Page,
				Limit:       a.Limit,
				ProductType: a.ProductType,
				Search:      a.Search,
				MinPrice:    a.MinPrice,
				MaxPrice:    a.MaxPrice,
				Sort:        a.Sort,
				HasDiscount: a.HasDiscount,
				Tags:        a.Tags,
			})
		})
}

func (s *Suite) orderTools() []tool.Tool {
	c := s.client

	return []tool.Tool{
		define(s, "get_payment_types",
			"List the accepted payment methods.",
			func(ctx context.Context, auth backend.Auth, _ noArgs) backend.Result {
				return c.GetPaymentTypes(ctx, auth)
			}),
		define(s, "create_order",
			"Place an order. Only call after the customer confirmed the full order summary.",
			func(ctx context.Context, auth backend.Auth, a createOrderArgs) backend.Result {
				products := make([]backend.OrderProduct, len(a.Products))
				for i, p := range a.Products {
					products[i] = backend.OrderProduct(p)
				}
				return c.CreateOrder(ctx, auth, backend.CreateOrderParams{
					Products:     products,
					PaymentType:  a.PaymentType,
					GiftCardNote: a.GiftCardNote,
				})
			}),
		define(s, "get_orders_by_status",
			"List orders in a transaction status. Use PENDING before confirming or canceling.",
			func(ctx context.Context, auth backend.Auth, a ordersByStatusArgs) backend.Result {
				return c.GetOrdersByStatus(ctx, auth, a.Status, a.Page, a.Limit)
			}),
		define(s, "confirm_order",
			"Confirm a PENDING order the customer selected.",
			func(ctx context.Context, auth backend.Auth, a orderIDArgs) backend.Result {
				return c.ConfirmOrder(ctx, auth, a.OrderID)
			}),
		define(s, "cancel_order",
			"Cancel a PENDING order the customer selected.",
			func(ctx context.Context, auth backend.Auth, a orderIDArgs) backend.Result {
				return c.CancelOrder(ctx, auth, a.OrderID)
			}),
	}
}
