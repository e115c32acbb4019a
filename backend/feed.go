package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FeedQuery filters the public product feed. Nil and empty fields are not sent.
type FeedQuery struct {
	Page        *int
	Limit       *int
	ProductType string
	Search      string
	MinPrice    *int
	MaxPrice    *int
	Sort        string
	HasDiscount *bool
	Tags        []string
}

// SearchFeed searches the public feed across product types. The feed does
// not require a bearer token; the merchant is narrowed to when known.
func (c *Client) SearchFeed(ctx context.Context, auth Auth, q FeedQuery) Result {
	lang := auth.Language
	if lang == "" {
		lang = DefaultFeedLang
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(intOr(q.Page, 1)))
	v.Set("limit", strconv.Itoa(intOr(q.Limit, 20)))
	v.Set("lang", lang)
	if auth.MerchantID != "" {
		v.Set("merchant_id", auth.MerchantID)
	}
	if q.ProductType != "" {
		v.Set("product_type", q.ProductType)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	setInt(v, "min_price", q.MinPrice)
	setInt(v, "max_price", q.MaxPrice)
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.HasDiscount != nil {
		v.Set("has_discount", strconv.FormatBool(*q.HasDiscount))
	}
	if len(q.Tags) > 0 {
		v.Set("tags", strings.Join(q.Tags, ","))
	}

	return c.call(ctx, request{op: "search feed", method: http.MethodGet, path: "/content/feed", query: v})
}
