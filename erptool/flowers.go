package erptool

import (
	"context"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/tool"
)

type createFlowerArgs struct {
	Name           map[string]string `json:"name" description:"Flower name per language code (uz, ru, en)"`
	Description    map[string]string `json:"description" description:"Flower description per language code"`
	Quantity       int               `json:"quantity" description:"Initial stock in pieces"`
	UnitCost       int               `json:"unit_cost" description:"Cost per piece in UZS"`
	Price          int               `json:"price" description:"Selling price per piece in UZS"`
	SoldSeparately bool              `json:"sold_separately,omitempty" description:"Whether the flower is sold by the piece. Default false"`
	SoldOnline     *bool             `json:"sold_online,omitempty" description:"Whether the flower is sold online. Default true"`
	PhotoURLs      []string          `json:"photo_urls,omitempty" description:"Photo UUIDs"`
}

type listArgs struct {
	Search  string   `json:"search,omitempty" description:"Free-text search over names and descriptions"`
	TypeIDs []string `json:"type_ids,omitempty" description:"Filter by type ids"`
	IDs     []string `json:"ids,omitempty" description:"Filter by product ids"`
	Page    *int     `json:"page,omitempty" description:"Page number, starting at 1"`
	Limit   *int     `json:"limit,omitempty" description:"Items per page"`
	Sort    string   `json:"sort,omitempty" description:"Sort order '<field>-<direction>', e.g. 'updatedAt-desc', 'price-asc', 'quantity-desc'. Default 'updatedAt-desc'"`
	Lang    string   `json:"lang,omitempty" enum:"uz,ru,en" description:"Return a single translation; omit to get names in every language"`
}

func (a listArgs) query() backend.ListQuery {
	return backend.ListQuery{Search: a.Search, TypeIDs: a.TypeIDs, IDs: a.IDs, Lang: a.Lang, Page: a.Page, Limit: a.Limit, Sort: a.Sort}
}

type langArgs struct {
	Lang string `json:"lang,omitempty" enum:"uz,ru,en" description:"Return a single translation; omit to get every language"`
}

type updateFlowerArgs struct {
	FlowerID       string `json:"flower_id" description:"Flower id (not the flower_type_id)"`
	Quantity       int    `json:"quantity" description:"New stock in pieces"`
	Price          *int   `json:"price,omitempty" description:"New price in UZS"`
	SoldSeparately *bool  `json:"sold_separately,omitempty"`
	SoldOnline     *bool  `json:"sold_online,omitempty"`
}

type updateTypeArgs struct {
	TypeID      string            `json:"type_id" description:"Id of the type to update"`
	Name        map[string]string `json:"name,omitempty" description:"New name per language code"`
	Description map[string]string `json:"description,omitempty" description:"New description per language code"`
	PhotoURLs   []string          `json:"photo_urls,omitempty" description:"Photo UUIDs"`
}

func (a updateTypeArgs) params() backend.UpdateTypeParams {
	return backend.UpdateTypeParams{Name: a.Name, Description: a.Description, PhotoURLs: a.PhotoURLs}
}

type typeIDArgs struct {
	TypeID string `json:"type_id" description:"Id of the type"`
}

func (s *Suite) flowerTools() []tool.Tool {
	c := s.client

	return []tool.Tool{
		define(s, "create_flower_master",
			"Create a new flower together with its flower_type in the current branch.",
			func(ctx context.Context, auth backend.Auth, a createFlowerArgs) backend.Result {
				soldOnline := true
				if a.SoldOnline != nil {
					soldOnline = *a.SoldOnline
				}
				return c.CreateFlowerMaster(ctx, auth, backend.CreateFlowerParams{
					Name:           a.Name,
					Description:    a.Description,
					Quantity:       a.Quantity,
					UnitCost:       a.UnitCost,
					Price:          a.Price,
					SoldSeparately: a.SoldSeparately,
					SoldOnline:     soldOnline,
					PhotoURLs:      a.PhotoURLs,
				})
			}),
		define(s, "get_flowers",
			"List the branch's flowers with their types, paginated. Omit filters to list everything.",
			func(ctx context.Context, auth backend.Auth, a listArgs) backend.Result {
				return c.GetFlowers(ctx, auth, a.query())
			}),
		define(s, "update_flower",
			"Update a flower's quantity, price or availability. Use update_flower_type for name, description or photos.",
			func(ctx context.Context, auth backend.Auth, a updateFlowerArgs) backend.Result {
				return c.UpdateFlower(ctx, auth, a.FlowerID, backend.UpdateFlowerParams{
					Quantity:       a.Quantity,
					Price:          a.Price,
					SoldSeparately: a.SoldSeparately,
					SoldOnline:     a.SoldOnline,
				})
			}),
		define(s, "update_flower_type",
			"Update a flower_type's name, description or photos. Only the given fields change.",
			func(ctx context.Context, auth backend.Auth, a updateTypeArgs) backend.Result {
				return c.UpdateFlowerType(ctx, auth, a.TypeID, a.params())
			}),
		define(s, "delete_flower_type",
			"Soft-delete a flower_type together with its flower.",
			func(ctx context.Context, auth backend.Auth, a typeIDArgs) backend.Result {
				return c.DeleteFlowerType(ctx, auth, a.TypeID)
			}),
	}
}
