package erptool

import (
	"context"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/tool"
)

type productSpentArg struct {
	TypeID   string  `json:"type_id" description:"flower_type_id or consumable_type_id"`
	Quantity float64 `json:"quantity" description:"Amount used; pieces for flowers, measurement units for consumables"`
	Type     string  `json:"type" enum:"FLOWER,CONSUMABLE"`
}

func productsSpent(in []productSpentArg) []backend.ProductSpent {
	if in == nil {
		return nil
	}
	out := make([]backend.ProductSpent, len(in))
	for i, p := range in {
		out[i] = backend.ProductSpent{TypeID: p.TypeID, Quantity: p.Quantity, Type: p.Type}
	}
	return out
}

func localizedList(in []map[string]string) []backend.LocalizedText {
	if in == nil {
		return nil
	}
	out := make([]backend.LocalizedText, len(in))
	for i, t := range in {
		out[i] = t
	}
	return out
}

type createBouquetArgs struct {
	Name          map[string]string   `json:"name" description:"Bouquet name per language code"`
	Description   map[string]string   `json:"description" description:"Bouquet description per language code"`
	Price         int                 `json:"price" description:"Selling price in UZS"`
	SoldOnline    bool                `json:"sold_online"`
	PhotoURLs     []string            `json:"photo_urls,omitempty" description:"Photo UUIDs"`
	Tags          []map[string]string `json:"tags,omitempty" description:"Tags, each a text per language code"`
	ProductsSpent []productSpentArg   `json:"products_spent" description:"Flowers and consumables the bouquet is made of"`
}

type updateBouquetArgs struct {
	BouquetID  string `json:"bouquet_id" description:"Bouquet id (not the bouquet_type_id)"`
	Quantity   *int   `json:"quantity,omitempty"`
	Price      *int   `json:"price,omitempty" description:"New price in UZS"`
	SoldOnline *bool  `json:"sold_online,omitempty"`
}

type updateBouquetTypeArgs struct {
	updateTypeArgs
	Tags          []map[string]string `json:"tags,omitempty" description:"Tags, each a text per language code"`
	ProductsSpent []productSpentArg   `json:"products_spent,omitempty"`
}

func (s *Suite) bouquetTools() []tool.Tool {
	c := s.client

	return []tool.Tool{
		define(s, "create_bouquet_master",
			"Create a new bouquet together with its bouquet_type from flowers and consumables.",
			func(ctx context.Context, auth backend.Auth, a createBouquetArgs) backend.Result {
				return c.CreateBouquetMaster(ctx, auth, backend.CreateBouquetParams{
					Name:          a.Name,
					Description:   a.Description,
					Price:         a.Price,
					SoldOnline:    a.SoldOnline,
					PhotoURLs:     a.PhotoURLs,
					Tags:          localizedList(a.Tags),
					ProductsSpent: productsSpent(a.ProductsSpent),
				})
			}),
		define(s, "get_bouquets",
			"List the branch's bouquets with their types, paginated.",
			func(ctx context.Context, auth backend.Auth, a listArgs) backend.Result {
				return c.GetBouquets(ctx, auth, a.query())
			}),
		define(s, "update_bouquet",
			"Update a bouquet's quantity, price or online availability.",
			func(ctx context.Context, auth backend.Auth, a updateBouquetArgs) backend.Result {
				return c.UpdateBouquet(ctx, auth, a.BouquetID, backend.UpdateBouquetParams{
					Quantity:   a.Quantity,
					Price:      a.Price,
					SoldOnline: a.SoldOnline,
				})
			}),
		define(s, "update_bouquet_type",
			"Update a bouquet_type's name, description, tags, photos or composition. Only the given fields change.",
			func(ctx context.Context, auth backend.Auth, a updateBouquetTypeArgs) backend.Result {
				return c.UpdateBouquetType(ctx, auth, a.TypeID, backend.UpdateBouquetTypeParams{
					Name:          a.Name,
					Description:   a.Description,
					Tags:          localizedList(a.Tags),
					PhotoURLs:     a.PhotoURLs,
					ProductsSpent: productsSpent(a.ProductsSpent),
				})
			}),
		define(s, "delete_bouquet_type",
			"Soft-delete a bouquet_type together with its bouquet.",
			func(ctx context.Context, auth backend.Auth, a typeIDArgs) backend.Result {
				return c.DeleteBouquetType(ctx, auth, a.TypeID)
			}),
	}
}
