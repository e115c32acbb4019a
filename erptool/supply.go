package erptool

import (
	"context"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/tool"
)

type createSupplyArgs struct {
	Quantity    int    `json:"quantity" description:"Quantity supplied"`
	UnitCost    int    `json:"unit_cost" description:"Cost per unit in UZS"`
	ProductType string `json:"product_type" enum:"FLOWER,CONSUMABLE,SWEET"`
	ProductID   string `json:"product_id" description:"Id of the supplied product"`
}

func (s *Suite) createSupply() tool.Tool {
	return define(s, "create_supply",
		"Record a supply of flowers, consumables or sweets received by the branch today.",
		func(ctx context.Context, auth backend.Auth, a createSupplyArgs) backend.Result {
			return s.client.CreateSupply(ctx, auth, backend.CreateSupplyParams(a))
		})
}
