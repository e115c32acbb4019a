package erptool

import (
	"context"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/tool"
)

type createConsumableArgs struct {
	Name              map[string]string `json:"name" description:"Consumable name per language code"`
	MeasurementTypeID string            `json:"measurement_type_id" description:"Id from get_all_measurement_types"`
	Quantity          float64           `json:"quantity" description:"Initial stock in measurement units, may be fractional"`
	UnitCost          float64           `json:"unit_cost" description:"Cost per measurement unit in UZS"`
	PhotoURLs         []string          `json:"photo_urls,omitempty" description:"Photo UUIDs"`
}

type updateConsumableArgs struct {
	ConsumableID string  `json:"consumable_id" description:"Consumable id (not the consumable_type_id)"`
	Quantity     float64 `json:"quantity" description:"New stock in measurement units"`
}

type updateConsumableTypeArgs struct {
	TypeID            string            `json:"type_id" description:"consumable_type_id"`
	Name              map[string]string `json:"name,omitempty" description:"New name per language code"`
	MeasurementTypeID string            `json:"measurement_type_id,omitempty"`
	PhotoURLs         []string          `json:"photo_urls,omitempty"`
}

type noArgs struct{}

func (s *Suite) consumableTools() []tool.Tool {
	c := s.client

	return []tool.Tool{
		define(s, "create_consumable_master",
			"Create a new consumable (ribbon, wrapping paper, ...) together with its consumable_type.",
			func(ctx context.Context, auth backend.Auth, a createConsumableArgs) backend.Result {
				return c.CreateConsumableMaster(ctx, auth, backend.CreateConsumableParams{
					Name:              a.Name,
					MeasurementTypeID: a.MeasurementTypeID,
					Quantity:          a.Quantity,
					UnitCost:          a.UnitCost,
					PhotoURLs:         a.PhotoURLs,
				})
			}),
		define(s, "get_consumables",
			"List the branch's consumables with their types, paginated.",
			func(ctx context.Context, auth backend.Auth, a listArgs) backend.Result {
				return c.GetConsumables(ctx, auth, a.query())
			}),
		define(s, "update_consumable",
			"Set a consumable's stock quantity.",
			func(ctx context.Context, auth backend.Auth, a updateConsumableArgs) backend.Result {
				return c.UpdateConsumable(ctx, auth, a.ConsumableID, a.Quantity)
			}),
		define(s, "update_consumable_type",
			"Update a consumable_type's name, measurement type or photos. Only the given fields change.",
			func(ctx context.Context, auth backend.Auth, a updateConsumableTypeArgs) backend.Result {
				return c.UpdateConsumableType(ctx, auth, a.TypeID, backend.UpdateConsumableTypeParams{
					Name:              a.Name,
					MeasurementTypeID: a.MeasurementTypeID,
					PhotoURLs:         a.PhotoURLs,
				})
			}),
		define(s, "delete_consumable_type",
			"Soft-delete a consumable_type together with its consumable.",
			func(ctx context.Context, auth backend.Auth, a typeIDArgs) backend.Result {
				return c.DeleteConsumableType(ctx, auth, a.TypeID)
			}),
		define(s, "get_all_measurement_types",
			"List the measurement units (pieces, meters, kilograms, ...) consumables are counted in.",
			func(ctx context.Context, auth backend.Auth, a langArgs) backend.Result {
				return c.GetMeasurementTypes(ctx, auth, a.Lang)
			}),
	}
}
