package erptool

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/internal/testutil"
	"github.com/oygul/asil/tool"
)

type captured struct {
	method string
	path   string
	query  map[string][]string
	auth   string
	body   map[string]any
}

func newSuite(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Suite, *[]captured) {
	t.Helper()

	var reqs []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, path: r.URL.Path, query: r.URL.Query(), auth: r.Header.Get("Authorization")}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &c.body)
		}
		reqs = append(reqs, c)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewSuite(backend.New(srv.URL), opts...), &reqs
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func call(t *testing.T, s *Suite, tc *core.ToolContext, name string, args map[string]any) any {
	t.Helper()
	tl, ok := s.Registry().Get(name)
	require.True(t, ok, "tool %s", name)

	out, err := tl.Call(tc, args)
	require.NoError(t, err)
	return out
}

func loggedIn() *core.ToolContext {
	return testutil.NewSessionBuilder("42").LoggedIn("ru", "tok").ToolContext("flower_agent")
}

func TestSuite_Toolsets(t *testing.T) {
	s := NewSuite(backend.New(""))

	assert.Equal(t, []string{SetAuth, SetBouquets, SetConsumables, SetFlowers, SetOrders, SetSearch, SetSupply}, s.Toolsets())
	assert.Len(t, s.Registry().Names(), 24)

	orders, err := s.Toolset(SetOrders)
	require.NoError(t, err)
	names := make([]string, len(orders))
	for i, o := range orders {
		names[i] = o.Name()
	}
	assert.Equal(t, []string{"search_feed", "get_payment_types", "create_order", "get_orders_by_status", "confirm_order", "cancel_order"}, names)

	_, err = s.Toolset("sweets")
	assert.Error(t, err)

	_, err = s.Lookup("get_flowers", "fly")
	assert.ErrorContains(t, err, `unknown tool "fly"`)
}

func TestSuite_SchemasDeclared(t *testing.T) {
	s := NewSuite(backend.New(""))

	for _, tl := range s.Registry().Tools() {
		assert.NotEmpty(t, tl.Description(), tl.Name())
		assert.Equal(t, "object", tl.Parameters()["type"], tl.Name())
	}

	tl, _ := s.Registry().Get("get_bouquets")
	props := tl.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "search")
	assert.Contains(t, props, "lang")
	assert.NotContains(t, tl.Parameters(), "required")
}

func TestAuthFrom(t *testing.T) {
	tc := loggedIn()

	assert.Equal(t, backend.Auth{BearerToken: "tok", MerchantID: "3", BranchID: "5", UserID: "7", Language: "ru"}, AuthFrom(tc))
}

func TestGetFlowers_UsesSessionCredentials(t *testing.T) {
	s, reqs := newSuite(t, reply(200, `{"data":[{"id":"f1"}]}`))

	out := call(t, s, loggedIn(), "get_flowers", map[string]any{"search": "rose"})

	assert.Equal(t, map[string]any{"data": []any{map[string]any{"id": "f1"}}}, out)
	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, map[string][]string{
		"merchant_id": {"3"}, "branch_id": {"5"}, "search": {"rose"}, "sort": {"updatedAt-desc"},
	}, got.query)
}

func TestListTools_LangOnlyWhenAsked(t *testing.T) {
	s, reqs := newSuite(t, reply(200, `{"data":[]}`))

	call(t, s, loggedIn(), "get_consumables", map[string]any{})
	call(t, s, loggedIn(), "get_consumables", map[string]any{"lang": "en"})
	call(t, s, loggedIn(), "get_all_measurement_types", map[string]any{})
	call(t, s, loggedIn(), "get_all_measurement_types", map[string]any{"lang": "uz"})

	require.Len(t, *reqs, 4)
	assert.NotContains(t, (*reqs)[0].query, "lang")
	assert.Equal(t, []string{"en"}, (*reqs)[1].query["lang"])
	assert.NotContains(t, (*reqs)[2].query, "lang")
	assert.Equal(t, []string{"uz"}, (*reqs)[3].query["lang"])
}

func TestCreateFlowerMaster_IntQuantityAndDefaults(t *testing.T) {
	s, reqs := newSuite(t, reply(201, `{"id":"f9"}`))

	call(t, s, loggedIn(), "create_flower_master", map[string]any{
		"name": map[string]any{"en": "Tulip"}, "description": map[string]any{"en": "Yellow"},
		"quantity": 30, "unit_cost": 5000, "price": 9000,
	})

	body := (*reqs)[0].body
	assert.Equal(t, float64(30), body["quantity"])
	assert.Equal(t, true, body["sold_online"])
	assert.Equal(t, false, body["sold_separately"])
}

func TestCreateFlowerMaster_RejectsFractionalQuantity(t *testing.T) {
	s, reqs := newSuite(t, reply(201, `{}`))
	tl, _ := s.Registry().Get("create_flower_master")

	_, err := tl.Call(loggedIn(), map[string]any{
		"name": map[string]any{}, "description": map[string]any{}, "quantity": 2.5, "unit_cost": 1, "price": 1,
	})

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)
	assert.Empty(t, *reqs)
}

func TestUpdateConsumable_FloatQuantity(t *testing.T) {
	s, reqs := newSuite(t, reply(200, `{}`))

	call(t, s, loggedIn(), "update_consumable", map[string]any{"consumable_id": "c1", "quantity": 2.75})

	assert.Equal(t, "/content/consumables/c1/", (*reqs)[0].path)
	assert.Equal(t, map[string]any{"quantity": 2.75}, (*reqs)[0].body)
}

func TestCreateBouquetMaster_ProductsSpent(t *testing.T) {
	s, reqs := newSuite(t, reply(201, `{}`))

	call(t, s, loggedIn(), "create_bouquet_master", map[string]any{
		"name": map[string]any{"en": "Spring"}, "description": map[string]any{"en": "Mixed"},
		"price": 250000, "sold_online": true,
		"tags":           []any{map[string]any{"en": "Mono"}},
		"products_spent": []any{map[string]any{"type_id": "ft1", "quantity": 7, "type": "FLOWER"}},
	})

	body := (*reqs)[0].body
	assert.Equal(t, []any{map[string]any{"type_id": "ft1", "quantity": float64(7), "type": "FLOWER"}}, body["products_spent"])
	assert.Equal(t, []any{map[string]any{"en": "Mono"}}, body["tags"])
}

func TestSearchFeed_Unauthenticated(t *testing.T) {
	s, reqs := newSuite(t, reply(200, `{"data":[],"total":0}`))

	call(t, s, loggedIn(), "search_feed", map[string]any{"has_discount": true, "tags": []any{"Red"}})

	got := (*reqs)[0]
	assert.Empty(t, got.auth)
	assert.Equal(t, []string{"true"}, got.query["has_discount"])
	assert.Equal(t, []string{"ru"}, got.query["lang"])
	assert.Equal(t, []string{"3"}, got.query["merchant_id"])
}

func TestCreateOrder_Body(t *testing.T) {
	s, reqs := newSuite(t, reply(201, `{"id":"o1"}`))

	call(t, s, loggedIn(), "create_order", map[string]any{
		"products":       []any{map[string]any{"productId": "p1", "typeId": "t1", "quantity": 1, "productType": "BOUQUET", "price": 446000}},
		"payment_type":   "CLICK",
		"gift_card_note": "Happy Birthday!",
	})

	body := (*reqs)[0].body
	assert.Equal(t, "7", body["userId"])
	assert.Equal(t, "Happy Birthday!", body["giftCardNote"])
	assert.Equal(t, "CLICK", body["paymentType"])
}

func TestGetOrdersByStatus_InvalidStatusIsResult(t *testing.T) {
	s, reqs := newSuite(t, reply(200, `[]`))

	out := call(t, s, loggedIn(), "get_orders_by_status", map[string]any{"status": "lost"})

	rec := out.(map[string]any)
	assert.Equal(t, "error", rec["status"])
	assert.Equal(t, "invalid_argument", rec["error_code"])
	assert.Empty(t, *reqs)
}

func TestCreateSupply(t *testing.T) {
	s, reqs := newSuite(t, reply(201, `{"id":"s1"}`))

	call(t, s, loggedIn(), "create_supply", map[string]any{
		"quantity": 100, "unit_cost": 4000, "product_type": "FLOWER", "product_id": "f1",
	})

	body := (*reqs)[0].body
	assert.Equal(t, "5", body["branchId"])
	assert.Equal(t, "f1", body["productId"])
	assert.NotEmpty(t, body["supplyDate"])
}

func TestTokenExpired_AddsRefreshHint(t *testing.T) {
	m := metrics.NewMetrics()
	s, _ := newSuite(t, reply(401, `{"message":"jwt expired"}`), WithMetrics(m))

	out := call(t, s, loggedIn(), "get_payment_types", nil)

	rec := out.(map[string]any)
	assert.Equal(t, "token_expired", rec["error_code"])
	assert.Equal(t, RefreshHint, rec["hint"])
	assert.Equal(t, 401, rec["http_status"])

	totals, err := m.Totals()
	require.NoError(t, err)
	assert.Equal(t, float64(1), totals["tool_executions_total"])
}

func TestMissingToken_ProceedsUnauthenticated(t *testing.T) {
	s, reqs := newSuite(t, reply(401, `{}`))
	tc := testutil.NewSessionBuilder("42").State(core.StateMerchantID, "3").State(core.StateBranchID, "5").ToolContext("flower_agent")

	out := call(t, s, tc, "get_flowers", nil)

	assert.Empty(t, (*reqs)[0].auth)
	assert.Equal(t, "unauthorized", out.(map[string]any)["error_code"])
}

func TestRefreshToken_StagesNewTokens(t *testing.T) {
	s, reqs := newSuite(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "ref-new"})
		reply(200, `{"data":{"token":"tok-new"}}`)(w, r)
	})
	tc := loggedIn()

	out := call(t, s, tc, "refresh_token", nil)

	assert.Equal(t, map[string]any{"status": "success", "message": "Token refreshed."}, out)
	assert.Equal(t, "/auth/refresh", (*reqs)[0].path)
	assert.Equal(t, map[string]any{
		core.StateBearerToken:  "tok-new",
		core.StateRefreshToken: "ref-new",
	}, tc.Actions().StateDelta)
	assert.Equal(t, "tok-new", core.StateString(tc, core.StateBearerToken))
}

func TestRefreshToken_Failure(t *testing.T) {
	s, _ := newSuite(t, reply(401, `{}`))
	tc := loggedIn()

	out := call(t, s, tc, "refresh_token", nil)

	assert.Equal(t, "error", out.(map[string]any)["status"])
	assert.Empty(t, tc.Actions().StateDelta)
	assert.Equal(t, "tok", core.StateString(tc, core.StateBearerToken))
}
