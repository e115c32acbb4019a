package backend

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginReply(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "ref-1"})
	jsonReply(200, `{"data":{"userId":"u1","token":"tok-1"}}`)(w, nil)
}

func TestLogin(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/login":  loginReply,
		"GET /auth/users/u1": jsonReply(200, `{"data":{"merchantId":"m1","branchId":"b1"}}`),
	})

	res, err := c.Login(context.Background(), "alice", "secret")

	require.Nil(t, err)
	assert.Equal(t, LoginResult{UserID: "u1", BearerToken: "tok-1", RefreshToken: "ref-1", MerchantID: "m1", BranchID: "b1"}, res)
	assert.Equal(t, "Bearer tok-1", api.last(t).Header.Get("Authorization"))
	assert.Equal(t, 2, api.count())

	api.mu.Lock()
	first := api.requests[0]
	api.mu.Unlock()
	assert.Equal(t, map[string]any{"login": "alice", "password": "secret"}, first.Body)
	assert.Empty(t, first.Header.Get("Authorization"))
}

func TestLogin_BareUserPayload(t *testing.T) {
	_, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/login":   loginReply,
		"GET /auth/users/u1": jsonReply(200, `{"merchantId":"m2","branchId":"b2"}`),
	})

	res, err := c.Login(context.Background(), "alice", "secret")

	require.Nil(t, err)
	assert.Equal(t, "m2", res.MerchantID)
	assert.Equal(t, "b2", res.BranchID)
}

func TestLogin_BranchFallback(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/login":        loginReply,
		"GET /auth/users/u1":      jsonReply(200, `{"data":{"merchantId":"m1","branchId":null}}`),
		"GET /auth/branch/getAll": jsonReply(200, `{"data":[{"id":"b9"},{"id":"b10"}]}`),
	})

	res, err := c.Login(context.Background(), "alice", "secret")

	require.Nil(t, err)
	assert.Equal(t, "b9", res.BranchID)
	assert.Equal(t, []string{"m1"}, api.last(t).Query["merchantId"])
}

func TestLogin_NoBranches(t *testing.T) {
	_, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/login":        loginReply,
		"GET /auth/users/u1":      jsonReply(200, `{"data":{"merchantId":"m1"}}`),
		"GET /auth/branch/getAll": jsonReply(200, `{"data":[]}`),
	})

	_, err := c.Login(context.Background(), "alice", "secret")

	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	api, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/login": jsonReply(401, `{"message":"Invalid credentials"}`),
	})

	_, err := c.Login(context.Background(), "alice", "wrong")

	require.NotNil(t, err)
	assert.Equal(t, CodeUnauthorized, err.Code)
	assert.Equal(t, 401, err.HTTPStatus)
	assert.Equal(t, 1, api.count())
}

func TestLogin_MissingToken(t *testing.T) {
	_, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/login": jsonReply(200, `{"data":{}}`),
	})

	_, err := c.Login(context.Background(), "alice", "secret")

	require.NotNil(t, err)
	assert.Equal(t, CodeDecode, err.Code)
}

func TestLoginResult_StateDelta(t *testing.T) {
	delta := LoginResult{UserID: "u", BearerToken: "t", RefreshToken: "r", MerchantID: "m", BranchID: "b"}.StateDelta()

	assert.Equal(t, map[string]any{
		"user_id": "u", "merchant_id": "m", "branch_id": "b", "bearer_token": "t", "refresh_token": "r",
	}, delta)
}

func TestRefreshToken(t *testing.T) {
	var sent string
	_, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/refresh": func(w http.ResponseWriter, r *http.Request) {
			if ck, err := r.Cookie("refreshToken"); err == nil {
				sent = ck.Value
			}
			http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "ref-2"})
			jsonReply(200, `{"data":{"token":"tok-2"}}`)(w, r)
		},
	})

	res, err := c.RefreshToken(context.Background(), "ref-1")

	require.Nil(t, err)
	assert.Equal(t, "ref-1", sent)
	assert.Equal(t, RefreshResult{BearerToken: "tok-2", RefreshToken: "ref-2"}, res)
}

func TestRefreshToken_KeepsOldRefreshToken(t *testing.T) {
	_, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/refresh": jsonReply(200, `{"data":{"token":"tok-2"}}`),
	})

	res, err := c.RefreshToken(context.Background(), "ref-1")

	require.Nil(t, err)
	assert.Equal(t, "ref-1", res.RefreshToken)
}

func TestRefreshToken_Missing(t *testing.T) {
	api, c := newFakeAPI(t, nil)

	_, err := c.RefreshToken(context.Background(), "")

	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidArgument, err.Code)
	assert.Zero(t, api.count())
}

func TestRefreshToken_Expired(t *testing.T) {
	_, c := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /auth/refresh": jsonReply(401, `{}`),
	})

	_, err := c.RefreshToken(context.Background(), "ref-1")

	require.NotNil(t, err)
	assert.Equal(t, CodeUnauthorized, err.Code)
}
