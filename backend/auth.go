package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const refreshCookie = "refreshToken"

// LoginResult holds the identifiers and tokens of a successful login.
type LoginResult struct {
	UserID       string
	BearerToken  string
	RefreshToken string
	MerchantID   string
	BranchID     string
}

// StateDelta renders the login as session state entries.
func (l LoginResult) StateDelta() map[string]any {
	return map[string]any{
		"user_id":       l.UserID,
		"merchant_id":   l.MerchantID,
		"branch_id":     l.BranchID,
		"bearer_token":  l.BearerToken,
		"refresh_token": l.RefreshToken,
	}
}

// RefreshResult holds a renewed token pair.
type RefreshResult struct {
	BearerToken  string
	RefreshToken string
}

// Login authenticates with login and password, then resolves the user's
// merchant and branch. When the user has no branch the merchant's first
// branch is used. Bad credentials yield CodeUnauthorized.
func (c *Client) Login(ctx context.Context, login, password string) (LoginResult, *Error) {
	const op = "log in"

	resp, apiErr := c.send(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"login": login, "password": password},
	})
	if apiErr != nil {
		return LoginResult{}, apiErr
	}

	if !gjson.ValidBytes(resp.body) {
		return LoginResult{}, newError(op, CodeDecode, resp.status, "response is not valid JSON")
	}

	res := LoginResult{
		UserID:       gjson.GetBytes(resp.body, "data.userId").String(),
		BearerToken:  gjson.GetBytes(resp.body, "data.token").String(),
		RefreshToken: cookieValue(resp.cookies, refreshCookie),
	}
	if res.UserID == "" || res.BearerToken == "" {
		return LoginResult{}, newError(op, CodeDecode, resp.status, "response has no data.userId or data.token")
	}

	user := c.GetUser(ctx, res.UserID, res.BearerToken)
	if !user.OK() {
		return LoginResult{}, user.Err
	}

	res.MerchantID = field(user.Data, "merchantId")
	res.BranchID = field(user.Data, "branchId")

	if res.BranchID == "" && res.MerchantID != "" {
		branch, apiErr := c.GetBranchIDByMerchant(ctx, res.MerchantID, res.BearerToken)
		if apiErr != nil {
			return LoginResult{}, apiErr
		}
		res.BranchID = branch
	}

	return res, nil
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, userID, token string) Result {
	const op = "get user"
	if err := requireID(op, "user_id", userID); err != nil {
		return fail(err)
	}

	return c.call(ctx, request{op: op, method: http.MethodGet, path: "/auth/users/" + pathID(userID), token: token})
}

// GetBranchIDByMerchant returns the id of the merchant's first branch.
func (c *Client) GetBranchIDByMerchant(ctx context.Context, merchantID, token string) (string, *Error) {
	const op = "get branch"

	res := c.call(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/auth/branch/getAll",
		query:  url.Values{"merchantId": {merchantID}},
		token:  token,
	})
	if !res.OK() {
		return "", res.Err
	}

	id := lookup(res.Data, "data.0.id")
	if id == "" {
		return "", newError(op, CodeNotFound, 0, "merchant "+merchantID+" has no branches")
	}

	return id, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (RefreshResult, *Error) {
	const op = "refresh token"
	if refreshToken == "" {
		return RefreshResult{}, invalidArgument(op, "refresh_token is not set in the session")
	}

	resp, apiErr := c.send(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    "/auth/refresh",
		cookies: []*http.Cookie{{Name: refreshCookie, Value: refreshToken}},
	})
	if apiErr != nil {
		return RefreshResult{}, apiErr
	}

	res := RefreshResult{
		BearerToken:  gjson.GetBytes(resp.body, "data.token").String(),
		RefreshToken: cookieValue(resp.cookies, refreshCookie),
	}
	if res.BearerToken == "" {
		return RefreshResult{}, newError(op, CodeDecode, resp.status, "response has no data.token")
	}
	if res.RefreshToken == "" {
		res.RefreshToken = refreshToken
	}

	return res, nil
}

// field reads key from a user payload that is either wrapped in "data" or
// returned bare.
func field(payload any, key string) string {
	if v := lookup(payload, "data."+key); v != "" {
		return v
	}
	return lookup(payload, key)
}

// lookup evaluates a gjson path against a decoded JSON value.
func lookup(payload any, path string) string {
	raw, err := jsonBytes(payload)
	if err != nil {
		return ""
	}
	v := gjson.GetBytes(raw, path)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}
