package backend

import (
	"net/url"
	"strconv"
	"strings"
)

// LocalizedText maps language codes (uz, ru, en) to text.
type LocalizedText map[string]string

// ListQuery holds the optional filters shared by the inventory list
// endpoints. Zero values are omitted from the request.
type ListQuery struct {
	Search  string
	TypeIDs []string
	IDs     []string
	// Lang asks for a single translation; empty returns all of them.
	Lang  string
	Page  *int
	Limit *int
	// Sort defaults to DefaultSort.
	Sort string
}

// Int returns a pointer to v, for optional numeric fields.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// values builds the list query for merchant and branch scoped endpoints.
func (q ListQuery) values(auth Auth) url.Values {
	v := url.Values{}
	v.Set("merchant_id", auth.MerchantID)
	v.Set("branch_id", auth.BranchID)

	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for _, id := range q.TypeIDs {
		v.Add("type_id", id)
	}
	for _, id := range q.IDs {
		v.Add("id", id)
	}
	if q.Lang != "" {
		v.Set("lang", q.Lang)
	}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)

	sort := q.Sort
	if sort == "" {
		sort = DefaultSort
	}
	v.Set("sort", sort)

	return v
}

func setInt(v url.Values, key string, p *int) {
	if p != nil {
		v.Set(key, strconv.Itoa(*p))
	}
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

// orEmpty turns a nil slice into an empty one so it encodes as [].
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// requireScope validates the merchant and branch identifiers a call needs.
func requireScope(op string, auth Auth, merchant, branch bool) *Error {
	if merchant && auth.MerchantID == "" {
		return invalidArgument(op, "merchant_id is not set in the session")
	}
	if branch && auth.BranchID == "" {
		return invalidArgument(op, "branch_id is not set in the session")
	}
	return nil
}

func requireID(op, name, id string) *Error {
	if strings.TrimSpace(id) == "" {
		return invalidArgument(op, "%s is required", name)
	}
	return nil
}
