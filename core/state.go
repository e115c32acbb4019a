package core

import (
	"fmt"
	"strconv"
)

// Well-known session state keys.
const (
	StateUserLanguage        = "user_language"
	StateAwaitingCredentials = "awaiting_credentials"
	StateUserID              = "user_id"
	StateMerchantID          = "merchant_id"
	StateBranchID            = "branch_id"
	StateBearerToken         = "bearer_token"
	StateRefreshToken        = "refresh_token"
	StateActiveAgent         = "active_agent"
)

// StateReader is implemented by every type exposing session state lookups
// (Session, RunContext, ToolContext).
type StateReader interface {
	GetState(key string) (any, bool)
}

// StateString returns the state value for key rendered as a string. Missing
// and nil values yield "".
func StateString(r StateReader, key string) string {
	v, ok := r.GetState(key)
	if !ok || v == nil {
		return ""
	}

	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// StateBool reports whether the state value for key is a true boolean.
func StateBool(r StateReader, key string) bool {
	v, ok := r.GetState(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// StateStringOr returns StateString or def when the value is empty.
func StateStringOr(r StateReader, key, def string) string {
	if s := StateString(r, key); s != "" {
		return s
	}
	return def
}
