package conversation

import "github.com/oygul/asil/core"

// Stage is the position of a user in the session lifecycle.
type Stage string

// Lifecycle stages, in order.
const (
	StageNew                 Stage = "NEW"
	StageAwaitingLanguage    Stage = "AWAITING_LANGUAGE"
	StageAwaitingCredentials Stage = "AWAITING_CREDENTIALS"
	StageAuthenticated       Stage = "AUTHENTICATED"
)

func (s Stage) String() string { return string(s) }

// StageOf derives the stage from a session. A nil session is NEW. A session
// that no longer awaits credentials counts as AUTHENTICATED even without a
// bearer token; HandleText then asks the user to log in.
func StageOf(sess *core.Session) Stage {
	switch {
	case sess == nil:
		return StageNew
	case core.StateString(sess, core.StateUserLanguage) == "":
		return StageAwaitingLanguage
	case core.StateBool(sess, core.StateAwaitingCredentials):
		return StageAwaitingCredentials
	default:
		return StageAuthenticated
	}
}
