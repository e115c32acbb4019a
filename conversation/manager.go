// Package conversation drives the session lifecycle of a messaging front
// end: language selection, credential capture and per-turn dispatch to the
// assistant.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/logging"
)

// Defaults used by NewManager.
const (
	DefaultAppName    = "erp_agent"
	DefaultKeyPrefix  = "telegram_"
	LoginInvocationID = "inv_login_update"
)

// Responder answers one user turn in a session.
type Responder interface {
	Respond(ctx context.Context, key core.SessionKey, text string) (string, error)
}

// Authenticator exchanges credentials for session identifiers and tokens.
type Authenticator interface {
	Login(ctx context.Context, login, password string) (backend.LoginResult, *backend.Error)
}

// Reply is what the front end shows the user. ChooseLanguage asks for the
// language keyboard to be attached.
type Reply struct {
	Text           string
	ChooseLanguage bool
}

// Options configures a Manager.
type Options struct {
	AppName   string
	KeyPrefix string
	Logger    logging.Logger
}

// Manager implements the lifecycle over an explicit session store. It is
// safe for concurrent use across users; callers serialize turns of the same
// user.
type Manager struct {
	store     core.SessionStore
	responder Responder
	auth      Authenticator
	appName   string
	keyPrefix string
	logger    logging.Logger
}

// NewManager creates a Manager.
func NewManager(store core.SessionStore, responder Responder, auth Authenticator, optFns ...func(o *Options)) *Manager {
	opts := Options{
		AppName:   DefaultAppName,
		KeyPrefix: DefaultKeyPrefix,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		store:     store,
		responder: responder,
		auth:      auth,
		appName:   opts.AppName,
		keyPrefix: opts.KeyPrefix,
		logger:    logging.Component(opts.Logger, "conversation"),
	}
}

// Key returns the session key of userID.
func (m *Manager) Key(userID string) core.SessionKey {
	return core.SessionKey{AppName: m.appName, UserID: userID, SessionID: m.keyPrefix + userID}
}

// Stage returns the lifecycle stage of userID.
func (m *Manager) Stage(userID string) Stage {
	return StageOf(m.session(userID))
}

// Start greets a user with a known language and asks everyone else to pick
// one.
func (m *Manager) Start(_ context.Context, userID string) Reply {
	sess := m.session(userID)
	if sess != nil {
		if lang := core.StateString(sess, core.StateUserLanguage); lang != "" {
			return Reply{Text: text(lang, msgGreeting)}
		}
	}
	return Reply{Text: text(DefaultLanguage, msgChooseLanguage), ChooseLanguage: true}
}

// SelectLanguage replaces the user's session with a fresh one in lang that
// awaits credentials.
func (m *Manager) SelectLanguage(_ context.Context, userID, lang string) (Reply, error) {
	if !SupportedLanguage(lang) {
		return Reply{}, fmt.Errorf("unsupported language %q", lang)
	}

	key := m.Key(userID)
	if err := m.store.Delete(key); err != nil {
		return Reply{}, fmt.Errorf("failed to delete session: %w", err)
	}

	state := map[string]any{
		core.StateUserLanguage:        lang,
		core.StateAwaitingCredentials: true,
	}
	if _, err := m.store.Create(key, state); err != nil {
		return Reply{}, fmt.Errorf("failed to create session: %w", err)
	}

	m.logger.Info("conversation.language.selected", "user", userID, "lang", lang)

	return Reply{Text: text(lang, msgCredentialPrompt)}, nil
}

// HandleText processes a plain text message. onPending, when set, is called
// right before a turn is forwarded to the responder.
func (m *Manager) HandleText(ctx context.Context, userID, msg string, onPending func()) Reply {
	sess := m.session(userID)
	lang := DefaultLanguage
	if sess != nil {
		lang = core.StateStringOr(sess, core.StateUserLanguage, DefaultLanguage)
	}

	switch StageOf(sess) {
	case StageNew, StageAwaitingLanguage:
		return Reply{Text: text(DefaultLanguage, msgSelectLanguageFirst)}
	case StageAwaitingCredentials:
		return m.handleCredentials(ctx, userID, lang, msg)
	}

	if core.StateString(sess, core.StateBearerToken) == "" {
		return Reply{Text: text(lang, msgLoginFirst)}
	}

	if onPending != nil {
		onPending()
	}

	answer, err := m.responder.Respond(ctx, m.Key(userID), msg)
	if err != nil {
		m.logger.Error("conversation.turn.failed", "user", userID, "error", err)
		return Reply{Text: text(lang, msgTurnFailed, err)}
	}

	return Reply{Text: answer}
}

func (m *Manager) handleCredentials(ctx context.Context, userID, lang, msg string) Reply {
	fields := strings.Fields(msg)
	if len(fields) != 2 {
		return Reply{Text: text(lang, msgCredentialFormat)}
	}

	err := m.Login(ctx, m.Key(userID), fields[0], fields[1])

	var apiErr *backend.Error
	switch {
	case err == nil:
		return Reply{Text: text(lang, msgLoginSucceeded)}
	case errors.As(err, &apiErr) && apiErr.HTTPStatus != 0:
		// any HTTP rejection in the login chain counts as bad credentials
		return Reply{Text: text(lang, msgLoginInvalid)}
	default:
		return Reply{Text: text(lang, msgLoginFailed, err)}
	}
}

// Login authenticates and merges the identifiers and tokens into the session
// at key through a system event. A failed login leaves the session unchanged
// and returns the *backend.Error.
func (m *Manager) Login(ctx context.Context, key core.SessionKey, login, password string) error {
	sess, err := m.store.Get(key)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	res, apiErr := m.auth.Login(ctx, login, password)
	if apiErr != nil {
		m.logger.Warn("conversation.login.failed", "user", key.UserID, "code", string(apiErr.Code))
		return apiErr
	}

	delta := res.StateDelta()
	delta[core.StateUserLanguage] = core.StateStringOr(sess, core.StateUserLanguage, DefaultLanguage)
	delta[core.StateAwaitingCredentials] = false

	ev := core.NewStateDeltaEvent(LoginInvocationID, core.AuthorSystem, delta)
	if err := m.store.AppendEvent(key, ev); err != nil {
		return fmt.Errorf("failed to store login: %w", err)
	}

	m.logger.Info("conversation.login.succeeded", "user", key.UserID, "merchant", res.MerchantID, "branch", res.BranchID)

	return nil
}

func (m *Manager) session(userID string) *core.Session {
	sess, err := m.store.Get(m.Key(userID))
	if err != nil {
		return nil
	}
	return sess
}
