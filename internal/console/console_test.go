package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/session"
)

type recorder struct {
	prompts []string
	fail    map[string]error
}

func (r *recorder) Respond(_ context.Context, _ core.SessionKey, text string) (string, error) {
	r.prompts = append(r.prompts, text)
	if err := r.fail[text]; err != nil {
		return "", err
	}
	return "echo: " + text, nil
}

type mockLoginer struct{ mock.Mock }

func (m *mockLoginer) Login(ctx context.Context, key core.SessionKey, login, password string) error {
	return m.Called(ctx, key, login, password).Error(0)
}

var key = core.SessionKey{AppName: "erp_agent", UserID: "console", SessionID: "console"}

func TestRun_IntroThenLinesUntilExit(t *testing.T) {
	store := session.NewInMemoryStore()
	resp := &recorder{}
	var out bytes.Buffer
	c := New(store, resp, &mockLoginer{}, strings.NewReader("show roses\nplease exit now\nnever sent\n"), &out, nil)

	err := c.Run(context.Background(), Options{Key: key, Language: "uz"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Introduce yourself and contunue in language: uz", "show roses"}, resp.prompts)
	assert.Contains(t, out.String(), "echo: show roses")

	sess, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "uz", core.StateString(sess, core.StateUserLanguage))
	assert.False(t, core.StateBool(sess, core.StateAwaitingCredentials))
}

func TestRun_EOFEnds(t *testing.T) {
	resp := &recorder{}
	c := New(session.NewInMemoryStore(), resp, &mockLoginer{}, strings.NewReader(""), &bytes.Buffer{}, nil)

	require.NoError(t, c.Run(context.Background(), Options{Key: key}))
	assert.Equal(t, []string{"Introduce yourself and contunue in language: en"}, resp.prompts)
}

func TestRun_SeedsToken(t *testing.T) {
	store := session.NewInMemoryStore()
	c := New(store, &recorder{}, &mockLoginer{}, strings.NewReader("exit\n"), &bytes.Buffer{}, nil)

	require.NoError(t, c.Run(context.Background(), Options{Key: key, Language: "ru", BearerToken: "tok", MerchantID: "m1", BranchID: "b1"}))

	sess, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "tok", core.StateString(sess, core.StateBearerToken))
	assert.Equal(t, "m1", core.StateString(sess, core.StateMerchantID))
	assert.Equal(t, "b1", core.StateString(sess, core.StateBranchID))
	_, ok := sess.GetState(core.StateUserID)
	assert.False(t, ok)
}

func TestRun_LogsIn(t *testing.T) {
	l := &mockLoginer{}
	l.On("Login", mock.Anything, key, "alice", "secret").Return(nil).Once()
	c := New(session.NewInMemoryStore(), &recorder{}, l, strings.NewReader("exit\n"), &bytes.Buffer{}, nil)

	require.NoError(t, c.Run(context.Background(), Options{Key: key, Login: "alice", Password: "secret"}))
	l.AssertExpectations(t)
}

func TestRun_LoginFailureStops(t *testing.T) {
	l := &mockLoginer{}
	l.On("Login", mock.Anything, key, "alice", "bad").Return(errors.New("unauthorized")).Once()
	resp := &recorder{}
	c := New(session.NewInMemoryStore(), resp, l, strings.NewReader("exit\n"), &bytes.Buffer{}, nil)

	err := c.Run(context.Background(), Options{Key: key, Login: "alice", Password: "bad"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	assert.Empty(t, resp.prompts)
}

func TestRun_TurnErrorContinues(t *testing.T) {
	resp := &recorder{fail: map[string]error{"boom": errors.New("model down")}}
	var out bytes.Buffer
	c := New(session.NewInMemoryStore(), resp, &mockLoginer{}, strings.NewReader("boom\n\nstill here\nexit\n"), &out, nil)

	require.NoError(t, c.Run(context.Background(), Options{Key: key}))

	assert.Contains(t, out.String(), "error: model down")
	assert.Contains(t, out.String(), "echo: still here")
	assert.Len(t, resp.prompts, 3)
}

func TestRun_UnsupportedLanguage(t *testing.T) {
	c := New(session.NewInMemoryStore(), &recorder{}, &mockLoginer{}, strings.NewReader(""), &bytes.Buffer{}, nil)
	require.Error(t, c.Run(context.Background(), Options{Key: key, Language: "fr"}))
}
