package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func testKey(user string) core.SessionKey {
	return core.SessionKey{AppName: "oygul", UserID: user, SessionID: user}
}

func TestInMemoryStore_CreateGet(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get(testKey("u1"))
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	seed := map[string]any{core.StateUserLanguage: "ru"}
	_, err = s.Create(testKey("u1"), seed)
	require.NoError(t, err)

	seed[core.StateUserLanguage] = "en"

	got, err := s.Get(testKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "ru", core.StateString(got, core.StateUserLanguage))
}

func TestInMemoryStore_CreateReplaces(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Create(testKey("u1"), map[string]any{core.StateBearerToken: "tok"})
	_, _ = s.Create(testKey("u1"), map[string]any{core.StateUserLanguage: "uz"})

	got, err := s.Get(testKey("u1"))
	require.NoError(t, err)
	_, ok := got.GetState(core.StateBearerToken)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStore_KeysAreIsolated(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Create(testKey("u1"), map[string]any{"k": 1})
	other := testKey("u1")
	other.AppName = "other"
	_, err := s.Get(other)
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestInMemoryStore_AppendEventMergesDelta(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Create(testKey("u1"), map[string]any{core.StateUserLanguage: "ru", core.StateAwaitingCredentials: true})

	ev := core.NewStateDeltaEvent("inv", core.AuthorSystem, map[string]any{core.StateAwaitingCredentials: false, core.StateBearerToken: "tok"})
	require.NoError(t, s.AppendEvent(testKey("u1"), ev))

	got, _ := s.Get(testKey("u1"))
	assert.Equal(t, "ru", core.StateString(got, core.StateUserLanguage))
	assert.False(t, core.StateBool(got, core.StateAwaitingCredentials))
	assert.Equal(t, "tok", core.StateString(got, core.StateBearerToken))
	assert.Empty(t, got.GetEvents(), "state-only events are not recorded in history")

	msg := core.NewMessageEvent("inv", "flower_agent", "hello")
	require.NoError(t, s.AppendEvent(testKey("u1"), msg))
	got, _ = s.Get(testKey("u1"))
	assert.Len(t, got.GetEvents(), 1)
}

func TestInMemoryStore_UnknownSession(t *testing.T) {
	s := NewInMemoryStore()
	require.ErrorIs(t, s.AppendEvent(testKey("x"), core.NewEvent("i", "a")), core.ErrSessionNotFound)
	require.ErrorIs(t, s.ApplyDelta(testKey("x"), map[string]any{"a": 1}), core.ErrSessionNotFound)
	require.NoError(t, s.Delete(testKey("x")))
}

func TestInMemoryStore_ReturnsClones(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Create(testKey("u1"), nil)
	got, _ := s.Get(testKey("u1"))
	got.ApplyStateDelta(map[string]any{"leak": true})

	again, _ := s.Get(testKey("u1"))
	_, ok := again.GetState("leak")
	assert.False(t, ok)
}

func TestInMemoryStore_ConcurrentDeltas(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Create(testKey("u1"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.ApplyDelta(testKey("u1"), map[string]any{string(rune('a' + i%26)): i})
		}(i)
	}
	wg.Wait()

	got, _ := s.Get(testKey("u1"))
	assert.Len(t, got.StateSnapshot(), 26)
}
