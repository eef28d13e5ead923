package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	st := NewStore(time.Hour)
	assert.Zero(t, st.Len())

	sess := st.Create(nil)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, st.Len())

	got, ok := st.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = st.Get("no-such-session")
	assert.False(t, ok)

	st.Delete(sess.ID)
	assert.Zero(t, st.Len())
	_, ok = st.Get(sess.ID)
	assert.False(t, ok)
}

func TestSessionIDsAreUnique(t *testing.T) {
	st := NewStore(time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		sess := st.Create(nil)
		assert.False(t, seen[sess.ID])
		seen[sess.ID] = true
	}
}

func TestGetRefreshesExpiry(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create(nil)

	sess.Mu.Lock()
	before := sess.lastUsed
	sess.Mu.Unlock()

	time.Sleep(time.Millisecond)
	_, ok := st.Get(sess.ID)
	require.True(t, ok)

	sess.Mu.Lock()
	after := sess.lastUsed
	sess.Mu.Unlock()
	assert.True(t, after.After(before))
}

func TestTTLFallsBackToAnHour(t *testing.T) {
	st := NewStore(0)
	assert.Equal(t, time.Hour, st.ttl)
}

func TestTTLFromEnvironment(t *testing.T) {
	t.Setenv("SIM_SESSION_TTL", "30m")
	st := NewStore(time.Hour)
	assert.Equal(t, 30*time.Minute, st.ttl)
}
