package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/op/go-logging.v1"

	"goparley/internal/queue"
)

func testLogger() *logging.Logger {
	return logging.MustGetLogger("registry_test")
}

func TestRegisterDuplicate(t *testing.T) {
	require := require.New(t)

	r := New(testLogger())
	require.NoError(r.Register("alice", queue.New()))
	require.ErrorIs(r.Register("alice", queue.New()), ErrDuplicateNickname)
	require.Equal(1, r.Count())
}

func TestUnregisterIdempotent(t *testing.T) {
	require := require.New(t)

	r := New(testLogger())
	q := queue.New()
	require.NoError(r.Register("alice", q))

	r.Unregister("alice")
	require.Equal(0, r.Count())

	// The queue must be closed so the writer drains out.
	require.False(q.Push("late"))

	r.Unregister("alice")
	r.Unregister("never-existed")
}

func TestSendTo(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := New(testLogger())
	q := queue.New()
	require.NoError(r.Register("bob", q))

	require.NoError(r.SendTo("bob", "hello"))
	msg, ok := q.Next()
	require.True(ok)
	require.Equal("hello", msg)

	assert.ErrorIs(r.SendTo("nobody", "hello"), ErrNotFound)

	// A closed queue looks the same as an absent user.
	stale := queue.New()
	require.NoError(r.Register("carol", stale))
	stale.Close()
	assert.ErrorIs(r.SendTo("carol", "hello"), ErrNotFound)
}

func TestBroadcastExcept(t *testing.T) {
	require := require.New(t)

	r := New(testLogger())
	qa, qb, qc := queue.New(), queue.New(), queue.New()
	require.NoError(r.Register("alice", qa))
	require.NoError(r.Register("bob", qb))
	require.NoError(r.Register("carol", qc))

	r.BroadcastExcept("alice", "[all] alice: hi")

	require.Equal(0, qa.Len())
	msg, ok := qb.Next()
	require.True(ok)
	require.Equal("[all] alice: hi", msg)
	msg, ok = qc.Next()
	require.True(ok)
	require.Equal("[all] alice: hi", msg)
}

func TestListExcept(t *testing.T) {
	require := require.New(t)

	r := New(testLogger())
	require.NoError(r.Register("carol", queue.New()))
	require.NoError(r.Register("alice", queue.New()))
	require.NoError(r.Register("bob", queue.New()))

	require.Equal([]string{"alice", "carol"}, r.ListExcept("bob"))
	require.Equal([]string{"alice", "bob", "carol"}, r.ListExcept("dave"))
	require.Empty(New(testLogger()).ListExcept("anyone"))
}
