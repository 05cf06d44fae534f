package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("public chat", PhasePublic.String())
	assert.Equal("waiting for private chat response", PhaseWaiting.String())
	assert.Equal("pending private chat request", PhasePending.String())
	assert.Equal("private chat", PhasePrivate.String())
	assert.Equal("unknown", Phase(99).String())
}

func TestStateCellGetSet(t *testing.T) {
	require := require.New(t)

	var c stateCell
	require.Equal(PhasePublic, c.Get().Phase)

	key := make([]byte, 32)
	c.Set(State{Phase: PhasePrivate, Partner: "bob", Key: key})
	got := c.Get()
	require.Equal(PhasePrivate, got.Phase)
	require.Equal("bob", got.Partner)
	require.Equal(key, got.Key)
}

func TestStateCellTransition(t *testing.T) {
	require := require.New(t)

	var c stateCell

	// A guarded transition from the matching phase applies.
	old, ok := c.Transition(func(s State) (State, bool) {
		if s.Phase != PhasePublic {
			return s, false
		}
		return State{Phase: PhaseWaiting, Partner: "bob"}, true
	})
	require.True(ok)
	require.Equal(PhasePublic, old.Phase)
	require.Equal(PhaseWaiting, c.Get().Phase)

	// The same guard from the wrong phase declines and leaves state alone.
	old, ok = c.Transition(func(s State) (State, bool) {
		if s.Phase != PhasePublic {
			return s, false
		}
		return State{Phase: PhaseWaiting, Partner: "carol"}, true
	})
	require.False(ok)
	require.Equal(PhaseWaiting, old.Phase)
	require.Equal("bob", c.Get().Partner)
}

func TestStateCellTransitionRace(t *testing.T) {
	require := require.New(t)

	var c stateCell
	var wg sync.WaitGroup
	wins := make(chan string, 2)

	// Two racing claims on the public phase; exactly one can win.
	for _, partner := range []string{"bob", "carol"} {
		wg.Add(1)
		go func(partner string) {
			defer wg.Done()
			_, ok := c.Transition(func(s State) (State, bool) {
				if s.Phase != PhasePublic {
					return s, false
				}
				return State{Phase: PhaseWaiting, Partner: partner}, true
			})
			if ok {
				wins <- partner
			}
		}(partner)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(winners, 1)
	require.Equal(winners[0], c.Get().Partner)
}
