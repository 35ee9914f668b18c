package uno

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	g, err := r.Create("chat@g.us", addr("p1"))
	require.NoError(t, err)
	require.NotNil(t, g)

	_, err = r.Create("chat@g.us", addr("p2"))
	assert.ErrorIs(t, err, ErrSessionExists, "one session per chat")

	got, ok := r.Get("chat@g.us")
	require.True(t, ok)
	assert.Same(t, g, got)

	other, err := r.Create("other@g.us", addr("p1"))
	require.NoError(t, err)
	assert.NotSame(t, g, other, "sessions are per chat")

	r.Delete("chat@g.us")
	_, ok = r.Get("chat@g.us")
	assert.False(t, ok)
}

func TestRegistryFindPendingWild(t *testing.T) {
	r := NewRegistry()
	g, err := r.Create("chat@g.us", addr("p1"))
	require.NoError(t, err)

	g.Mu.Lock()
	g.AddPlayer(addr("p1"), "p1", "p1@lid")
	g.AddPlayer(addr("p2"), "p2", "")
	g.Running = true
	g.Players[0].Pending = &PendingWildColor{Card: Card{Color: ColorWild, Value: Wild}}
	g.Mu.Unlock()

	found, p := r.FindPendingWild(addr("p1"))
	require.NotNil(t, found)
	assert.Same(t, g, found)
	assert.Equal(t, addr("p1"), p.ID)

	found, p = r.FindPendingWild("p1@lid")
	require.NotNil(t, found, "alternate address resolves to the same seat")
	assert.Equal(t, addr("p1"), p.ID)

	found, _ = r.FindPendingWild(addr("p2"))
	assert.Nil(t, found, "no pending wild for this player")
}

func TestRegistryFindByPlayer(t *testing.T) {
	r := NewRegistry()
	g, err := r.Create("chat@g.us", addr("p1"))
	require.NoError(t, err)

	g.Mu.Lock()
	g.AddPlayer(addr("p1"), "p1", "")
	g.AddPlayer(addr("p2"), "p2", "")
	g.Mu.Unlock()

	found, _ := r.FindByPlayer(addr("p1"))
	assert.Nil(t, found, "lobby games are not returned")

	g.Mu.Lock()
	g.Running = true
	g.Mu.Unlock()

	found, p := r.FindByPlayer(addr("p2"))
	require.NotNil(t, found)
	assert.Same(t, g, found)
	assert.Equal(t, addr("p2"), p.ID)

	found, _ = r.FindByPlayer(addr("ghost"))
	assert.Nil(t, found)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	g, err := r.Create("chat@g.us", addr("p1"))
	require.NoError(t, err)

	g.Mu.Lock()
	g.AddPlayer(addr("p1"), "p1", "")
	g.AddPlayer(addr("p2"), "p2", "")
	g.Running = true
	g.DiscardPile = []Card{{Color: ColorRed, Value: Five}}
	g.Mu.Unlock()

	snaps := r.Snapshot()
	require.Len(t, snaps, 1)
	s := snaps[0]
	assert.Equal(t, "chat@g.us", s.ChatID)
	assert.Equal(t, g.ID.String(), s.GameID)
	assert.True(t, s.Running)
	assert.Equal(t, 2, s.Players)
	assert.Equal(t, 2, s.ActiveCount)
	assert.Equal(t, "Red 5", s.TopCard)
}
