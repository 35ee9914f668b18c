package uno

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runningGame builds a started game with deterministic hands. Each player
// holds a Red One and a Blue Two on a Red Five discard, so the first card is
// always playable and the second never is.
func runningGame(t *testing.T, names ...string) *Game {
	t.Helper()
	require.GreaterOrEqual(t, len(names), 2)

	g := NewGame("chat@g.us", addr(names[0]))
	for _, n := range names {
		require.True(t, g.AddPlayer(addr(n), n, ""))
	}
	g.Running = true
	g.Deck = NewDeck()
	shuffleCards(g.Deck)
	g.DiscardPile = []Card{{Color: ColorRed, Value: Five}}
	for _, p := range g.Players {
		p.Hand = []Card{
			{Color: ColorRed, Value: One},
			{Color: ColorBlue, Value: Two},
		}
	}
	return g
}

func addr(name string) string {
	return name + "@s.whatsapp.net"
}

func TestAddPlayer(t *testing.T) {
	g := NewGame("chat@g.us", addr("p1"))
	assert.True(t, g.AddPlayer(addr("p1"), "p1", ""))
	assert.False(t, g.AddPlayer(addr("p1"), "p1", ""), "duplicate id rejected")

	for i := 2; i <= 10; i++ {
		assert.True(t, g.AddPlayer(addr(fmt.Sprintf("p%d", i)), fmt.Sprintf("p%d", i), ""))
	}
	assert.False(t, g.AddPlayer(addr("p11"), "p11", ""), "lobby caps at 10")

	g.Running = true
	assert.False(t, g.AddPlayer(addr("late"), "late", ""), "no joins after start")
}

func TestResolveSenderAltAddress(t *testing.T) {
	g := NewGame("chat@g.us", addr("p1"))
	require.True(t, g.AddPlayer("p1@lid", "p1", addr("p1")))

	assert.Equal(t, "p1@lid", g.ResolveSenderID(addr("p1")))
	assert.Equal(t, "p1@lid", g.ResolveSenderID("p1@lid"))
	require.NotNil(t, g.PlayerByID(addr("p1")))
	assert.Equal(t, "p1@lid", g.PlayerByID(addr("p1")).ID)
}

func TestStartDealsSevenEach(t *testing.T) {
	g := NewGame("chat@g.us", addr("p1"))
	for _, n := range []string{"p1", "p2", "p3", "p4"} {
		require.True(t, g.AddPlayer(addr(n), n, ""))
	}
	require.True(t, g.Start())
	assert.True(t, g.Running)

	total := 0
	for _, p := range g.Players {
		assert.Len(t, p.Hand, 7)
		total += len(p.Hand)
	}
	require.Len(t, g.DiscardPile, 1)
	assert.False(t, g.TopCard().IsSpecial(), "opening discard must be a plain number card")
	assert.Equal(t, 108, total+len(g.Deck)+len(g.DiscardPile), "every card is in exactly one zone")
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	g := NewGame("chat@g.us", addr("p1"))
	require.True(t, g.AddPlayer(addr("p1"), "p1", ""))
	assert.False(t, g.Start())
	assert.False(t, g.Running)
}

func TestNextTurnNeverLandsOnSelf(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("p%d", i+1)
		}
		for _, dir := range []int{1, -1} {
			g := runningGame(t, names...)
			g.Direction = dir
			for i := 0; i < 2*n; i++ {
				before := g.CurrentPlayer()
				g.NextTurn()
				after := g.CurrentPlayer()
				assert.NotEqual(t, before.ID, after.ID, "n=%d dir=%d step=%d", n, dir, i)
			}
		}
	}
}

func TestPlayCardValidations(t *testing.T) {
	g := runningGame(t, "p1", "p2")

	_, err := g.PlayCard(addr("p2"), Card{Color: ColorRed, Value: One})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.PlayCard(addr("p1"), Card{Color: ColorGreen, Value: Nine})
	assert.ErrorIs(t, err, ErrCardNotInHand)

	_, err = g.PlayCard(addr("p1"), Card{Color: ColorBlue, Value: Two})
	assert.ErrorIs(t, err, ErrCardDoesNotMatch)

	g.Running = false
	_, err = g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: One})
	assert.ErrorIs(t, err, ErrGameNotRunning)
}

func TestPlayNumberCardAdvancesTurn(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: One})
	require.NoError(t, err)

	assert.Equal(t, Card{Color: ColorRed, Value: One}, g.TopCard())
	assert.Len(t, g.Players[0].Hand, 1)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p2"), out.NextPlayer.ID)
	assert.Contains(t, out.Announcement, "UNO!", "one card left announces UNO")
	assert.True(t, g.Players[0].UnoCalled)
}

func TestSkipAdvancesTwice(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: Skip}, {Color: ColorBlue, Value: Two}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: Skip})
	require.NoError(t, err)

	require.NotNil(t, out.Effect)
	assert.True(t, out.Effect.SkipTurn)
	assert.Contains(t, out.Effect.Message, "@p2")
	assert.Equal(t, []string{addr("p2")}, out.Effect.Mentions)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p3"), out.NextPlayer.ID)
}

func TestReverseFlipsDirection(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: Reverse}, {Color: ColorBlue, Value: Two}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: Reverse})
	require.NoError(t, err)

	assert.Equal(t, -1, g.Direction)
	require.NotNil(t, out.Effect)
	assert.False(t, out.Effect.SkipTurn)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p3"), out.NextPlayer.ID, "turn order now runs backwards")
}

func TestReverseWithTwoPlayersActsAsSkip(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: Reverse}, {Color: ColorBlue, Value: Two}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: Reverse})
	require.NoError(t, err)

	assert.Equal(t, 1, g.Direction, "direction must not flip with two players")
	require.NotNil(t, out.Effect)
	assert.True(t, out.Effect.SkipTurn)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p1"), out.NextPlayer.ID, "the other player is skipped")
}

func TestDrawTwoForcesDrawsAndSkips(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: DrawTwo}, {Color: ColorBlue, Value: Two}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: DrawTwo})
	require.NoError(t, err)

	assert.Len(t, g.Players[1].Hand, 4, "victim drew two on top of two")
	require.NotNil(t, out.Effect)
	assert.Same(t, g.Players[1], out.Effect.Affected)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p3"), out.NextPlayer.ID)
}

func TestDrawTwoFailsWhenPenaltyCannotBeDrawn(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: DrawTwo}, {Color: ColorBlue, Value: Two}}
	g.Deck = nil
	g.DiscardPile = []Card{{Color: ColorRed, Value: Five}}

	_, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: DrawTwo})
	require.ErrorIs(t, err, ErrNoCardsToRefill, "a penalty that cannot be drawn must surface")
	assert.False(t, IsValidation(err), "resource errors are fatal, not player mistakes")
}

func TestWildSuspendsUntilColorChosen(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	g.Players[0].Hand = []Card{{Color: ColorWild, Value: Wild}, {Color: ColorBlue, Value: Two}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorWild, Value: Wild})
	require.NoError(t, err)

	assert.True(t, out.AwaitingColor)
	assert.Len(t, g.Players[0].Hand, 2, "card stays in hand while suspended")
	assert.Len(t, g.DiscardPile, 1, "discard untouched while suspended")
	require.NotNil(t, g.Players[0].Pending)
	assert.Equal(t, addr("p1"), g.CurrentPlayer().ID, "turn does not advance while suspended")
}

func TestResolveWildColor(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorWild, Value: Wild}, {Color: ColorBlue, Value: Two}}

	_, err := g.PlayCard(addr("p1"), Card{Color: ColorWild, Value: Wild})
	require.NoError(t, err)

	_, err = g.ResolveWildColor(addr("p1"), Color("Purple"))
	assert.ErrorIs(t, err, ErrInvalidColor)
	assert.NotNil(t, g.Players[0].Pending, "invalid color leaves the suspension intact")

	out, err := g.ResolveWildColor(addr("p1"), ColorBlue)
	require.NoError(t, err)

	assert.Equal(t, Card{Color: ColorBlue, Value: Wild}, g.TopCard())
	assert.Nil(t, g.Players[0].Pending)
	assert.Len(t, g.Players[0].Hand, 1)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p2"), out.NextPlayer.ID)
}

func TestSuspendedWildBlocksOtherActions(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: One}, {Color: ColorWild, Value: Wild}}

	_, err := g.PlayCard(addr("p1"), Card{Color: ColorWild, Value: Wild})
	require.NoError(t, err)
	require.NotNil(t, g.Players[0].Pending)
	require.Equal(t, 1, g.Players[0].Pending.Index)

	// Any other move would shift the recorded hand index out from under the
	// suspended play, so both are rejected until the color arrives.
	_, err = g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: One})
	assert.ErrorIs(t, err, ErrColorChoicePending)
	assert.True(t, IsValidation(err))

	_, err = g.DrawOne(addr("p1"))
	assert.ErrorIs(t, err, ErrColorChoicePending)

	assert.Len(t, g.Players[0].Hand, 2, "hand untouched while suspended")

	out, err := g.ResolveWildColor(addr("p1"), ColorBlue)
	require.NoError(t, err)
	assert.Equal(t, Card{Color: ColorBlue, Value: Wild}, g.TopCard())
	assert.Equal(t, []Card{{Color: ColorRed, Value: One}}, g.Players[0].Hand)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p2"), out.NextPlayer.ID)
}

func TestResolveWildColorWithoutPending(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	_, err := g.ResolveWildColor(addr("p1"), ColorRed)
	assert.ErrorIs(t, err, ErrNoPendingWild)

	_, err = g.ResolveWildColor(addr("ghost"), ColorRed)
	assert.ErrorIs(t, err, ErrNotInGame)
}

func TestWildDrawFourDrawsFourAndSkips(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorWild, Value: WildDrawFour}, {Color: ColorBlue, Value: Two}}

	_, err := g.PlayCard(addr("p1"), Card{Color: ColorWild, Value: WildDrawFour})
	require.NoError(t, err)
	out, err := g.ResolveWildColor(addr("p1"), ColorGreen)
	require.NoError(t, err)

	assert.Equal(t, Card{Color: ColorGreen, Value: WildDrawFour}, g.TopCard())
	assert.Len(t, g.Players[1].Hand, 6, "victim drew four on top of two")
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p3"), out.NextPlayer.ID)
}

func TestWinRanksPlayerAndGameContinues(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: One}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: One})
	require.NoError(t, err)

	require.NotNil(t, out.Winner)
	assert.Equal(t, 1, out.Winner.Rank)
	assert.Equal(t, addr("p1"), out.Winner.ID)
	assert.False(t, g.Players[0].Active)
	assert.False(t, out.GameOver)
	assert.Equal(t, 2, out.RemainingActive)
	assert.True(t, g.Running)
}

func TestLastTwoPlayersEndGame(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: One}}

	out, err := g.PlayCard(addr("p1"), Card{Color: ColorRed, Value: One})
	require.NoError(t, err)

	assert.True(t, out.GameOver)
	assert.False(t, g.Running)
	require.Len(t, out.Winners, 2, "the last player standing is force-ranked")
	assert.Equal(t, 1, out.Winners[0].Rank)
	assert.Equal(t, addr("p1"), out.Winners[0].ID)
	assert.Equal(t, 2, out.Winners[1].Rank)
	assert.Equal(t, addr("p2"), out.Winners[1].ID)
	assert.False(t, g.Players[1].Active)
}

func TestDrawCardsRefillsMidDraw(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	g.Deck = nil
	g.DiscardPile = []Card{
		{Color: ColorGreen, Value: Three},
		{Color: ColorYellow, Value: Four},
		{Color: ColorRed, Value: Five},
	}

	require.NoError(t, g.DrawCards(addr("p1"), 2))
	assert.Len(t, g.Players[0].Hand, 4)
	assert.Equal(t, Card{Color: ColorRed, Value: Five}, g.TopCard())
	assert.Len(t, g.DiscardPile, 1)
}

func TestDrawCardsFailsWhenNothingLeft(t *testing.T) {
	g := runningGame(t, "p1", "p2")
	g.Deck = nil
	g.DiscardPile = []Card{{Color: ColorRed, Value: Five}}
	assert.ErrorIs(t, g.DrawCards(addr("p1"), 1), ErrNoCardsToRefill)
}

func TestDrawOne(t *testing.T) {
	g := runningGame(t, "p1", "p2")

	_, err := g.DrawOne(addr("p2"))
	assert.ErrorIs(t, err, ErrNotYourTurn)

	out, err := g.DrawOne(addr("p1"))
	require.NoError(t, err)
	assert.Len(t, g.Players[0].Hand, 3)
	require.NotNil(t, out.NextPlayer)
	assert.Equal(t, addr("p2"), out.NextPlayer.ID)
}

func TestStatsAndStandings(t *testing.T) {
	g := runningGame(t, "p1", "p2", "p3")
	g.Players[0].Hand = []Card{{Color: ColorRed, Value: One}}
	g.DiscardPile = append(g.DiscardPile, Card{Color: ColorRed, Value: Seven})

	s := g.Stats()
	assert.Equal(t, 5, s.TotalCards)
	assert.Equal(t, 3, s.ActiveCount)
	assert.Equal(t, 1, s.TotalMoves)

	standings := g.Standings()
	require.Len(t, standings, 3)
	assert.Contains(t, standings[0], "p1")
	assert.Contains(t, standings[0], "1 cards")
}

func TestValidationErrorClassification(t *testing.T) {
	assert.True(t, IsValidation(ErrNotYourTurn))
	assert.True(t, IsValidation(ErrCardDoesNotMatch))
	assert.False(t, IsValidation(ErrEmptyDeck))
	assert.False(t, IsValidation(ErrNoCardsToRefill))
}
