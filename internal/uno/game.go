package uno

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// PendingWildColor records a wild card a player has committed to playing but
// not yet colored. The card stays in the hand and the turn does not advance
// until the color choice arrives.
type PendingWildColor struct {
	Index int
	Card  Card
}

// Player is a seat in a single game. ID is the opaque chat address used for
// the player's private channel.
type Player struct {
	ID     string
	Name   string
	Hand   []Card
	Active bool

	// UnoCalled is set while the player holds exactly one card.
	UnoCalled bool

	Pending *PendingWildColor
}

// Winner records a finish position, rank 1 first.
type Winner struct {
	Rank int
	ID   string
	Name string
}

// Game holds the entire state for one chat room's UNO session.
//
// Mu serializes all event handling for the chat: the dispatcher holds it for
// the full duration of an inbound event, including the state transition, so
// two events for the same chat can never interleave mid-turn. Separate chats
// have separate Game instances and run concurrently.
type Game struct {
	ID        uuid.UUID
	ChatID    string
	CreatorID string

	Players     []*Player
	Deck        []Card
	DiscardPile []Card

	CurrentPlayerIndex int
	Direction          int
	Running            bool
	Winners            []Winner

	// altIDs maps a secondary channel address (phone-number JID) to the
	// player's primary id, so private replies resolve to the right seat.
	altIDs map[string]string

	Mu sync.Mutex
}

// NewGame creates an empty lobby for the given chat. The creator still has to
// join as a player.
func NewGame(chatID, creatorID string) *Game {
	return &Game{
		ID:        uuid.New(),
		ChatID:    chatID,
		CreatorID: creatorID,
		Direction: 1,
		altIDs:    make(map[string]string),
	}
}

const maxPlayers = 10

// AddPlayer seats a player while the lobby is open. Duplicate ids and full
// lobbies are rejected; no error, just false, matching the lobby flow where
// the caller phrases the refusal.
func (g *Game) AddPlayer(id, name, altID string) bool {
	if g.Running || len(g.Players) >= maxPlayers {
		return false
	}
	for _, p := range g.Players {
		if p.ID == id {
			return false
		}
	}
	g.Players = append(g.Players, &Player{ID: id, Name: name, Active: true})
	if altID != "" && altID != id {
		g.altIDs[altID] = id
	}
	return true
}

// ResolveSenderID maps an inbound sender address to the primary player id,
// falling back to the address itself.
func (g *Game) ResolveSenderID(addr string) string {
	if primary, ok := g.altIDs[addr]; ok {
		return primary
	}
	return addr
}

// PlayerByID returns the seat for id, resolving alternate addresses.
func (g *Game) PlayerByID(id string) *Player {
	id = g.ResolveSenderID(id)
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Start transitions Lobby -> Running: shuffles seating, builds and shuffles
// the deck, deals 7 cards to each player and flips a starting discard that is
// neither wild nor an action card. Returns false with fewer than 2 players.
func (g *Game) Start() bool {
	if g.Running || len(g.Players) < 2 {
		return false
	}
	g.Running = true
	rand.Shuffle(len(g.Players), func(i, j int) {
		g.Players[i], g.Players[j] = g.Players[j], g.Players[i]
	})

	g.Deck = NewDeck()
	shuffleCards(g.Deck)

	for _, p := range g.Players {
		p.Hand = make([]Card, 0, 7)
		for i := 0; i < 7; i++ {
			c, err := g.draw()
			if err != nil {
				// 108 cards cover 10 players; unreachable in practice.
				break
			}
			p.Hand = append(p.Hand, c)
		}
	}

	// Rejected openers go back into the deck and it is reshuffled, so the
	// opening discard never forces an immediate special effect.
	for {
		c, err := g.draw()
		if err != nil {
			return false
		}
		if !c.IsSpecial() {
			g.DiscardPile = append(g.DiscardPile, c)
			return true
		}
		g.Deck = append(g.Deck, c)
		shuffleCards(g.Deck)
	}
}

// TopCard returns the top of the discard pile.
func (g *Game) TopCard() Card {
	return g.DiscardPile[len(g.DiscardPile)-1]
}

func (g *Game) activePlayers() []*Player {
	var out []*Player
	for _, p := range g.Players {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// ActiveCount returns how many players still hold cards.
func (g *Game) ActiveCount() int {
	return len(g.activePlayers())
}

// CurrentPlayer returns whose turn it is, computed over the active subset.
// The index is re-normalized here because finishing players shrinks the
// active set out from under it.
func (g *Game) CurrentPlayer() *Player {
	active := g.activePlayers()
	if len(active) == 0 {
		return nil
	}
	if g.CurrentPlayerIndex >= len(active) || g.CurrentPlayerIndex < 0 {
		g.CurrentPlayerIndex = 0
	}
	return active[g.CurrentPlayerIndex]
}

// PeekNextPlayer previews who the turn pointer would land on without mutating
// state. Used to name the target of Skip/Draw effects before applying them.
func (g *Game) PeekNextPlayer() *Player {
	active := g.activePlayers()
	if len(active) <= 1 {
		return nil
	}
	next := g.CurrentPlayerIndex + g.Direction
	if next < 0 {
		next = len(active) - 1
	} else if next >= len(active) {
		next = 0
	}
	return active[next]
}

// NextTurn advances the turn pointer by Direction over the active subset.
// No-op with one or zero active players.
func (g *Game) NextTurn() {
	active := g.activePlayers()
	if len(active) <= 1 {
		return
	}
	g.CurrentPlayerIndex += g.Direction
	if g.CurrentPlayerIndex < 0 {
		g.CurrentPlayerIndex = len(active) - 1
	} else if g.CurrentPlayerIndex >= len(active) {
		g.CurrentPlayerIndex = 0
	}
}

// DrawCards appends n cards to the player's hand, refilling the draw deck
// from the discard pile as needed mid-draw.
func (g *Game) DrawCards(playerID string, n int) error {
	p := g.PlayerByID(playerID)
	if p == nil {
		return ErrNotInGame
	}
	for i := 0; i < n; i++ {
		if len(g.Deck) == 0 {
			if err := g.refillDeck(); err != nil {
				return err
			}
		}
		c, err := g.draw()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, c)
	}
	p.UnoCalled = len(p.Hand) == 1
	return nil
}

// finishPlayer marks a player as done and records their rank.
func (g *Game) finishPlayer(p *Player) Winner {
	p.Active = false
	p.UnoCalled = false
	w := Winner{Rank: len(g.Winners) + 1, ID: p.ID, Name: p.Name}
	g.Winners = append(g.Winners, w)
	return w
}

// Stats summarizes the running game for the status command.
type Stats struct {
	TotalCards  int
	AvgCards    int
	ActiveCount int
	TotalMoves  int
}

func (g *Game) Stats() Stats {
	s := Stats{ActiveCount: g.ActiveCount()}
	for _, p := range g.Players {
		s.TotalCards += len(p.Hand)
	}
	if s.ActiveCount > 0 {
		s.AvgCards = (s.TotalCards + s.ActiveCount/2) / s.ActiveCount
	}
	if len(g.DiscardPile) > 0 {
		s.TotalMoves = len(g.DiscardPile) - 1
	}
	return s
}

// Standings lists active players ordered by hand size, fewest cards first.
func (g *Game) Standings() []string {
	active := g.activePlayers()
	sort.SliceStable(active, func(i, j int) bool {
		return len(active[i].Hand) < len(active[j].Hand)
	})
	out := make([]string, len(active))
	for i, p := range active {
		out[i] = fmt.Sprintf("%d. %s (%d cards)", i+1, p.Name, len(p.Hand))
	}
	return out
}
