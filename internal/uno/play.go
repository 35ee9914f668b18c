package uno

import "fmt"

// Outcome describes a completed (or suspended) turn resolution. The engine
// performs no I/O; the courier turns an Outcome into room announcements and
// hand deliveries.
type Outcome struct {
	Player       *Player
	Card         Card
	Announcement string

	// AwaitingColor is set when a wild play suspended: the card stays in the
	// hand, the turn does not advance, and the player owes a color choice.
	AwaitingColor bool

	Effect *Effect
	Winner *Winner

	GameOver bool
	Winners  []Winner

	// NextPlayer is whose turn it is after resolution; nil when the game
	// ended or the play is suspended on a color choice.
	NextPlayer      *Player
	RemainingActive int
}

// findInHand locates a card by normalized identity. Wild cards decoded from
// sticker metadata may carry a stale color, so they fall back to matching by
// value alone.
func findInHand(p *Player, c Card) int {
	for i, h := range p.Hand {
		if SameIdentity(h, c) {
			return i
		}
	}
	if c.IsWild() {
		for i, h := range p.Hand {
			if h.IsWild() && normalize(string(h.Value)) == normalize(string(c.Value)) {
				return i
			}
		}
	}
	return -1
}

// PlayCard validates and applies a card play by senderID. Wild cards suspend
// on a pending color choice instead of resolving immediately. Callers hold
// g.Mu.
func (g *Game) PlayCard(senderID string, played Card) (*Outcome, error) {
	if !g.Running {
		return nil, ErrGameNotRunning
	}
	cur := g.CurrentPlayer()
	if cur == nil || cur.ID != g.ResolveSenderID(senderID) {
		return nil, ErrNotYourTurn
	}
	if cur.Pending != nil {
		return nil, ErrColorChoicePending
	}
	idx := findInHand(cur, played)
	if idx < 0 {
		return nil, ErrCardNotInHand
	}
	card := cur.Hand[idx]
	if !card.Matches(g.TopCard()) {
		return nil, ErrCardDoesNotMatch
	}

	if card.IsWild() {
		cur.Pending = &PendingWildColor{Index: idx, Card: card}
		return &Outcome{Player: cur, Card: card, AwaitingColor: true}, nil
	}
	return g.commitPlay(cur, idx, card)
}

// ResolveWildColor resumes a suspended wild play once the owner's private
// color reply arrives. An invalid color leaves all state untouched.
func (g *Game) ResolveWildColor(senderID string, color Color) (*Outcome, error) {
	if !g.Running {
		return nil, ErrGameNotRunning
	}
	p := g.PlayerByID(senderID)
	if p == nil {
		return nil, ErrNotInGame
	}
	if p.Pending == nil {
		return nil, ErrNoPendingWild
	}
	valid := false
	for _, c := range Colors {
		if color == c {
			valid = true
		}
	}
	if !valid {
		return nil, ErrInvalidColor
	}

	pending := *p.Pending
	p.Pending = nil
	card := pending.Card
	card.Color = color
	return g.commitPlay(p, pending.Index, card)
}

// DrawOne is the voluntary draw-and-pass action for the current player.
func (g *Game) DrawOne(senderID string) (*Outcome, error) {
	if !g.Running {
		return nil, ErrGameNotRunning
	}
	cur := g.CurrentPlayer()
	if cur == nil || cur.ID != g.ResolveSenderID(senderID) {
		return nil, ErrNotYourTurn
	}
	if cur.Pending != nil {
		return nil, ErrColorChoicePending
	}
	if err := g.DrawCards(cur.ID, 1); err != nil {
		return nil, err
	}
	g.NextTurn()
	return &Outcome{
		Player:          cur,
		Announcement:    fmt.Sprintf("🃏 %s drew a card from the deck.", cur.Name),
		NextPlayer:      g.CurrentPlayer(),
		RemainingActive: g.ActiveCount(),
	}, nil
}

// commitPlay moves the card from hand to discard and resolves everything that
// follows: UNO flag, win detection, special effects, turn advance. State is
// fully mutated before the caller performs any sends, so transport failures
// can never roll back a committed transition. A resource error from a forced
// draw is returned as-is; the game cannot continue past it.
func (g *Game) commitPlay(p *Player, idx int, card Card) (*Outcome, error) {
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)

	out := &Outcome{Player: p, Card: card}
	if card.IsWild() {
		out.Announcement = fmt.Sprintf("🃏 %s played *%s* and picked *%s*.", p.Name, card.Value, card.Color)
	} else {
		out.Announcement = fmt.Sprintf("🃏 %s played *%s*.", p.Name, card)
	}

	p.UnoCalled = len(p.Hand) == 1
	if p.UnoCalled {
		out.Announcement += fmt.Sprintf("\n\n🔥 *UNO!* %s has 1 card left!", p.Name)
	}

	if len(p.Hand) == 0 {
		w := g.finishPlayer(p)
		out.Winner = &w

		if g.ActiveCount() <= 1 {
			// Force-rank the last player standing; no solo play.
			if rest := g.activePlayers(); len(rest) == 1 {
				g.finishPlayer(rest[0])
			}
			g.Running = false
			out.GameOver = true
			out.Winners = g.Winners
			return out, nil
		}
		g.NextTurn()
		out.NextPlayer = g.CurrentPlayer()
		out.RemainingActive = g.ActiveCount()
		return out, nil
	}

	effect, err := g.applySpecial(card)
	if err != nil {
		return nil, err
	}
	out.Effect = &effect
	if effect.SkipTurn {
		g.NextTurn()
	}
	g.NextTurn()
	out.NextPlayer = g.CurrentPlayer()
	out.RemainingActive = g.ActiveCount()
	return out, nil
}
