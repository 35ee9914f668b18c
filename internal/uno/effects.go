package uno

import (
	"fmt"
	"strings"
)

// Effect describes what a played special card does. The resolver applies
// draws immediately (Draw Two / Wild Draw Four); SkipTurn asks the caller to
// advance the turn pointer one extra step on top of the normal advance.
type Effect struct {
	SkipTurn bool
	Message  string
	Mentions []string
	Affected *Player
}

// mentionTag renders the @-handle for a chat address, which is the local part
// before the server suffix.
func mentionTag(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return "@" + id[:i]
	}
	return "@" + id
}

// applySpecial resolves a special card against the current state.
//
// Reverse with exactly two active players acts as a Skip: flipping the
// direction alone would land on the same player, so the direction is left
// unchanged and the other player is skipped instead.
//
// Wild Draw Four is intentionally permissive: whether the player held a
// matching color is never checked.
//
// A failed forced draw is returned to the caller; the announced penalty could
// not be applied in full, so the game must not continue past it.
func (g *Game) applySpecial(c Card) (Effect, error) {
	switch c.Value {
	case Reverse:
		if g.ActiveCount() == 2 {
			next := g.PeekNextPlayer()
			return Effect{
				SkipTurn: true,
				Message:  fmt.Sprintf("Play order reversed! %s is skipped since only 2 players remain!", mentionTag(next.ID)),
				Mentions: []string{next.ID},
			}, nil
		}
		g.Direction *= -1
		return Effect{Message: "Play order reversed!"}, nil

	case Skip:
		next := g.PeekNextPlayer()
		if next == nil {
			return Effect{}, nil
		}
		return Effect{
			SkipTurn: true,
			Message:  fmt.Sprintf("%s is skipped!", mentionTag(next.ID)),
			Mentions: []string{next.ID},
		}, nil

	case DrawTwo:
		next := g.PeekNextPlayer()
		if next == nil {
			return Effect{}, nil
		}
		if err := g.DrawCards(next.ID, 2); err != nil {
			return Effect{}, err
		}
		return Effect{
			SkipTurn: true,
			Message:  fmt.Sprintf("%s draws 2 cards and is skipped!", mentionTag(next.ID)),
			Mentions: []string{next.ID},
			Affected: next,
		}, nil

	case WildDrawFour:
		next := g.PeekNextPlayer()
		if next == nil {
			return Effect{}, nil
		}
		if err := g.DrawCards(next.ID, 4); err != nil {
			return Effect{}, err
		}
		return Effect{
			SkipTurn: true,
			Message:  fmt.Sprintf("%s draws 4 cards and is skipped!", mentionTag(next.ID)),
			Mentions: []string{next.ID},
			Affected: next,
		}, nil
	}
	return Effect{}, nil
}
