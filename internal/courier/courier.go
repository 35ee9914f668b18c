// Package courier sequences the outbound half of the game protocol: room
// announcements, private hand deliveries and wild-color prompts. It performs
// best-effort I/O only; every state transition is already committed by the
// engine before the courier runs, so a failed send never corrupts a game.
package courier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daylight021/lily/internal/transport"
	"github.com/daylight021/lily/internal/uno"
)

// Encoder renders a card identity as a small sticker image.
type Encoder interface {
	Encode(ctx context.Context, c uno.Card) ([]byte, error)
}

// Feed receives a copy of room announcements for observation (admin surface).
// May be nil.
type Feed interface {
	Publish(chatID, text string)
}

// Courier owns the outbound message sequencing for all games. Callers hold
// the game's mutex for the duration of each call so reads of game state stay
// consistent with the transition they announce.
type Courier struct {
	sender transport.Sender
	enc    Encoder
	feed   Feed
	logger *logrus.Logger

	// BaseDelay/MaxDelay pace consecutive private sends to respect the
	// transport's rate limits. The effective delay grows mildly with hand
	// size and player count and is capped at MaxDelay.
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	SettleDelay time.Duration
}

func New(sender transport.Sender, enc Encoder, feed Feed, logger *logrus.Logger) *Courier {
	return &Courier{
		sender:      sender,
		enc:         enc,
		feed:        feed,
		logger:      logger,
		BaseDelay:   400 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		SettleDelay: time.Second,
	}
}

func (c *Courier) roomText(ctx context.Context, chatID, text string, opts *transport.SendOpts) {
	if err := c.sender.SendText(ctx, chatID, text, opts); err != nil {
		c.logger.WithError(err).WithField("chat", chatID).Warn("room send failed")
		return
	}
	if c.feed != nil {
		c.feed.Publish(chatID, text)
	}
}

// handDelay scales the base delay with player count and hand size, capped.
func (c *Courier) handDelay(playerCount, handSize int) time.Duration {
	playerMult := float64(playerCount) / 4
	if playerMult < 1 {
		playerMult = 1
	}
	cardMult := float64(handSize) / 7
	if cardMult < 1 {
		cardMult = 1
	}
	d := time.Duration(float64(c.BaseDelay) * playerMult * cardMult)
	if d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// sendCardSticker sends one card as a sticker, degrading to a plain-text
// description of that single card on encode or send failure.
func (c *Courier) sendCardSticker(ctx context.Context, to string, card uno.Card) {
	data, err := c.enc.Encode(ctx, card)
	if err == nil {
		if err = c.sender.SendSticker(ctx, to, data); err == nil {
			return
		}
	}
	c.logger.WithError(err).WithFields(logrus.Fields{"to": to, "card": card.String()}).
		Warn("card sticker failed, falling back to text")
	if terr := c.sender.SendText(ctx, to, fmt.Sprintf("Card: *%s*", card), nil); terr != nil {
		c.logger.WithError(terr).WithField("to", to).Warn("card text fallback failed")
	}
}

// AnnounceState posts the top card and whose turn it is to the room, with an
// explicit mention of the current player. actionMsg, when non-empty, is
// inserted between the two.
func (c *Courier) AnnounceState(ctx context.Context, g *uno.Game, actionMsg string) {
	cur := g.CurrentPlayer()
	if cur == nil {
		return
	}
	time.Sleep(c.SettleDelay)

	top := g.TopCard()
	c.sendCardSticker(ctx, g.ChatID, top)

	var b strings.Builder
	fmt.Fprintf(&b, "🃏 *Top card:* %s\n\n", top)
	if actionMsg != "" {
		b.WriteString(actionMsg + "\n\n")
	}
	fmt.Fprintf(&b, "🎯 *Turn:* %s\n", mentionTag(cur.ID))
	fmt.Fprintf(&b, "🃏 *Cards in hand:* %d", len(cur.Hand))
	c.roomText(ctx, g.ChatID, b.String(), &transport.SendOpts{Mentions: []string{cur.ID}})
}

// DeliverHand sends a player's full hand to their private channel as a
// sequence of card stickers, paced by handDelay. Idempotent; safe to call on
// an explicit redelivery request.
func (c *Courier) DeliverHand(ctx context.Context, g *uno.Game, p *uno.Player) {
	top := g.TopCard()
	var intro string
	if cur := g.CurrentPlayer(); cur != nil && cur.ID == p.ID {
		intro = fmt.Sprintf("====================\n\n🃏 Your turn! The top card is *%s*.\n\nForward the sticker of the card you want to play into the group!\n\nYour hand:\n\n====================", top)
	} else {
		intro = fmt.Sprintf("====================\n\n⏳ Waiting for your turn. The top card is *%s*.\n\nYour hand:\n\n====================", top)
	}
	if err := c.sender.SendText(ctx, p.ID, intro, nil); err != nil {
		c.logger.WithError(err).WithField("player", p.ID).Warn("hand intro failed")
	}

	delay := c.handDelay(len(g.Players), len(p.Hand))
	for i, card := range p.Hand {
		c.sendCardSticker(ctx, p.ID, card)
		if i < len(p.Hand)-1 {
			time.Sleep(delay)
		}
	}
}

// PromptWildColor tells the room the play is suspended and asks the player
// privately for one of the four colors.
func (c *Courier) PromptWildColor(ctx context.Context, g *uno.Game, p *uno.Player) {
	c.roomText(ctx, g.ChatID, "For a wild card, pick the color in your PM!", nil)
	prompt := "Pick a color for your wild card:\n\n• .red\n• .green\n• .blue\n• .yellow\n\nReply with the color prefix (example: .red)"
	if err := c.sender.SendText(ctx, p.ID, prompt, nil); err != nil {
		c.logger.WithError(err).WithField("player", p.ID).Warn("wild color prompt failed")
	}
}

// CompleteTurn announces a resolved play and moves the table along: effect
// messages, forced-draw hand redelivery, the new room state and the next
// player's hand, or the final scoreboard when the game ended.
func (c *Courier) CompleteTurn(ctx context.Context, g *uno.Game, out *uno.Outcome) {
	if out.Winner != nil {
		c.roomText(ctx, g.ChatID, fmt.Sprintf("%s\n\n🎉 *RANK %d!* %s emptied their hand!",
			out.Announcement, out.Winner.Rank, out.Winner.Name), nil)
		if out.GameOver {
			c.SendScoreboard(ctx, g, out.Winners)
			return
		}
		c.AnnounceState(ctx, g, fmt.Sprintf("The game continues with %d players left.", out.RemainingActive))
		if out.NextPlayer != nil {
			c.DeliverHand(ctx, g, out.NextPlayer)
		}
		return
	}

	c.roomText(ctx, g.ChatID, out.Announcement, nil)

	if eff := out.Effect; eff != nil && eff.Message != "" {
		time.Sleep(c.SettleDelay / 2)
		c.roomText(ctx, g.ChatID, eff.Message, &transport.SendOpts{Mentions: eff.Mentions})
		if eff.Affected != nil {
			c.DeliverHand(ctx, g, eff.Affected)
		}
	}

	c.AnnounceState(ctx, g, "")
	if out.NextPlayer != nil {
		c.DeliverHand(ctx, g, out.NextPlayer)
	}
}

// SendScoreboard posts the final ranked results to the room with everyone
// mentioned, then a personalized rank message to each player's private
// channel, finishers included.
func (c *Courier) SendScoreboard(ctx context.Context, g *uno.Game, winners []uno.Winner) {
	lines := make([]string, len(winners))
	mentions := make([]string, len(winners))
	for i, w := range winners {
		lines[i] = fmt.Sprintf("🏆 Rank %d: %s", w.Rank, w.Name)
		mentions[i] = w.ID
	}
	board := strings.Join(lines, "\n")
	stats := g.Stats()

	time.Sleep(c.SettleDelay)
	c.roomText(ctx, g.ChatID, fmt.Sprintf(
		"🏁 *GAME OVER!*\n\n%s\n\n📊 *Game stats:*\n• Total moves: %d\n• Players: %d\n\nThanks for playing! 🎉",
		board, stats.TotalMoves, len(g.Players)),
		&transport.SendOpts{Mentions: mentions})

	for _, p := range g.Players {
		var personal string
		switch rank := rankOf(winners, p.ID); {
		case rank == 1:
			personal = fmt.Sprintf("🎊 *CONGRATULATIONS!* 🎊\n\nYou finished *RANK 1* in the UNO game!\n\n🏆 *Final leaderboard:*\n%s", board)
		case rank > 1:
			personal = fmt.Sprintf("🎉 *GAME OVER* 🎉\n\nYou finished *Rank %d*!\n\n🏆 *Final leaderboard:*\n%s\n\nGood game! 👏", rank, board)
		default:
			personal = fmt.Sprintf("🎮 *GAME OVER* 🎮\n\n🏆 *Final leaderboard:*\n%s\n\nThanks for playing! 🎯", board)
		}
		if err := c.sender.SendText(ctx, p.ID, personal, nil); err != nil {
			c.logger.WithError(err).WithField("player", p.ID).Warn("failed to notify player of results")
		}
		time.Sleep(c.BaseDelay / 2)
	}
}

// NotifyEnded tells every player except endedBy that the host stopped the
// session.
func (c *Courier) NotifyEnded(ctx context.Context, g *uno.Game, endedBy string) {
	for _, p := range g.Players {
		if p.ID == endedBy {
			continue
		}
		if err := c.sender.SendText(ctx, p.ID, "ℹ️ The game was stopped by the host.", nil); err != nil {
			c.logger.WithError(err).WithField("player", p.ID).Warn("failed to notify player of session end")
		}
	}
}

func rankOf(winners []uno.Winner, id string) int {
	for _, w := range winners {
		if w.ID == id {
			return w.Rank
		}
	}
	return 0
}

func mentionTag(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return "@" + id[:i]
	}
	return "@" + id
}
