// Package dispatch routes inbound chat events to the game engine: group text
// commands, group stickers (candidate card plays) and private text replies
// (wild color choices). Every path goes through the one engine instance per
// chat; none re-implements turn logic.
package dispatch

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/daylight021/lily/internal/courier"
	"github.com/daylight021/lily/internal/transport"
	"github.com/daylight021/lily/internal/uno"
)

// CardDecoder maps an inbound sticker hash to the card it represents.
type CardDecoder interface {
	Decode(ctx context.Context, fileSHA256 []byte) (uno.Card, bool)
}

// ResultSink receives finished-game results for persistence. Best effort;
// errors are logged and never affect game state.
type ResultSink interface {
	RecordGameResult(ctx context.Context, g *uno.Game, winners []uno.Winner) error
}

// LeaderboardSource serves the aggregate wins query for a chat.
type LeaderboardSource interface {
	TopWinners(ctx context.Context, chatID string, limit int) ([]LeaderboardRow, error)
}

// LeaderboardRow is one line of a chat's all-time leaderboard.
type LeaderboardRow struct {
	PlayerName string
	Wins       int
	Played     int
}

// Dispatcher implements transport.Handler.
type Dispatcher struct {
	logger  *logrus.Logger
	reg     *uno.Registry
	courier *courier.Courier
	sender  transport.Sender
	decoder CardDecoder

	results     ResultSink        // may be nil
	leaderboard LeaderboardSource // may be nil

	// Prefix is the command prefix, "." by default.
	Prefix string
}

func New(logger *logrus.Logger, reg *uno.Registry, cr *courier.Courier, sender transport.Sender, decoder CardDecoder) *Dispatcher {
	return &Dispatcher{
		logger:  logger,
		reg:     reg,
		courier: cr,
		sender:  sender,
		decoder: decoder,
		Prefix:  ".",
	}
}

// WithResults attaches a finished-game sink.
func (d *Dispatcher) WithResults(sink ResultSink) *Dispatcher {
	d.results = sink
	return d
}

// WithLeaderboard attaches the leaderboard query source.
func (d *Dispatcher) WithLeaderboard(src LeaderboardSource) *Dispatcher {
	d.leaderboard = src
	return d
}

// reply sends text quoting the triggering message.
func (d *Dispatcher) reply(ctx context.Context, ev transport.TextEvent, text string) {
	opts := &transport.SendOpts{QuotedID: ev.MessageID, QuotedSender: ev.SenderID}
	if err := d.sender.SendText(ctx, ev.ChatID, text, opts); err != nil {
		d.logger.WithError(err).WithField("chat", ev.ChatID).Warn("reply failed")
	}
}

// HandleText routes text: group ".uno" commands and private color replies.
func (d *Dispatcher) HandleText(ctx context.Context, ev transport.TextEvent) {
	body := strings.TrimSpace(ev.Text)
	if !ev.IsGroup {
		d.handlePrivateText(ctx, ev, body)
		return
	}
	if !strings.HasPrefix(body, d.Prefix+"uno") {
		return
	}
	args := strings.Fields(strings.TrimPrefix(body, d.Prefix+"uno"))
	sub := ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}
	d.handleCommand(ctx, ev, sub)
}

// HandleSticker treats a room sticker as a candidate card play. Stickers the
// decoder does not recognize are ignored, not treated as plays.
func (d *Dispatcher) HandleSticker(ctx context.Context, ev transport.StickerEvent) {
	if !ev.IsGroup || ev.FromSelf {
		return
	}
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		return
	}
	card, ok := d.decoder.Decode(ctx, ev.FileSHA256)
	if !ok {
		return
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.Running {
		return
	}

	out, err := g.PlayCard(ev.SenderID, card)
	if err == uno.ErrNotYourTurn {
		// Resolve again through the alternate address before giving up.
		out, err = g.PlayCard(ev.AltSenderID, card)
	}
	if err != nil {
		if uno.IsValidation(err) {
			opts := &transport.SendOpts{QuotedID: ev.MessageID, QuotedSender: ev.SenderID}
			if serr := d.sender.SendText(ctx, ev.ChatID, playerMessage(err), opts); serr != nil {
				d.logger.WithError(serr).Warn("validation reply failed")
			}
			return
		}
		d.failGame(ctx, g, err)
		return
	}

	if err := d.sender.React(ctx, ev.ChatID, ev.SenderID, ev.MessageID, "🃏"); err != nil {
		d.logger.WithError(err).Debug("card play reaction failed")
	}

	if out.AwaitingColor {
		d.courier.PromptWildColor(ctx, g, out.Player)
		return
	}
	d.finishOutcome(ctx, g, out)
}

// handlePrivateText recognizes wild color replies and private hand
// redelivery. The reply carries no room context; the sender's identity is
// correlated against all live sessions.
func (d *Dispatcher) handlePrivateText(ctx context.Context, ev transport.TextEvent, body string) {
	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, d.Prefix+"uno") {
		args := strings.Fields(strings.TrimPrefix(lower, d.Prefix+"uno"))
		if len(args) > 0 && (args[0] == "cards" || args[0] == "kartu") {
			d.redeliverPrivateHand(ctx, ev)
		}
		return
	}

	colorName, found := strings.CutPrefix(lower, d.Prefix)
	if !found {
		return
	}
	color, ok := uno.ParseColor(colorName)
	if !ok {
		return
	}

	g, _ := d.reg.FindPendingWild(ev.SenderID)
	if g == nil {
		g, _ = d.reg.FindPendingWild(ev.AltSenderID)
	}
	if g == nil {
		// No outstanding wild choice anywhere for this sender.
		return
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()
	out, err := g.ResolveWildColor(ev.SenderID, color)
	if err == uno.ErrNotInGame || err == uno.ErrNoPendingWild {
		out, err = g.ResolveWildColor(ev.AltSenderID, color)
	}
	if err != nil {
		if uno.IsValidation(err) {
			d.reply(ctx, ev, playerMessage(err))
			return
		}
		d.failGame(ctx, g, err)
		return
	}
	d.finishOutcome(ctx, g, out)
}

func (d *Dispatcher) redeliverPrivateHand(ctx context.Context, ev transport.TextEvent) {
	g, p := d.reg.FindByPlayer(ev.SenderID)
	if g == nil {
		g, p = d.reg.FindByPlayer(ev.AltSenderID)
	}
	if g == nil {
		d.reply(ctx, ev, "You are not in a running UNO game.")
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.Running {
		return
	}
	d.courier.DeliverHand(ctx, g, p)
}

// finishOutcome runs the courier sequencing for a resolved play and tears the
// session down when the game ended.
func (d *Dispatcher) finishOutcome(ctx context.Context, g *uno.Game, out *uno.Outcome) {
	d.courier.CompleteTurn(ctx, g, out)
	if !out.GameOver {
		return
	}
	if d.results != nil {
		if err := d.results.RecordGameResult(ctx, g, out.Winners); err != nil {
			d.logger.WithError(err).WithField("game", g.ID).Warn("failed to record game result")
		}
	}
	d.reg.Delete(g.ChatID)
	d.logger.WithFields(logrus.Fields{"game": g.ID, "chat": g.ChatID}).Info("game finished")
}

// failGame handles resource errors: the game cannot continue without
// corrupting state, so the session is ended and everyone is told.
func (d *Dispatcher) failGame(ctx context.Context, g *uno.Game, err error) {
	d.logger.WithError(err).WithFields(logrus.Fields{"game": g.ID, "chat": g.ChatID}).
		Error("unrecoverable game error, ending session")
	if serr := d.sender.SendText(ctx, g.ChatID, "⚠️ The UNO game hit an unrecoverable error and was ended.", nil); serr != nil {
		d.logger.WithError(serr).Warn("failure notice send failed")
	}
	d.courier.NotifyEnded(ctx, g, "")
	d.reg.Delete(g.ChatID)
}

// playerMessage phrases a validation error for the chat.
func playerMessage(err error) string {
	switch err {
	case uno.ErrNotYourTurn:
		return "It's not your turn!"
	case uno.ErrCardNotInHand:
		return "That card is not in your hand!"
	case uno.ErrCardDoesNotMatch:
		return "That card doesn't match the top card!"
	case uno.ErrLobbyFull:
		return "Could not join. The lobby is full."
	case uno.ErrNotEnoughPlayers:
		return "At least 2 players are needed to start!"
	case uno.ErrInvalidColor:
		return "Pick one of: .red, .green, .blue, .yellow"
	case uno.ErrNoPendingWild:
		return "There is no wild card waiting for a color."
	case uno.ErrColorChoicePending:
		return "Pick a color for your wild card first! Check your PM."
	case uno.ErrAlreadyJoined:
		return "You have already joined this game."
	case uno.ErrGameRunning:
		return "The game has already started, you can't join anymore."
	case uno.ErrNotCreator:
		return "Only the session creator can do that."
	case uno.ErrNoActiveSession:
		return "There is no UNO session in this group."
	}
	return err.Error()
}
