package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/daylight021/lily/internal/transport"
	"github.com/daylight021/lily/internal/uno"
)

// phoneAddr derives the alternate phone-number address recorded at join time
// so private-channel senders resolve to the same seat.
func phoneAddr(ev transport.TextEvent) string {
	if ev.AltSenderID != "" && ev.AltSenderID != ev.SenderID {
		return ev.AltSenderID
	}
	return ""
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev transport.TextEvent, sub string) {
	switch sub {
	case "create":
		d.cmdCreate(ctx, ev)
	case "join":
		d.cmdJoin(ctx, ev)
	case "start":
		d.cmdStart(ctx, ev)
	case "draw":
		d.cmdDraw(ctx, ev)
	case "cards", "kartu":
		d.cmdCards(ctx, ev)
	case "status":
		d.cmdStatus(ctx, ev)
	case "stats":
		d.cmdStats(ctx, ev)
	case "leaderboard":
		d.cmdLeaderboard(ctx, ev)
	case "end":
		d.cmdEnd(ctx, ev)
	default:
		d.reply(ctx, ev, helpText(d.Prefix))
	}
}

func (d *Dispatcher) cmdCreate(ctx context.Context, ev transport.TextEvent) {
	g, err := d.reg.Create(ev.ChatID, ev.SenderID)
	if err != nil {
		d.reply(ctx, ev, "There is already an UNO session in this group.")
		return
	}
	g.Mu.Lock()
	g.AddPlayer(ev.SenderID, ev.SenderName, phoneAddr(ev))
	g.Mu.Unlock()
	d.reply(ctx, ev, fmt.Sprintf("✅ UNO lobby created by %s!\n\nOthers can join with `%suno join`.", ev.SenderName, d.Prefix))
}

func (d *Dispatcher) cmdJoin(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, fmt.Sprintf("No UNO session here. Start one with `%suno create`.", d.Prefix))
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Running {
		d.reply(ctx, ev, playerMessage(uno.ErrGameRunning))
		return
	}
	if g.PlayerByID(ev.SenderID) != nil {
		d.reply(ctx, ev, playerMessage(uno.ErrAlreadyJoined))
		return
	}
	if !g.AddPlayer(ev.SenderID, ev.SenderName, phoneAddr(ev)) {
		d.reply(ctx, ev, playerMessage(uno.ErrLobbyFull))
		return
	}
	d.reply(ctx, ev, fmt.Sprintf("✅ %s joined!\n\n*Players in lobby (%d/10):*\n%s",
		ev.SenderName, len(g.Players), playerList(g)))
}

func (d *Dispatcher) cmdStart(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, fmt.Sprintf("No UNO session. Create one first with `%suno create`.", d.Prefix))
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	switch {
	case g.Running:
		d.reply(ctx, ev, "The game is already running.")
		return
	case g.CreatorID != ev.SenderID:
		d.reply(ctx, ev, playerMessage(uno.ErrNotCreator))
		return
	case len(g.Players) < 2:
		d.reply(ctx, ev, playerMessage(uno.ErrNotEnoughPlayers))
		return
	}
	if !g.Start() {
		d.reply(ctx, ev, "Failed to start the game.")
		return
	}
	d.reply(ctx, ev, "🎮 UNO has started! Seating was shuffled. Dealing cards...")
	for _, p := range g.Players {
		d.courier.DeliverHand(ctx, g, p)
	}
	d.courier.AnnounceState(ctx, g, "")
}

func (d *Dispatcher) cmdDraw(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, "The game hasn't started.")
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	drawer := g.PlayerByID(ev.SenderID)
	out, err := g.DrawOne(ev.SenderID)
	if err != nil {
		if uno.IsValidation(err) {
			d.reply(ctx, ev, playerMessage(err))
			return
		}
		d.failGame(ctx, g, err)
		return
	}
	d.reply(ctx, ev, out.Announcement)
	d.courier.AnnounceState(ctx, g, "")
	if drawer != nil {
		d.courier.DeliverHand(ctx, g, drawer)
	}
	if out.NextPlayer != nil && (drawer == nil || out.NextPlayer.ID != drawer.ID) {
		d.courier.DeliverHand(ctx, g, out.NextPlayer)
	}
}

func (d *Dispatcher) cmdCards(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, "The game hasn't started.")
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.Running {
		d.reply(ctx, ev, "The game hasn't started.")
		return
	}
	p := g.PlayerByID(ev.SenderID)
	if p == nil {
		d.reply(ctx, ev, "You are not part of this game.")
		return
	}
	d.courier.DeliverHand(ctx, g, p)
	d.reply(ctx, ev, "Your current hand was re-sent to your PM.")
}

func (d *Dispatcher) cmdStatus(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, "There is no UNO session in this group.")
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.Running {
		d.reply(ctx, ev, fmt.Sprintf("⏳ *LOBBY WAITING* ⏳\n\n*Players in lobby (%d/10):*\n%s\n\nType `%suno start` to begin!",
			len(g.Players), playerList(g), d.Prefix))
		return
	}
	cur := g.CurrentPlayer()
	name := "N/A"
	if cur != nil {
		name = cur.Name
	}
	stats := g.Stats()
	d.reply(ctx, ev, fmt.Sprintf("🎮 *GAME STATUS* 🎮\n\n🃏 *Top card:* %s\n🎯 *Turn:* %s\n👥 *Active players:* %d\n📊 *Total moves:* %d",
		g.TopCard(), name, stats.ActiveCount, stats.TotalMoves))
}

func (d *Dispatcher) cmdStats(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, "The game hasn't started.")
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.Running {
		d.reply(ctx, ev, "The game hasn't started.")
		return
	}
	cur := g.CurrentPlayer()
	name := "N/A"
	if cur != nil {
		name = cur.Name
	}
	stats := g.Stats()
	d.reply(ctx, ev, fmt.Sprintf("📊 *UNO GAME STATS* 📊\n\n🎯 *Current turn:* %s\n🃏 *Cards left in hands:* %d\n📈 *Average hand:* %d\n👥 *Active players:* %d/%d\n\n🏆 *Current standings:*\n%s",
		name, stats.TotalCards, stats.AvgCards, stats.ActiveCount, len(g.Players), strings.Join(g.Standings(), "\n")))
}

func (d *Dispatcher) cmdLeaderboard(ctx context.Context, ev transport.TextEvent) {
	if d.leaderboard == nil {
		d.reply(ctx, ev, "The leaderboard is not available on this bot.")
		return
	}
	rows, err := d.leaderboard.TopWinners(ctx, ev.ChatID, 10)
	if err != nil {
		d.logger.WithError(err).Warn("leaderboard query failed")
		d.reply(ctx, ev, "Could not load the leaderboard, try again later.")
		return
	}
	if len(rows) == 0 {
		d.reply(ctx, ev, "No finished games in this group yet.")
		return
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%d. %s - %d wins (%d games)", i+1, r.PlayerName, r.Wins, r.Played)
	}
	d.reply(ctx, ev, "🏆 *ALL-TIME UNO LEADERBOARD* 🏆\n\n"+strings.Join(lines, "\n"))
}

func (d *Dispatcher) cmdEnd(ctx context.Context, ev transport.TextEvent) {
	g, ok := d.reg.Get(ev.ChatID)
	if !ok {
		d.reply(ctx, ev, playerMessage(uno.ErrNoActiveSession))
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.CreatorID != ev.SenderID {
		d.reply(ctx, ev, playerMessage(uno.ErrNotCreator))
		return
	}
	d.courier.NotifyEnded(ctx, g, ev.SenderID)
	d.reg.Delete(ev.ChatID)
	d.reply(ctx, ev, "🛑 The UNO session was ended.")
}

func playerList(g *uno.Game) string {
	lines := make([]string, len(g.Players))
	for i, p := range g.Players {
		lines[i] = fmt.Sprintf("%d. %s", i+1, p.Name)
	}
	return strings.Join(lines, "\n")
}

func helpText(prefix string) string {
	return "🃏 *UNO Commands* 🃏\n\n" +
		"`" + prefix + "uno create` - Open a lobby\n" +
		"`" + prefix + "uno join` - Join the lobby\n" +
		"`" + prefix + "uno start` - Start the game\n" +
		"`" + prefix + "uno cards` - Re-send your hand to PM\n" +
		"`" + prefix + "uno draw` - Draw one card from the deck\n" +
		"`" + prefix + "uno status` - Show the game status\n" +
		"`" + prefix + "uno stats` - Show stats and standings\n" +
		"`" + prefix + "uno leaderboard` - All-time wins in this group\n" +
		"`" + prefix + "uno end` - End the session (host only)"
}
