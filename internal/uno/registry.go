package uno

import "sync"

// Registry maps a chat room id to at most one live Game.
type Registry struct {
	mu    sync.Mutex
	games map[string]*Game
}

func NewRegistry() *Registry {
	return &Registry{games: make(map[string]*Game)}
}

// Create opens a lobby for chatID. Fails if a session already exists.
func (r *Registry) Create(chatID, creatorID string) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[chatID]; exists {
		return nil, ErrSessionExists
	}
	g := NewGame(chatID, creatorID)
	r.games[chatID] = g
	return g, nil
}

func (r *Registry) Get(chatID string) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[chatID]
	return g, ok
}

func (r *Registry) Delete(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, chatID)
}

// FindPendingWild locates the game in which senderID owes a wild color
// choice. Private color replies carry no room context, so the sender identity
// is the only correlation key. Returns nils when no game is waiting on them.
func (r *Registry) FindPendingWild(senderID string) (*Game, *Player) {
	r.mu.Lock()
	games := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	r.mu.Unlock()

	for _, g := range games {
		g.Mu.Lock()
		p := g.PlayerByID(senderID)
		if g.Running && p != nil && p.Active && p.Pending != nil {
			g.Mu.Unlock()
			return g, p
		}
		g.Mu.Unlock()
	}
	return nil, nil
}

// FindByPlayer locates the running game a sender is seated in, if any. Used
// for private hand-redelivery requests, which also carry no room context.
func (r *Registry) FindByPlayer(senderID string) (*Game, *Player) {
	r.mu.Lock()
	games := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	r.mu.Unlock()

	for _, g := range games {
		g.Mu.Lock()
		p := g.PlayerByID(senderID)
		if g.Running && p != nil {
			g.Mu.Unlock()
			return g, p
		}
		g.Mu.Unlock()
	}
	return nil, nil
}

// SessionSummary is a read-only snapshot for the admin surface.
type SessionSummary struct {
	ChatID      string `json:"chat_id"`
	GameID      string `json:"game_id"`
	Running     bool   `json:"running"`
	Players     int    `json:"players"`
	ActiveCount int    `json:"active_players"`
	TopCard     string `json:"top_card,omitempty"`
}

// Snapshot returns summaries of all live sessions.
func (r *Registry) Snapshot() []SessionSummary {
	r.mu.Lock()
	games := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	r.mu.Unlock()

	out := make([]SessionSummary, 0, len(games))
	for _, g := range games {
		g.Mu.Lock()
		s := SessionSummary{
			ChatID:      g.ChatID,
			GameID:      g.ID.String(),
			Running:     g.Running,
			Players:     len(g.Players),
			ActiveCount: g.ActiveCount(),
		}
		if len(g.DiscardPile) > 0 {
			s.TopCard = g.TopCard().String()
		}
		g.Mu.Unlock()
		out = append(out, s)
	}
	return out
}
