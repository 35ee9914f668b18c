package handlers

import (
	"sync"
	"time"
)

// FeedEvent is one room announcement mirrored to the admin feed.
type FeedEvent struct {
	ChatID string    `json:"chat_id"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// EventFeed fans room announcements out to admin WebSocket subscribers. The
// courier publishes into it; slow subscribers drop events rather than block
// game traffic.
type EventFeed struct {
	mu   sync.Mutex
	subs map[chan FeedEvent]struct{}
}

func NewEventFeed() *EventFeed {
	return &EventFeed{subs: make(map[chan FeedEvent]struct{})}
}

// Publish implements the courier's feed hook.
func (f *EventFeed) Publish(chatID, text string) {
	ev := FeedEvent{ChatID: chatID, Text: text, At: time.Now()}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (f *EventFeed) subscribe() chan FeedEvent {
	ch := make(chan FeedEvent, 32)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *EventFeed) unsubscribe(ch chan FeedEvent) {
	f.mu.Lock()
	delete(f.subs, ch)
	f.mu.Unlock()
}
