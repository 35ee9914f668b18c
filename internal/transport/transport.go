// Package transport carries chat I/O for the bot: the Sender/Encoder
// interfaces the engine-facing code consumes, the inbound event types, and
// the WhatsApp implementation backed by whatsmeow.
package transport

import "context"

// SendOpts carries optional message metadata. Mentions make a broadcast room
// message unambiguous about who it addresses; Quoted* reply to a message.
type SendOpts struct {
	Mentions     []string
	QuotedID     string
	QuotedSender string
}

// Sender delivers outbound payloads to a room id or a private user id
// interchangeably.
type Sender interface {
	SendText(ctx context.Context, to, text string, opts *SendOpts) error
	SendSticker(ctx context.Context, to string, webp []byte) error
	React(ctx context.Context, chatID, senderID, messageID, emoji string) error
}

// TextEvent is an inbound text message. ChatID equals SenderID for private
// chats; IsGroup distinguishes the two.
type TextEvent struct {
	ChatID      string
	SenderID    string
	AltSenderID string
	SenderName  string
	MessageID   string
	Text        string
	IsGroup     bool
}

// StickerEvent is an inbound sticker, a candidate card play when it arrives
// in a room. FileSHA256 is the plaintext hash WhatsApp carries for the media,
// which is how forwarded card stickers are recognized.
type StickerEvent struct {
	ChatID      string
	SenderID    string
	AltSenderID string
	SenderName  string
	MessageID   string
	FileSHA256  []byte
	IsGroup     bool
	FromSelf    bool
}

// Handler consumes inbound events. Implemented by the dispatcher.
type Handler interface {
	HandleText(ctx context.Context, ev TextEvent)
	HandleSticker(ctx context.Context, ev StickerEvent)
}
