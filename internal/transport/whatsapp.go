package transport

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	waCommon "go.mau.fi/whatsmeow/proto/waCommon"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsApp wraps a whatsmeow client behind the Sender interface and converts
// incoming events into Handler calls.
type WhatsApp struct {
	Client  *whatsmeow.Client
	Handler Handler

	logger *logrus.Logger
}

// NewWhatsApp opens the sqlite session store at dbPath and builds the client.
// Handler must be assigned before Connect.
func NewWhatsApp(ctx context.Context, dbPath string, logger *logrus.Logger) (*WhatsApp, error) {
	dbLog := waLog.Stdout("Database", "ERROR", false)
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	w := &WhatsApp{
		Client: whatsmeow.NewClient(device, waLog.Stdout("Client", "ERROR", false)),
		logger: logger,
	}
	w.Client.AddEventHandler(w.handleEvent)
	return w, nil
}

// Connect logs in, printing a pairing QR code on first run.
func (w *WhatsApp) Connect(ctx context.Context) error {
	if w.Client.Store.ID == nil {
		qrChan, _ := w.Client.GetQRChannel(ctx)
		if err := w.Client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			} else {
				w.logger.WithField("event", evt.Event).Info("QR channel")
			}
		}
		return nil
	}
	if err := w.Client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

func (w *WhatsApp) Disconnect() {
	w.Client.Disconnect()
}

func (w *WhatsApp) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		// Chats are serialized by the per-game mutex, not here; distinct
		// chats may process concurrently.
		go w.dispatchMessage(v)
	case *events.Connected:
		w.logger.Info("Connected to WhatsApp")
	case *events.Disconnected:
		w.logger.Warn("Disconnected from WhatsApp")
	}
}

func (w *WhatsApp) dispatchMessage(v *events.Message) {
	if w.Handler == nil {
		return
	}
	ctx := context.Background()
	info := v.Info
	isGroup := info.Chat.Server == types.GroupServer
	senderID := info.Sender.ToNonAD().String()
	altID := types.NewJID(info.Sender.User, types.DefaultUserServer).String()
	name := info.PushName
	if name == "" {
		name = info.Sender.User
	}

	if st := v.Message.GetStickerMessage(); st != nil {
		w.Handler.HandleSticker(ctx, StickerEvent{
			ChatID:      info.Chat.String(),
			SenderID:    senderID,
			AltSenderID: altID,
			SenderName:  name,
			MessageID:   info.ID,
			FileSHA256:  st.GetFileSHA256(),
			IsGroup:     isGroup,
			FromSelf:    info.IsFromMe,
		})
		return
	}

	if info.IsFromMe {
		return
	}
	text := v.Message.GetConversation()
	if text == "" {
		text = v.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return
	}
	w.Handler.HandleText(ctx, TextEvent{
		ChatID:      info.Chat.String(),
		SenderID:    senderID,
		AltSenderID: altID,
		SenderName:  name,
		MessageID:   info.ID,
		Text:        text,
		IsGroup:     isGroup,
	})
}

// SendText sends plain or extended text. Mentions and quoting require the
// extended form with ContextInfo.
func (w *WhatsApp) SendText(ctx context.Context, to, text string, opts *SendOpts) error {
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid jid %q: %w", to, err)
	}
	var msg *waE2E.Message
	if opts != nil && (len(opts.Mentions) > 0 || opts.QuotedID != "") {
		ci := &waE2E.ContextInfo{}
		if len(opts.Mentions) > 0 {
			ci.MentionedJID = opts.Mentions
		}
		if opts.QuotedID != "" {
			ci.StanzaID = proto.String(opts.QuotedID)
			ci.Participant = proto.String(opts.QuotedSender)
		}
		msg = &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: ci,
		}}
	} else {
		msg = &waE2E.Message{Conversation: proto.String(text)}
	}
	if _, err := w.Client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	return nil
}

// SendSticker uploads webp bytes and sends them as a sticker message.
func (w *WhatsApp) SendSticker(ctx context.Context, to string, webp []byte) error {
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid jid %q: %w", to, err)
	}
	up, err := w.Client.Upload(ctx, webp, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("upload sticker: %w", err)
	}
	msg := &waE2E.Message{StickerMessage: &waE2E.StickerMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(webp))),
		Mimetype:      proto.String("image/webp"),
	}}
	if _, err := w.Client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send sticker to %s: %w", to, err)
	}
	return nil
}

// React sends a lightweight emoji acknowledgement on a message. Never relied
// upon for correctness.
func (w *WhatsApp) React(ctx context.Context, chatID, senderID, messageID, emoji string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid jid %q: %w", chatID, err)
	}
	msg := &waE2E.Message{ReactionMessage: &waE2E.ReactionMessage{
		Key: &waCommon.MessageKey{
			FromMe:      proto.Bool(false),
			ID:          proto.String(messageID),
			RemoteJID:   proto.String(chatID),
			Participant: proto.String(senderID),
		},
		Text:              proto.String(emoji),
		SenderTimestampMS: proto.Int64(time.Now().UnixMilli()),
	}}
	_, err = w.Client.SendMessage(ctx, jid, msg)
	return err
}
