package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	qrcode "github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "modernc.org/sqlite" // Pure Go SQLite driver for the session store

	"project_waBot/internal/entities"
)

// WhatsAppClient adapts whatsmeow to the Transport port. Inbound
// messages are pushed onto Messages with their text already extracted;
// everything else the socket emits is handled here.
type WhatsAppClient struct {
	client *whatsmeow.Client
	log    *slog.Logger
	qrPath string

	Messages chan entities.Message

	// OnConnected fires every time the socket (re)connects.
	OnConnected func()
}

func NewWhatsAppClient(sessionDB, qrPath string, log *slog.Logger) (*WhatsAppClient, error) {
	if log == nil {
		log = slog.Default()
	}
	dbLog := waLog.Stdout("Database", "WARN", true)
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+sessionDB+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	w := &WhatsAppClient{
		client:   whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "WARN", true)),
		log:      log,
		qrPath:   qrPath,
		Messages: make(chan entities.Message, 64),
	}
	w.client.AddEventHandler(w.handleEvent)
	return w, nil
}

// Connect establishes the socket. On first login the pairing QR is
// rendered to a PNG so it can be scanned from the data directory.
func (w *WhatsAppClient) Connect(ctx context.Context) error {
	if w.client.Store.ID == nil {
		qrChan, _ := w.client.GetQRChannel(ctx)
		if err := w.client.Connect(); err != nil {
			return err
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, w.qrPath); err != nil {
						w.log.Error("QR render failed", "error", err)
						continue
					}
					w.log.Info("scan the QR code to pair", "path", w.qrPath)
				} else {
					w.log.Info("login event", "event", evt.Event)
				}
			}
		}()
		return nil
	}
	if err := w.client.Connect(); err != nil {
		return err
	}
	w.log.Info("connected with existing session")
	return nil
}

func (w *WhatsAppClient) Disconnect() {
	w.client.Disconnect()
}

func (w *WhatsAppClient) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		if v.Info.IsFromMe {
			return
		}
		body := extractBody(v.Message)
		if body == "" {
			return
		}
		msg := entities.Message{
			ID:       v.Info.ID,
			ChatID:   v.Info.Chat.String(),
			Sender:   v.Info.Sender.String(),
			IsGroup:  v.Info.IsGroup,
			PushName: v.Info.PushName,
			Body:     body,
		}
		select {
		case w.Messages <- msg:
		default:
			w.log.Warn("inbound queue full, message dropped", "chat", msg.ChatID)
		}
	case *events.Connected:
		w.log.Info("connection opened")
		if w.OnConnected != nil {
			w.OnConnected()
		}
	case *events.Disconnected:
		w.log.Warn("connection closed, whatsmeow will reconnect")
	case *events.LoggedOut:
		w.log.Error("logged out, delete the session database to re-pair")
	}
}

// extractBody pulls the first text-bearing field out of the protocol
// message: plain conversation, extended text, media captions, then
// button/list/template selections.
func extractBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation()
	case msg.GetExtendedTextMessage().GetText() != "":
		return msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage().GetCaption() != "":
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage().GetCaption() != "":
		return msg.GetVideoMessage().GetCaption()
	case msg.GetButtonsResponseMessage().GetSelectedButtonID() != "":
		return msg.GetButtonsResponseMessage().GetSelectedButtonID()
	case msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID() != "":
		return msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID()
	case msg.GetTemplateButtonReplyMessage().GetSelectedID() != "":
		return msg.GetTemplateButtonReplyMessage().GetSelectedID()
	}
	return ""
}

func (w *WhatsAppClient) SendText(ctx context.Context, chatID, text string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	_, err = w.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

// Reply quotes the inbound message in the outgoing one.
func (w *WhatsAppClient) Reply(ctx context.Context, msg entities.Message, text string) error {
	jid, err := types.ParseJID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", msg.ChatID, err)
	}
	out := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(msg.ID),
				Participant:   proto.String(msg.Sender),
				QuotedMessage: &waE2E.Message{Conversation: proto.String(msg.Body)},
			},
		},
	}
	_, err = w.client.SendMessage(ctx, jid, out)
	return err
}

// Delete revokes a previously delivered message for everyone.
func (w *WhatsAppClient) Delete(ctx context.Context, msg entities.Message) error {
	chat, err := types.ParseJID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", msg.ChatID, err)
	}
	sender, err := types.ParseJID(msg.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender id %q: %w", msg.Sender, err)
	}
	_, err = w.client.SendMessage(ctx, chat, w.client.BuildRevoke(chat, sender, msg.ID))
	return err
}

func (w *WhatsAppClient) GroupMetadata(ctx context.Context, chatID string) (*entities.GroupMetadata, error) {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return nil, fmt.Errorf("invalid group id %q: %w", chatID, err)
	}
	info, err := w.client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, err
	}
	meta := &entities.GroupMetadata{Name: info.Name}
	for _, p := range info.Participants {
		meta.Participants = append(meta.Participants, entities.Participant{
			ID:      p.JID.ToNonAD().String(),
			IsAdmin: p.IsAdmin || p.IsSuperAdmin,
		})
	}
	return meta, nil
}
