package entities

type Message struct {
	ID       string
	ChatID   string // JID of the chat the message arrived in
	Sender   string // JID of the sending participant (== ChatID in direct chats)
	IsGroup  bool
	PushName string
	Body     string // extracted text: conversation, caption or button/list selection
}
