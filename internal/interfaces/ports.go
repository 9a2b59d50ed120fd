package interfaces

import (
	"context"

	"project_waBot/internal/entities"
)

// Transport is the messaging collaborator. The dispatcher and the
// command handlers only ever talk to the network through it.
type Transport interface {
	SendText(ctx context.Context, chatID, text string) error
	// Reply sends text into the message's chat, quoting the message
	// when the underlying protocol supports it.
	Reply(ctx context.Context, msg entities.Message, text string) error
	// Delete revokes a previously delivered message.
	Delete(ctx context.Context, msg entities.Message) error
	// GroupMetadata may fail; callers must treat failure as
	// "name unknown, nobody is admin".
	GroupMetadata(ctx context.Context, chatID string) (*entities.GroupMetadata, error)
}
