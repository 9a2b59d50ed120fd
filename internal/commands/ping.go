package commands

import (
	"context"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
)

func Ping(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	return env.Transport.Reply(ctx, msg, "Bot aktif!")
}
