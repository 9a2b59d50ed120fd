package commands

import (
	"context"
	"fmt"
	"strings"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
)

func Menu(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	var b strings.Builder
	b.WriteString("*📜 DAFTAR PERINTAH*\n")
	for _, cmd := range env.Registry.Commands() {
		if cmd.RequireOwner && !env.IsOwner {
			continue
		}
		fmt.Fprintf(&b, "\n*%s* - %s\n", cmd.Title, cmd.Description)
		fmt.Fprintf(&b, "  %s%s\n", env.Prefix, strings.Join(cmd.Aliases, ", "+env.Prefix))
	}
	return env.Transport.Reply(ctx, msg, b.String())
}
