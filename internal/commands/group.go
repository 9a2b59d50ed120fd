package commands

import (
	"context"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
)

func toggleArg(env *plugins.Env) (bool, bool) {
	if len(env.Args) == 0 {
		return false, false
	}
	switch env.Args[0] {
	case "on":
		return true, true
	case "off":
		return false, true
	}
	return false, false
}

func Welcome(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	if !msg.IsGroup {
		return env.Transport.Reply(ctx, msg, "Perintah ini hanya untuk grup.")
	}
	on, ok := toggleArg(env)
	if !ok {
		return env.Transport.Reply(ctx, msg, "Gunakan: welcome on|off")
	}
	if _, err := env.Store.UpdateGroup(msg.ChatID, func(g *entities.Group) { g.Welcome = on }); err != nil {
		return err
	}
	if on {
		return env.Transport.Reply(ctx, msg, "Pesan sambutan diaktifkan.")
	}
	return env.Transport.Reply(ctx, msg, "Pesan sambutan dimatikan.")
}

func AntiLink(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	if !msg.IsGroup {
		return env.Transport.Reply(ctx, msg, "Perintah ini hanya untuk grup.")
	}
	on, ok := toggleArg(env)
	if !ok {
		return env.Transport.Reply(ctx, msg, "Gunakan: antilink on|off")
	}
	if _, err := env.Store.UpdateGroup(msg.ChatID, func(g *entities.Group) { g.AntiLink = on }); err != nil {
		return err
	}
	if on {
		return env.Transport.Reply(ctx, msg, "Anti-link diaktifkan.")
	}
	return env.Transport.Reply(ctx, msg, "Anti-link dimatikan.")
}
