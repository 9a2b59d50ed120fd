package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
	"project_waBot/internal/repository"
)

// targetJID resolves the first argument of a moderation command into a
// canonical user id. Accepts bare numbers, full JIDs and @mentions.
func targetJID(env *plugins.Env) (string, bool) {
	if len(env.Args) == 0 {
		return "", false
	}
	raw := strings.TrimPrefix(env.Args[0], "@")
	if raw == "" {
		return "", false
	}
	return repository.Normalize(raw), true
}

func Ban(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	target, ok := targetJID(env)
	if !ok {
		return env.Transport.Reply(ctx, msg, "Gunakan: ban <nomor>")
	}
	user, err := env.Store.UpdateUser(target, func(u *entities.User) { u.Banned = true })
	if err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("%s diblokir dari bot.", user.Name))
}

func Unban(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	target, ok := targetJID(env)
	if !ok {
		return env.Transport.Reply(ctx, msg, "Gunakan: unban <nomor>")
	}
	user, err := env.Store.UpdateUser(target, func(u *entities.User) { u.Banned = false })
	if err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("%s bisa memakai bot lagi.", user.Name))
}

func Premium(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	target, ok := targetJID(env)
	if !ok {
		return env.Transport.Reply(ctx, msg, "Gunakan: premium <nomor>")
	}
	user, err := env.Store.UpdateUser(target, func(u *entities.User) { u.Premium = true })
	if err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("%s sekarang 💎 Premium.", user.Name))
}

func Unpremium(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	target, ok := targetJID(env)
	if !ok {
		return env.Transport.Reply(ctx, msg, "Gunakan: unpremium <nomor>")
	}
	user, err := env.Store.UpdateUser(target, func(u *entities.User) { u.Premium = false })
	if err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("%s kembali ke Regular.", user.Name))
}

// AddLimit grants quota to a user, outside the reset cycle.
func AddLimit(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	target, ok := targetJID(env)
	if !ok || len(env.Args) < 2 {
		return env.Transport.Reply(ctx, msg, "Gunakan: addlimit <nomor> <jumlah>")
	}
	amount, err := strconv.Atoi(env.Args[1])
	if err != nil || amount <= 0 {
		return env.Transport.Reply(ctx, msg, "Jumlah limit tidak valid.")
	}
	// Make sure the record exists before granting.
	if _, _, err := env.Store.GetUser(target, ""); err != nil {
		return err
	}
	if err := env.Store.IncrementLimit(target, amount); err != nil {
		return err
	}
	user, _, err := env.Store.GetUser(target, "")
	if err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("Limit %s sekarang %d.", user.Name, user.Limit))
}

func SetMaxLimit(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	if len(env.Args) == 0 {
		return env.Transport.Reply(ctx, msg, "Gunakan: setmaxlimit <jumlah>")
	}
	max, err := strconv.Atoi(env.Args[0])
	if err != nil || max <= 0 {
		return env.Transport.Reply(ctx, msg, "Jumlah limit tidak valid.")
	}
	if err := env.Store.SetSetting("maxLimit", max); err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("Limit maksimum sekarang %d.", max))
}

func Maintenance(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	var on bool
	switch {
	case len(env.Args) > 0 && env.Args[0] == "on":
		on = true
	case len(env.Args) > 0 && env.Args[0] == "off":
		on = false
	default:
		return env.Transport.Reply(ctx, msg, "Gunakan: maintenance on|off")
	}
	if err := env.Store.SetSetting("maintenance", on); err != nil {
		return err
	}
	if on {
		return env.Transport.Reply(ctx, msg, "Mode maintenance aktif.")
	}
	return env.Transport.Reply(ctx, msg, "Mode maintenance dimatikan.")
}

func Backup(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	path, err := env.Store.Backup()
	if err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, "Backup tersimpan: "+path)
}

// ResetLimits forces the sweep regardless of schedule by rewinding the
// last-reset marker first.
func ResetLimits(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	settings := env.Store.Settings()
	if err := env.Store.SetSetting("lastReset", settings.LastReset.Add(-settings.ResetLimitInterval)); err != nil {
		return err
	}
	if _, err := env.Store.ResetLimitsIfDue(); err != nil {
		return err
	}
	return env.Transport.Reply(ctx, msg, fmt.Sprintf("Limit semua pengguna dikembalikan ke %d.", env.Store.Settings().MaxLimit))
}
