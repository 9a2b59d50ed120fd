package commands

import (
	"context"
	"fmt"
	"strings"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
)

func Profile(ctx context.Context, msg entities.Message, env *plugins.Env) error {
	user, _, err := env.Store.GetUser(msg.Sender, msg.PushName)
	if err != nil {
		return err
	}

	status := "🌐 Regular"
	if user.Premium {
		status = "💎 Premium"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*🧑‍💻 PROFIL PENGGUNA*\n\n")
	fmt.Fprintf(&b, "*Nama:* %s\n", user.Name)
	fmt.Fprintf(&b, "*ID:* %s\n", strings.SplitN(user.ID, "@", 2)[0])
	fmt.Fprintf(&b, "*Limit:* %d/%d\n", user.Limit, env.Store.Settings().MaxLimit)
	fmt.Fprintf(&b, "*Status:* %s\n", status)
	if user.Banned {
		b.WriteString("*BANNED* ❌\n")
	}
	fmt.Fprintf(&b, "*Terakhir Aktif:* %s", user.LastInteraction.Format("2006-01-02 15:04:05"))

	return env.Transport.Reply(ctx, msg, b.String())
}
