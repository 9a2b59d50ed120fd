package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"project_waBot/internal/config"
	"project_waBot/internal/entities"
	"project_waBot/internal/interfaces"
	"project_waBot/internal/plugins"
	"project_waBot/internal/repository"
)

const (
	replyOwnerOnly   = "This command is only for the owner"
	replyAdminOnly   = "This command is only for admins"
	replyNoLimit     = "Limit kamu tidak cukup untuk menjalankan perintah ini. Limit tersisa: %d/%d"
	replyMaintenance = "Bot sedang dalam maintenance mode. Mohon coba lagi nanti."
)

// MaintenanceGate decides whether msg is stopped before dispatch. While
// the maintenance flag is set, non-owner traffic gets the fixed notice
// and never reaches the dispatcher; owners pass through so the bot can
// be switched back on from chat.
func MaintenanceGate(store *repository.Store, cfg *config.Config, msg entities.Message) (string, bool) {
	maintenance, _ := store.GetSetting("maintenance", false).(bool)
	if !maintenance {
		return "", false
	}
	sender := msg.Sender
	if sender == "" {
		sender = msg.ChatID
	}
	if cfg.IsOwner(sender) {
		return "", false
	}
	return replyMaintenance, true
}

// Dispatcher turns inbound messages into exactly-once command
// invocations behind the policy chain: ban, ownership, group admin,
// then quota. The quota decrement happens before execution and is not
// refunded when the handler fails.
type Dispatcher struct {
	store     *repository.Store
	registry  *plugins.Registry
	transport interfaces.Transport
	cfg       *config.Config
	flood     *FloodGuard
	log       *slog.Logger
}

func NewDispatcher(store *repository.Store, registry *plugins.Registry, transport interfaces.Transport, cfg *config.Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		registry:  registry,
		transport: transport,
		cfg:       cfg,
		flood:     NewFloodGuard(cfg.FloodRate, cfg.FloodBurst),
		log:       log,
	}
}

// Run consumes messages one at a time to completion. Store mutations
// are whole-document rewrites, so dispatch stays single-flight and the
// reset sweep serializes against it through the store's own lock.
func (d *Dispatcher) Run(ctx context.Context, messages <-chan entities.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			d.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage applies the full per-message pipeline. It never
// returns an error: every failure is either logged and dropped or
// reported into the chat, and nothing may take down the loop.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg entities.Message) {
	body := msg.Body
	if strings.TrimSpace(body) == "" {
		return
	}

	sender := msg.Sender
	if !msg.IsGroup || sender == "" {
		sender = msg.ChatID
	}
	d.log.Info("message received", "chat", msg.ChatID, "sender", sender, "body", body)

	user, _, err := d.store.GetUser(sender, msg.PushName)
	if err != nil {
		d.log.Error("user lookup failed", "sender", sender, "error", err)
		return
	}

	isAdmin := false
	if msg.IsGroup {
		if _, _, err := d.store.GetGroup(msg.ChatID, ""); err != nil {
			d.log.Error("group lookup failed", "chat", msg.ChatID, "error", err)
			return
		}
		// Metadata failure is not fatal: the name stays stale and the
		// sender counts as not-admin.
		meta, err := d.transport.GroupMetadata(ctx, msg.ChatID)
		if err != nil {
			d.log.Warn("group metadata fetch failed", "chat", msg.ChatID, "error", err)
		} else {
			if meta.Name != "" {
				if _, err := d.store.UpdateGroup(msg.ChatID, func(g *entities.Group) { g.Name = meta.Name }); err != nil {
					d.log.Error("group name refresh failed", "chat", msg.ChatID, "error", err)
				}
			}
			isAdmin = meta.IsAdmin(repository.Normalize(sender))
		}
	}

	if user.Banned {
		d.log.Info("banned user ignored", "sender", sender)
		return
	}

	if !d.flood.Allow(user.ID) {
		d.log.Debug("flood guard dropped message", "sender", sender)
		return
	}

	cmd, env := d.resolve(body)
	if cmd == nil {
		return
	}
	env.Transport = d.transport
	env.Store = d.store
	env.Registry = d.registry
	env.IsOwner = d.cfg.IsOwner(sender)
	env.IsAdmin = isAdmin

	if cmd.RequireOwner && !env.IsOwner {
		d.reply(ctx, msg, replyOwnerOnly)
		return
	}
	if cmd.RequireAdmin && msg.IsGroup && !isAdmin {
		d.reply(ctx, msg, replyAdminOnly)
		return
	}

	if !env.IsOwner && !user.Premium {
		ok, err := d.store.DecrementLimit(sender, cmd.Limit)
		if err != nil {
			d.log.Error("quota reservation failed", "sender", sender, "error", err)
			return
		}
		if !ok {
			d.reply(ctx, msg, fmt.Sprintf(replyNoLimit, user.Limit, d.store.Settings().MaxLimit))
			return
		}
	}

	d.log.Info("executing command", "title", cmd.Title, "command", env.Command, "sender", sender, "chat", msg.ChatID)
	if err := runGuarded(ctx, cmd, msg, env); err != nil {
		d.log.Error("command failed", "command", env.Command, "error", err)
		d.reply(ctx, msg, "Error: "+err.Error())
	}
}

// resolve picks a command for the body: the configured prefix and the
// fallback prefixes first, then the no-prefix literal scan. A prefixed
// resolution always wins over a no-prefix match.
func (d *Dispatcher) resolve(body string) (*plugins.Command, *plugins.Env) {
	for _, p := range append([]string{d.cfg.Prefix}, d.cfg.FallbackPrefixes...) {
		if p == "" || !strings.HasPrefix(body, p) {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(body[len(p):]))
		if len(fields) == 0 {
			break
		}
		name := strings.ToLower(fields[0])
		cmd, ok := d.registry.Resolve(name)
		if !ok {
			break
		}
		args := fields[1:]
		return cmd, &plugins.Env{
			Text:    strings.Join(args, " "),
			Args:    args,
			Prefix:  p,
			Command: name,
		}
	}

	cmd, alias, ok := d.registry.ResolveNoPrefix(body)
	if !ok {
		return nil, nil
	}
	text := strings.TrimSpace(body[len(alias):])
	var args []string
	if text != "" {
		args = strings.Fields(text)
	}
	return cmd, &plugins.Env{
		Text:    text,
		Args:    args,
		Command: alias,
	}
}

// runGuarded converts a panicking plugin into an ordinary execution
// error so one bad handler cannot kill the dispatch loop.
func runGuarded(ctx context.Context, cmd *plugins.Command, msg entities.Message, env *plugins.Env) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cmd.Run(ctx, msg, env)
}

func (d *Dispatcher) reply(ctx context.Context, msg entities.Message, text string) {
	if err := d.transport.Reply(ctx, msg, text); err != nil {
		d.log.Error("reply failed", "chat", msg.ChatID, "error", err)
	}
}
