package plugins

import (
	"context"

	"project_waBot/internal/entities"
	"project_waBot/internal/interfaces"
	"project_waBot/internal/repository"
)

// Env is the resolved context a command runs with.
type Env struct {
	Transport interfaces.Transport
	Store     *repository.Store
	Registry  *Registry
	Text      string   // body with prefix and command token stripped
	Args      []string // Text split on spaces
	Prefix    string   // matched prefix, empty for no-prefix commands
	Command   string   // matched alias
	IsOwner   bool
	IsAdmin   bool
}

// HandlerFunc is the entry point every plugin binds to, either a
// compiled-in handler from the catalog or a Lua chunk.
type HandlerFunc func(ctx context.Context, msg entities.Message, env *Env) error

// Command is an immutable descriptor in the alias index. Commands hold
// no state of their own and are shared across concurrent dispatches.
type Command struct {
	Title        string
	Description  string
	Aliases      []string
	NoPrefix     bool
	RequireOwner bool
	RequireAdmin bool
	Limit        int // quota cost, at least 1

	Run HandlerFunc
}
