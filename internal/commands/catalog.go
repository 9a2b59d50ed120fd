// Package commands holds the compiled-in handler catalog. Plugin
// descriptors under the plugin tree bind aliases and policy flags to
// these handlers by name; the business logic itself never deals with
// prefixes, quota or access checks.
package commands

import "project_waBot/internal/plugins"

// Catalog maps descriptor handler names to entry points.
func Catalog() map[string]plugins.HandlerFunc {
	return map[string]plugins.HandlerFunc{
		"ping":        Ping,
		"profile":     Profile,
		"menu":        Menu,
		"ban":         Ban,
		"unban":       Unban,
		"premium":     Premium,
		"unpremium":   Unpremium,
		"addlimit":    AddLimit,
		"setmaxlimit": SetMaxLimit,
		"maintenance": Maintenance,
		"backup":      Backup,
		"resetlimits": ResetLimits,
		"welcome":     Welcome,
		"antilink":    AntiLink,
	}
}
