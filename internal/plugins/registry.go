package plugins

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// descriptor is the on-disk shape of one plugin unit. Exactly one of
// Handler and Script must be set.
type descriptor struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Aliases      []string `yaml:"aliases"`
	NoPrefix     bool     `yaml:"no_prefix"`
	RequireOwner bool     `yaml:"require_owner"`
	RequireAdmin bool     `yaml:"require_admin"`
	Limit        int      `yaml:"limit"`
	Handler      string   `yaml:"handler"`
	Script       string   `yaml:"script"`
}

// Registry owns the alias index. Load builds a fresh index and
// publishes it with a single pointer swap, so lookups racing a reload
// see either the old or the new index, never a half-built one.
type Registry struct {
	root    string
	catalog map[string]HandlerFunc
	log     *slog.Logger

	index atomic.Pointer[map[string]*Command]
}

func NewRegistry(root string, catalog map[string]HandlerFunc, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{root: root, catalog: catalog, log: log}
	empty := map[string]*Command{}
	r.index.Store(&empty)
	return r
}

// Load rescans the plugin tree from scratch. fs.WalkDir visits entries
// in lexical order, which makes the last-write-wins alias tie-break
// deterministic: the lexically last file declaring an alias owns it.
// A malformed unit is logged and skipped, never aborting the load.
func (r *Registry) Load() error {
	next := make(map[string]*Command)

	err := fs.WalkDir(os.DirFS(r.root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warn("plugin scan error", "path", path, "error", err)
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "_") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		cmd, err := r.loadUnit(filepath.Join(r.root, path))
		if err != nil {
			r.log.Warn("invalid plugin skipped", "path", path, "error", err)
			return nil
		}
		for _, alias := range cmd.Aliases {
			next[strings.ToLower(alias)] = cmd
		}
		r.log.Info("plugin loaded", "title", cmd.Title, "aliases", strings.Join(cmd.Aliases, ", "))
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan plugin dir %s: %w", r.root, err)
	}

	r.index.Store(&next)
	return nil
}

func (r *Registry) loadUnit(path string) (*Command, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if d.Title == "" {
		return nil, fmt.Errorf("missing title")
	}
	if len(d.Aliases) == 0 {
		return nil, fmt.Errorf("missing aliases")
	}

	var run HandlerFunc
	switch {
	case d.Script != "" && d.Handler != "":
		return nil, fmt.Errorf("both handler and script set")
	case d.Script != "":
		if err := checkScript(d.Script); err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}
		run = scriptHandler(d.Script)
	case d.Handler != "":
		fn, ok := r.catalog[d.Handler]
		if !ok {
			return nil, fmt.Errorf("unknown handler %q", d.Handler)
		}
		run = fn
	default:
		return nil, fmt.Errorf("no entry point")
	}

	limit := d.Limit
	if limit <= 0 {
		limit = 1
	}
	return &Command{
		Title:        d.Title,
		Description:  d.Description,
		Aliases:      d.Aliases,
		NoPrefix:     d.NoPrefix,
		RequireOwner: d.RequireOwner,
		RequireAdmin: d.RequireAdmin,
		Limit:        limit,
		Run:          run,
	}, nil
}

func checkScript(src string) error {
	L := lua.NewState()
	defer L.Close()
	_, err := L.LoadString(src)
	return err
}

// Resolve looks an alias up case-insensitively.
func (r *Registry) Resolve(alias string) (*Command, bool) {
	idx := *r.index.Load()
	cmd, ok := idx[strings.ToLower(alias)]
	return cmd, ok
}

// ResolveNoPrefix finds a no-prefix command whose alias is a literal
// case-insensitive prefix of body. Aliases are tried in sorted order so
// resolution stays deterministic across reloads.
func (r *Registry) ResolveNoPrefix(body string) (*Command, string, bool) {
	idx := *r.index.Load()
	lower := strings.ToLower(body)

	aliases := make([]string, 0, len(idx))
	for alias := range idx {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		cmd := idx[alias]
		if cmd.NoPrefix && strings.HasPrefix(lower, alias) {
			return cmd, alias, true
		}
	}
	return nil, "", false
}

// Commands returns the loaded command set, deduplicated and sorted by
// title (a command with several aliases appears once).
func (r *Registry) Commands() []*Command {
	idx := *r.index.Load()
	seen := make(map[*Command]bool, len(idx))
	cmds := make([]*Command, 0, len(idx))
	for _, cmd := range idx {
		if !seen[cmd] {
			seen[cmd] = true
			cmds = append(cmds, cmd)
		}
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Title < cmds[j].Title })
	return cmds
}
