package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_waBot/internal/entities"
)

type fakeTransport struct {
	sent    []string
	replies []string
}

func (f *fakeTransport) SendText(_ context.Context, _, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) Reply(_ context.Context, _ entities.Message, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeTransport) Delete(context.Context, entities.Message) error { return nil }

func (f *fakeTransport) GroupMetadata(context.Context, string) (*entities.GroupMetadata, error) {
	return nil, os.ErrNotExist
}

func writePlugin(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func noopCatalog() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"ping": func(context.Context, entities.Message, *Env) error { return nil },
		"menu": func(context.Context, entities.Message, *Env) error { return nil },
	}
}

func TestLoadIndexesAliasesLowercase(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "ping.yaml", `
title: Ping
description: liveness check
aliases: [Ping, TEST]
handler: ping
`)

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	cmd, ok := r.Resolve("PING")
	require.True(t, ok)
	assert.Equal(t, "Ping", cmd.Title)
	assert.Equal(t, 1, cmd.Limit)

	_, ok = r.Resolve("test")
	assert.True(t, ok)
	_, ok = r.Resolve("missing")
	assert.False(t, ok)
}

func TestLoadSkipsMalformedUnits(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "broken.yaml", "title: [unclosed")
	writePlugin(t, root, "noalias.yaml", "title: X\nhandler: ping\n")
	writePlugin(t, root, "nohandler.yaml", "title: X\naliases: [x]\n")
	writePlugin(t, root, "unknown.yaml", "title: X\naliases: [y]\nhandler: nope\n")
	writePlugin(t, root, "badscript.yaml", "title: X\naliases: [z]\nscript: \"if then end\"\n")
	writePlugin(t, root, "good.yaml", "title: Good\naliases: [good]\nhandler: ping\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	assert.Len(t, r.Commands(), 1)
	_, ok := r.Resolve("good")
	assert.True(t, ok)
	for _, alias := range []string{"x", "y", "z"} {
		_, ok := r.Resolve(alias)
		assert.False(t, ok, "alias %s should not resolve", alias)
	}
}

func TestLoadLastWriteWinsInLexicalOrder(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "a.yaml", "title: First\naliases: [dup]\nhandler: ping\n")
	writePlugin(t, root, "sub/b.yaml", "title: Second\naliases: [dup]\nhandler: menu\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	// "sub/b.yaml" sorts after "a.yaml" in the walk, so it owns the alias.
	cmd, ok := r.Resolve("dup")
	require.True(t, ok)
	assert.Equal(t, "Second", cmd.Title)
}

func TestLoadIgnoresUnderscoreEntries(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "_draft.yaml", "title: Draft\naliases: [draft]\nhandler: ping\n")
	writePlugin(t, root, "_wip/cmd.yaml", "title: WIP\naliases: [wip]\nhandler: ping\n")
	writePlugin(t, root, "live.yaml", "title: Live\naliases: [live]\nhandler: ping\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	_, ok := r.Resolve("draft")
	assert.False(t, ok)
	_, ok = r.Resolve("wip")
	assert.False(t, ok)
	_, ok = r.Resolve("live")
	assert.True(t, ok)
}

func TestReloadReplacesNeverMerges(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "ping.yaml", "title: Ping\naliases: [ping]\nhandler: ping\n")
	writePlugin(t, root, "menu.yaml", "title: Menu\naliases: [menu]\nhandler: menu\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())
	_, ok := r.Resolve("menu")
	require.True(t, ok)

	require.NoError(t, os.Remove(filepath.Join(root, "menu.yaml")))
	require.NoError(t, r.Load())

	_, ok = r.Resolve("menu")
	assert.False(t, ok, "stale alias survived reload")
	_, ok = r.Resolve("ping")
	assert.True(t, ok)
}

func TestResolveNoPrefix(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "greet.yaml", `
title: Greet
aliases: [halo bot]
no_prefix: true
handler: ping
`)
	writePlugin(t, root, "ping.yaml", "title: Ping\naliases: [ping]\nhandler: ping\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	cmd, alias, ok := r.ResolveNoPrefix("Halo Bot, apa kabar?")
	require.True(t, ok)
	assert.Equal(t, "halo bot", alias)
	assert.Equal(t, "Greet", cmd.Title)

	// Prefix-only commands never match bare bodies.
	_, _, ok = r.ResolveNoPrefix("ping me")
	assert.False(t, ok)
}

func TestScriptPluginRuns(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "echo.yaml", `
title: Echo
aliases: [echo]
script: |
  reply("echo: " .. text)
`)

	r := NewRegistry(root, nil, nil)
	require.NoError(t, r.Load())

	cmd, ok := r.Resolve("echo")
	require.True(t, ok)

	transport := &fakeTransport{}
	msg := entities.Message{ChatID: "628111@s.whatsapp.net", Sender: "628111@s.whatsapp.net"}
	err := cmd.Run(context.Background(), msg, &Env{
		Transport: transport,
		Text:      "hello",
		Args:      []string{"hello"},
		Command:   "echo",
	})
	require.NoError(t, err)
	require.Len(t, transport.replies, 1)
	assert.Equal(t, "echo: hello", transport.replies[0])
}

func TestScriptErrorSurfacesAsExecutionError(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "boom.yaml", `
title: Boom
aliases: [boom]
script: |
  error("kaboom")
`)

	r := NewRegistry(root, nil, nil)
	require.NoError(t, r.Load())

	cmd, ok := r.Resolve("boom")
	require.True(t, ok)
	err := cmd.Run(context.Background(), entities.Message{}, &Env{Transport: &fakeTransport{}, Command: "boom"})
	assert.ErrorContains(t, err, "kaboom")
}

func TestResolveDuringReload(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "ping.yaml", "title: Ping\naliases: [ping]\nhandler: ping\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = r.Load()
		}
	}()
	for i := 0; i < 500; i++ {
		// Index is swapped atomically: the alias must resolve in
		// every snapshot, old or new.
		_, ok := r.Resolve("ping")
		assert.True(t, ok)
	}
	<-done
}
