package highlight

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spicery/nutmeg-highlighter/internal/log"
	"github.com/spicery/nutmeg-highlighter/internal/pubsub"
)

// FallbackName is the highlighter ForFile returns when no extension matches.
const FallbackName = "Default"

// ReloadEvent is published after every Install.
type ReloadEvent struct {
	Names       []string
	Diagnostics Diagnostics
}

// Catalog maps highlighter names and file extensions to highlighters. It is
// safe for concurrent use; Install swaps the whole set at once.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]*Highlighter
	byExt  map[string]*Highlighter
	broker *pubsub.Broker[ReloadEvent]
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName: map[string]*Highlighter{},
		byExt:  map[string]*Highlighter{},
		broker: pubsub.NewBroker[ReloadEvent](),
	}
}

// Install replaces the catalog contents with hs, resolves cross-highlighter
// references among them and notifies subscribers. Duplicate names and
// extensions are won by the later highlighter.
func (c *Catalog) Install(hs ...*Highlighter) Diagnostics {
	var diags Diagnostics
	byName := make(map[string]*Highlighter, len(hs))
	byExt := make(map[string]*Highlighter)

	for _, h := range hs {
		if h == nil {
			continue
		}
		if _, dup := byName[h.name]; dup {
			diags.warnf(h.name, "", "", "duplicate highlighter name, replacing earlier definition")
		}
		byName[h.name] = h
		for _, ext := range h.extensions {
			key := normalizeExt(ext)
			if prev, dup := byExt[key]; dup && prev != h {
				diags.warnf(h.name, "", "", "extension %s already claimed by %s", key, prev.name)
			}
			byExt[key] = h
		}
	}

	lookup := func(name string) (*Highlighter, bool) {
		h, ok := byName[name]
		return h, ok
	}
	for _, h := range byName {
		diags = append(diags, h.ResolveReferences(lookup)...)
	}

	for _, d := range diags {
		if d.Severity == SeverityError {
			log.Error(log.CatCatalog, d.Message, "highlighter", d.Highlighter, "ruleset", d.RuleSet)
		} else {
			log.Warn(log.CatCatalog, d.Message, "highlighter", d.Highlighter, "ruleset", d.RuleSet)
		}
	}

	c.mu.Lock()
	c.byName = byName
	c.byExt = byExt
	c.mu.Unlock()

	names := c.Names()
	log.Info(log.CatCatalog, "installed highlighters", "count", len(names))
	c.broker.Publish(pubsub.UpdatedEvent, ReloadEvent{Names: names, Diagnostics: diags})
	return diags
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ByName returns the highlighter with the given name.
func (c *Catalog) ByName(name string) (*Highlighter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.byName[name]
	return h, ok
}

// ForFile picks a highlighter by the extension of path, ignoring case, and
// falls back to the highlighter named "Default".
func (c *Catalog) ForFile(path string) (*Highlighter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ext := normalizeExt(filepath.Ext(path)); ext != "" {
		if h, ok := c.byExt[ext]; ok {
			return h, true
		}
	}
	h, ok := c.byName[FallbackName]
	return h, ok
}

// Names returns the installed highlighter names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe streams reload events until ctx is done or the catalog closes.
func (c *Catalog) Subscribe(ctx context.Context) <-chan pubsub.Event[ReloadEvent] {
	return c.broker.Subscribe(ctx)
}

// Close ends all subscriptions.
func (c *Catalog) Close() {
	c.broker.Close()
}
