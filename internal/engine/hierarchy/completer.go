// Package hierarchy closes the class graph before resolution: every
// ancestor reachable from a registered class gets a descriptor in the
// registry and a resolved link, and the hierarchy path between a declared
// owner and a candidate ancestor can be queried as a pure function.
package hierarchy

import (
	"context"
	"log/slog"

	"classlink/internal/core/errors"
	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/registry"
	"classlink/internal/shared/observability"
)

// Completer walks the supertype chain of every registered class and fills
// the registry to a fixed point. An ancestor that cannot be located leaves
// its edge absent; completion itself never fails.
type Completer struct {
	reg *registry.Registry
}

func NewCompleter(reg *registry.Registry) *Completer {
	return &Completer{reg: reg}
}

// Complete runs hierarchy completion to a fixed point and returns the
// number of ancestor descriptors added along the way.
func (c *Completer) Complete(ctx context.Context) int {
	added := 0
	done := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return added
		}
		before := c.reg.Size()
		progressed := false
		for _, cls := range c.reg.All() {
			if done[cls.Name()] {
				continue
			}
			done[cls.Name()] = true
			progressed = true
			c.linkAncestors(ctx, cls)
		}
		added += c.reg.Size() - before
		if !progressed {
			break
		}
	}
	if added > 0 {
		observability.HierarchyStubsTotal.Add(float64(added))
	}
	return added
}

func (c *Completer) linkAncestors(ctx context.Context, cls *classmodel.Class) {
	if name := cls.SuperclassName(); name != "" {
		if super := c.resolveAncestor(ctx, cls, name); super != nil {
			cls.LinkSuperclass(super)
		}
	}
	for _, name := range cls.InterfaceNames() {
		if iface := c.resolveAncestor(ctx, cls, name); iface != nil {
			cls.LinkInterface(iface)
		}
	}
}

func (c *Completer) resolveAncestor(ctx context.Context, cls *classmodel.Class, name string) *classmodel.Class {
	ancestor, err := c.reg.GetOrLoad(ctx, name)
	if err != nil {
		if errors.IsCode(err, errors.CodeMissingDependency) {
			observability.HierarchyMissingTotal.Inc()
			slog.Warn("cannot analyse related type because of missing dependency",
				"class", cls.Name(), "missing", name)
			return nil
		}
		slog.Warn("failed to resolve ancestor", "class", cls.Name(), "ancestor", name, "error", err)
		return nil
	}
	return ancestor
}
