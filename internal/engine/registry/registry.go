// Package registry is the name-keyed store of class descriptors that every
// other engine component reads and writes. It has a two-phase lifecycle:
// open for concurrent population while the scanner runs, then frozen for
// the completion and resolution phases. The only mutation allowed after
// freezing is the lazy-load path, which registers introspected stand-ins
// for classes the scanner never visited.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"classlink/internal/core/errors"
	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/introspect"
	"classlink/internal/shared/observability"
	"classlink/internal/shared/util"
)

type Registry struct {
	mu      sync.RWMutex
	classes map[string]*classmodel.Class
	frozen  bool

	introspector introspect.Introspector
	loadLimiter  *util.Limiter
}

func New(introspector introspect.Introspector) *Registry {
	if introspector == nil {
		introspector = introspect.Unavailable()
	}
	return &Registry{
		classes:      make(map[string]*classmodel.Class),
		introspector: introspector,
	}
}

// SetLoadLimiter installs a rate limit on lazy introspective loads.
func (r *Registry) SetLoadLimiter(l *util.Limiter) {
	r.loadLimiter = l
}

// Put registers a class descriptor, keyed by name. Duplicate puts converge:
// a scanned descriptor never loses to a stub, otherwise last write wins.
// Puts are rejected once the registry is frozen.
func (r *Registry) Put(c *classmodel.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Newf(errors.CodeConflict, "registry is frozen, cannot register %q", c.Name())
	}
	if existing, ok := r.classes[c.Name()]; ok && c.IsStub() && !existing.IsStub() {
		return nil
	}
	r.classes[c.Name()] = c
	observability.RegistryClasses.Set(float64(len(r.classes)))
	return nil
}

func (r *Registry) Get(name string) (*classmodel.Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// GetOrLoad returns the descriptor for name, synthesizing one via
// introspection when the scanner never visited the class. Concurrent loads
// of the same name converge on one descriptor. A class the introspector
// cannot locate either is a missing dependency.
func (r *Registry) GetOrLoad(ctx context.Context, name string) (*classmodel.Class, error) {
	if c, ok := r.Get(name); ok {
		return c, nil
	}

	if r.loadLimiter != nil {
		if err := r.loadLimiter.Wait(ctx, 1); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "interrupted while loading class")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another goroutine may have loaded it while we waited.
	if c, ok := r.classes[name]; ok {
		return c, nil
	}

	info, ok := r.introspector.LoadClass(name)
	if !ok {
		observability.LazyLoadsTotal.WithLabelValues("missing").Inc()
		return nil, errors.Newf(errors.CodeMissingDependency, "class %q is not scanned and cannot be loaded", name)
	}

	c := classFromInfo(info)
	r.classes[name] = c
	observability.LazyLoadsTotal.WithLabelValues("loaded").Inc()
	observability.RegistryClasses.Set(float64(len(r.classes)))
	slog.Debug("lazily loaded class via introspection", "class", name)
	return c, nil
}

// All returns a snapshot of every registered class.
func (r *Registry) All() []*classmodel.Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*classmodel.Class, 0, len(r.classes))
	for _, name := range util.SortedStringKeys(r.classes) {
		out = append(out, r.classes[name])
	}
	return out
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// Freeze ends the population phase. Scanner-side Puts fail afterwards; the
// lazy-load path stays available to resolution.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// classFromInfo builds a descriptor from an introspected class view. The
// result is marked as a stub: it stands in for a class the scanner never
// produced a descriptor for.
func classFromInfo(info *introspect.ClassInfo) *classmodel.Class {
	c := classmodel.NewClass(info.Name, info.SuperclassName, info.InterfaceNames, info.Interface)
	c.MarkStub()
	for i := range info.Members {
		member := &info.Members[i]
		c.AddMember(classmodel.NewIntrospectedMember(memberKind(member.Kind), member))
	}
	return c
}

func memberKind(kind introspect.MemberKind) classmodel.MemberKind {
	switch kind {
	case introspect.KindField:
		return classmodel.FieldMember
	case introspect.KindMethod:
		return classmodel.MethodMember
	default:
		return classmodel.ConstructorMember
	}
}
