package resolve

import (
	"sync"

	"classlink/internal/core/errors"
	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/registry"
)

// Warning is one structured, non-fatal resolution failure, surfaced to the
// caller alongside the model instead of aborting the batch.
type Warning struct {
	Code    errors.ErrorCode
	Kind    classmodel.AccessKind
	Caller  string
	Target  string
	Message string
}

// Stats summarizes one resolution run.
type Stats struct {
	Resolved int
	Fallback int
	Dropped  int
}

// Model is the finished, queryable analysis result: resolved access
// records indexed by caller code unit, plus the class registry and the
// warnings accumulated while resolving.
type Model struct {
	mu  sync.RWMutex
	reg *registry.Registry

	fieldAccesses    map[classmodel.CodeUnit][]*classmodel.ResolvedAccess
	methodCalls      map[classmodel.CodeUnit][]*classmodel.ResolvedAccess
	constructorCalls map[classmodel.CodeUnit][]*classmodel.ResolvedAccess

	warnings []Warning
	stats    Stats
}

func newModel(reg *registry.Registry) *Model {
	return &Model{
		reg:              reg,
		fieldAccesses:    make(map[classmodel.CodeUnit][]*classmodel.ResolvedAccess),
		methodCalls:      make(map[classmodel.CodeUnit][]*classmodel.ResolvedAccess),
		constructorCalls: make(map[classmodel.CodeUnit][]*classmodel.ResolvedAccess),
	}
}

func (m *Model) add(caller classmodel.CodeUnit, rec *classmodel.ResolvedAccess, fallback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch rec.Kind {
	case classmodel.FieldAccess:
		m.fieldAccesses[caller] = append(m.fieldAccesses[caller], rec)
	case classmodel.MethodCall:
		m.methodCalls[caller] = append(m.methodCalls[caller], rec)
	case classmodel.ConstructorCall:
		m.constructorCalls[caller] = append(m.constructorCalls[caller], rec)
	}
	m.stats.Resolved++
	if fallback {
		m.stats.Fallback++
	}
}

// warn records a warning that did not cost the record, e.g. an ambiguous
// hierarchy match that recovered through synthesis.
func (m *Model) warn(w Warning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, w)
}

// drop records a warning for a record that could not be resolved at all.
func (m *Model) drop(w Warning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, w)
	m.stats.Dropped++
}

// FieldAccessesFrom returns the resolved field accesses originating from
// the given caller code unit.
func (m *Model) FieldAccessesFrom(caller classmodel.CodeUnit) []*classmodel.ResolvedAccess {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*classmodel.ResolvedAccess(nil), m.fieldAccesses[caller]...)
}

// MethodCallsFrom returns the resolved method calls originating from the
// given caller code unit.
func (m *Model) MethodCallsFrom(caller classmodel.CodeUnit) []*classmodel.ResolvedAccess {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*classmodel.ResolvedAccess(nil), m.methodCalls[caller]...)
}

// ConstructorCallsFrom returns the resolved constructor calls originating
// from the given caller code unit.
func (m *Model) ConstructorCallsFrom(caller classmodel.CodeUnit) []*classmodel.ResolvedAccess {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*classmodel.ResolvedAccess(nil), m.constructorCalls[caller]...)
}

// Class looks up a class descriptor known to the model.
func (m *Model) Class(name string) (*classmodel.Class, bool) {
	return m.reg.Get(name)
}

func (m *Model) Warnings() []Warning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Warning(nil), m.warnings...)
}

func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
