// Package introspect is the boundary to the host's class-loading facility.
// When bytecode-only information is not enough, the engine asks an
// Introspector for a live view of a class: its ancestry and the structural
// signatures of its declared members. Implementations may be backed by a
// real classloader on the host side; this package only fixes the contract
// and ships an in-memory table implementation for adapters and tests.
package introspect

import "sync"

// MemberKind discriminates the three declared member forms.
type MemberKind int

const (
	KindField MemberKind = iota
	KindMethod
	KindConstructor
)

func (k MemberKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	}
	return "unknown"
}

// MemberInfo is the structural view of a loaded declaration. It doubles as
// the live handle a fully introspected member exposes downstream.
type MemberInfo struct {
	Kind        MemberKind
	Name        string
	Descriptor  string
	Modifiers   uint16
	Annotations []string
}

// ClassInfo is the loaded view of a class: identity, ancestry and declared
// members, all by structural signature.
type ClassInfo struct {
	Name           string
	SuperclassName string
	InterfaceNames []string
	Interface      bool
	Members        []MemberInfo
}

// FindMember returns the first declared member matching kind, name and
// descriptor, mirroring a signature-predicate search over a loaded class.
func (c *ClassInfo) FindMember(kind MemberKind, name, descriptor string) (MemberInfo, bool) {
	for _, m := range c.Members {
		if m.Kind == kind && m.Name == name && m.Descriptor == descriptor {
			return m, true
		}
	}
	return MemberInfo{}, false
}

// Introspector loads classes by fully-qualified name. LoadClass returns
// ok=false when the class cannot be located by the host at all; duplicate
// loads of the same name must return equivalent results.
type Introspector interface {
	LoadClass(name string) (*ClassInfo, bool)
}

// Unavailable returns an Introspector that can load nothing, for runs where
// the host provides no class-loading facility.
func Unavailable() Introspector {
	return unavailable{}
}

type unavailable struct{}

func (unavailable) LoadClass(string) (*ClassInfo, bool) { return nil, false }

// Table is a concurrency-safe in-memory Introspector keyed by class name.
type Table struct {
	mu      sync.RWMutex
	classes map[string]*ClassInfo
}

func NewTable() *Table {
	return &Table{classes: make(map[string]*ClassInfo)}
}

func (t *Table) Add(info *ClassInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classes[info.Name] = info
}

func (t *Table) LoadClass(name string) (*ClassInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.classes[name]
	return info, ok
}
