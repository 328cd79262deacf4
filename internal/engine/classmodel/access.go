package classmodel

import "fmt"

type AccessKind int

const (
	FieldAccess AccessKind = iota
	MethodCall
	ConstructorCall
)

func (k AccessKind) String() string {
	switch k {
	case FieldAccess:
		return "field_access"
	case MethodCall:
		return "method_call"
	case ConstructorCall:
		return "constructor_call"
	}
	return "unknown"
}

// FieldAccessType distinguishes reads from writes; meaningful only for
// field accesses.
type FieldAccessType int

const (
	AccessNone FieldAccessType = iota
	AccessRead
	AccessWrite
)

func (t FieldAccessType) String() string {
	switch t {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return ""
	}
}

// CodeUnit identifies the caller of an access as recorded in bytecode: the
// declaring class plus the code unit's name and descriptor. It is a value
// type so records can be keyed by it.
type CodeUnit struct {
	DeclaringClass string
	Name           string
	Descriptor     string
}

func (u CodeUnit) String() string {
	return fmt.Sprintf("%s.%s%s", u.DeclaringClass, u.Name, u.Descriptor)
}

// TargetInfo is the statically-recorded reference at an access site: what
// the bytecode said was called, before hierarchy-aware binding. Equality is
// structural.
type TargetInfo struct {
	Owner      string
	Name       string
	Descriptor string
}

func (t TargetInfo) String() string {
	return fmt.Sprintf("%s.%s%s", t.Owner, t.Name, t.Descriptor)
}

// RawAccess is one unresolved access fact captured by the scanner.
// Identity is the full value: caller, target, line, kind and (for field
// accesses) the read/write type.
type RawAccess struct {
	Caller     CodeUnit
	Target     TargetInfo
	Line       int
	Kind       AccessKind
	AccessType FieldAccessType
}

func (r RawAccess) String() string {
	return fmt.Sprintf("%s{caller=%s, target=%s, line=%d}", r.Kind, r.Caller, r.Target, r.Line)
}

// ResolvedAccess is a RawAccess bound to the concrete member declaration it
// targets, attributed to the resolved caller code unit.
type ResolvedAccess struct {
	Caller     *Member
	Member     *Member
	Line       int
	Kind       AccessKind
	AccessType FieldAccessType
}
