package classmodel

import (
	"fmt"

	"classlink/internal/core/errors"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/jvm"
)

type MemberKind int

const (
	FieldMember MemberKind = iota
	MethodMember
	ConstructorMember
)

func (k MemberKind) String() string {
	switch k {
	case FieldMember:
		return "field"
	case MethodMember:
		return "method"
	case ConstructorMember:
		return "constructor"
	}
	return "unknown"
}

// Provenance records where a member declaration came from. Operations that
// need a real declaration are only available above DescriptorOnly.
type Provenance int

const (
	// Scanned members were decoded from the class file by the scanner.
	Scanned Provenance = iota
	// Introspected members were recovered from a live loaded class.
	Introspected
	// DescriptorOnly members are synthesized from raw signature text when
	// no declaration could be located; only name, descriptor and a
	// conservative modifier set are trustworthy.
	DescriptorOnly
)

// Member is one field, method or constructor declaration, owned by exactly
// one Class and immutable once constructed.
type Member struct {
	Kind        MemberKind
	Name        string
	Descriptor  string
	Modifiers   jvm.Modifiers
	Annotations []string
	Provenance  Provenance

	ownerClass *Class
	handle     *introspect.MemberInfo
}

func NewMember(kind MemberKind, name, descriptor string, mods jvm.Modifiers, annotations []string) *Member {
	return &Member{
		Kind:        kind,
		Name:        name,
		Descriptor:  descriptor,
		Modifiers:   mods,
		Annotations: annotations,
		Provenance:  Scanned,
	}
}

// NewIntrospectedMember wraps a declaration recovered from a live loaded
// class, retaining the handle for downstream callers.
func NewIntrospectedMember(kind MemberKind, info *introspect.MemberInfo) *Member {
	return &Member{
		Kind:        kind,
		Name:        info.Name,
		Descriptor:  info.Descriptor,
		Modifiers:   jvm.Modifiers(info.Modifiers),
		Annotations: info.Annotations,
		Provenance:  Introspected,
		handle:      info,
	}
}

// NewSyntheticMember manufactures a descriptor-only stand-in carrying the
// weakest legally valid modifier set: public, and abstract for methods
// (an undeterminable method target is an interface declaration, which is
// exactly public and abstract).
func NewSyntheticMember(kind MemberKind, name, descriptor string) *Member {
	mods := jvm.ModPublic
	if kind == MethodMember {
		mods |= jvm.ModAbstract
	}
	return &Member{
		Kind:       kind,
		Name:       name,
		Descriptor: descriptor,
		Modifiers:  mods,
		Provenance: DescriptorOnly,
	}
}

func (m *Member) Owner() *Class { return m.ownerClass }

// WithOwner binds the owning class without registering the member in the
// owner's declaration lists. Used for fallback members whose true owner was
// re-derived rather than scanned.
func (m *Member) WithOwner(c *Class) *Member {
	m.ownerClass = c
	return m
}

// Matches reports structural equality against a name+descriptor signature.
func (m *Member) Matches(name, descriptor string) bool {
	return m.Name == name && m.Descriptor == descriptor
}

// ParameterTypes derives the parameter type names from the descriptor.
// Valid for methods and constructors only.
func (m *Member) ParameterTypes() ([]string, error) {
	if m.Kind == FieldMember {
		return nil, errors.Newf(errors.CodeValidationError, "field %s has no parameter types", m)
	}
	params, _, err := jvm.ParseMethodDescriptor(m.Descriptor)
	return params, err
}

// ReturnType derives the return type name from the descriptor. Valid for
// methods only.
func (m *Member) ReturnType() (string, error) {
	if m.Kind != MethodMember {
		return "", errors.Newf(errors.CodeValidationError, "%s %s has no return type", m.Kind, m)
	}
	_, ret, err := jvm.ParseMethodDescriptor(m.Descriptor)
	return ret, err
}

// FieldType derives the field type name from the descriptor. Valid for
// fields only.
func (m *Member) FieldType() (string, error) {
	if m.Kind != FieldMember {
		return "", errors.Newf(errors.CodeValidationError, "%s %s has no field type", m.Kind, m)
	}
	return jvm.ParseFieldType(m.Descriptor)
}

// Handle returns the live introspection handle backing this member. For
// DescriptorOnly members no such declaration exists and the call fails with
// CodeNotSupported, never with fabricated data.
func (m *Member) Handle() (*introspect.MemberInfo, error) {
	if m.handle == nil {
		return nil, errors.Newf(errors.CodeNotSupported,
			"no live declaration for synthetic %s %s", m.Kind, m)
	}
	return m.handle, nil
}

func (m *Member) String() string {
	owner := "?"
	if m.ownerClass != nil {
		owner = m.ownerClass.Name()
	}
	return fmt.Sprintf("%s.%s%s", owner, m.Name, descriptorSuffix(m))
}

func descriptorSuffix(m *Member) string {
	if m.Kind == FieldMember {
		return ":" + m.Descriptor
	}
	return m.Descriptor
}
