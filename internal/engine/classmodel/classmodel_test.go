package classmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classlink/internal/core/errors"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/jvm"
)

func TestClassHierarchyLinks(t *testing.T) {
	base := NewClass("example.Base", "java.lang.Object", nil, false)
	derived := NewClass("example.Derived", "example.Base", nil, false)
	iface := NewClass("example.Marker", "", nil, true)

	derived.LinkSuperclass(base)
	derived.LinkInterface(iface)

	super, ok := derived.Superclass()
	require.True(t, ok)
	assert.Equal(t, base, super)

	assert.Contains(t, base.DirectSubclasses(), derived)
	assert.Contains(t, iface.DirectSubclasses(), derived)

	// Linking twice must not duplicate edges.
	derived.LinkSuperclass(base)
	derived.LinkInterface(iface)
	assert.Len(t, base.DirectSubclasses(), 1)
	assert.Len(t, derived.Interfaces(), 1)
}

func TestAllSubclassesTransitive(t *testing.T) {
	a := NewClass("A", "", nil, false)
	b := NewClass("B", "A", nil, false)
	c := NewClass("C", "B", nil, false)
	b.LinkSuperclass(a)
	c.LinkSuperclass(b)

	subs := a.AllSubclasses()
	assert.ElementsMatch(t, []*Class{b, c}, subs)
}

func TestAllMembersIncludesInherited(t *testing.T) {
	base := NewClass("Base", "", nil, false)
	base.AddMember(NewMember(MethodMember, "count", "()I", jvm.ModPublic, nil))

	derived := NewClass("Derived", "Base", nil, false)
	derived.LinkSuperclass(base)
	derived.AddMember(NewMember(MethodMember, "reset", "()V", jvm.ModPublic, nil))

	all := derived.AllMembers(MethodMember)
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"count", "reset"}, names)

	assert.True(t, base.DeclaresSignature(MethodMember, "count", "()I"))
	assert.False(t, derived.DeclaresSignature(MethodMember, "count", "()I"))
}

func TestSyntheticMemberHandleUnsupported(t *testing.T) {
	m := NewSyntheticMember(MethodMember, "m", "()V")
	assert.Equal(t, DescriptorOnly, m.Provenance)
	assert.True(t, m.Modifiers.IsPublic())
	assert.True(t, m.Modifiers.IsAbstract())

	_, err := m.Handle()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestIntrospectedMemberHandle(t *testing.T) {
	info := &introspect.MemberInfo{
		Kind:       introspect.KindMethod,
		Name:       "run",
		Descriptor: "()V",
		Modifiers:  uint16(jvm.ModPublic),
	}
	m := NewIntrospectedMember(MethodMember, info)

	h, err := m.Handle()
	require.NoError(t, err)
	assert.Equal(t, info, h)
}

func TestMemberDerivedTypes(t *testing.T) {
	method := NewMember(MethodMember, "sum", "(II)I", jvm.ModPublic, nil)
	params, err := method.ParameterTypes()
	require.NoError(t, err)
	assert.Equal(t, []string{"int", "int"}, params)

	ret, err := method.ReturnType()
	require.NoError(t, err)
	assert.Equal(t, "int", ret)

	field := NewMember(FieldMember, "names", "[Ljava/lang/String;", jvm.ModPrivate, nil)
	ft, err := field.FieldType()
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String[]", ft)

	_, err = field.ReturnType()
	assert.Error(t, err)
}
