package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classlink/internal/core/errors"
	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/hierarchy"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/jvm"
	"classlink/internal/engine/registry"
)

// newClass registers a class with one caller method so records can be
// attributed to it.
func newCallerClass(t *testing.T, reg *registry.Registry, name string) classmodel.CodeUnit {
	t.Helper()
	cls := classmodel.NewClass(name, "", nil, false)
	cls.AddMember(classmodel.NewMember(classmodel.MethodMember, "run", "()V", jvm.ModPublic, nil))
	require.NoError(t, reg.Put(cls))
	return classmodel.CodeUnit{DeclaringClass: name, Name: "run", Descriptor: "()V"}
}

func complete(t *testing.T, reg *registry.Registry) {
	t.Helper()
	hierarchy.NewCompleter(reg).Complete(context.Background())
	reg.Freeze()
}

func methodCall(caller classmodel.CodeUnit, owner, name, desc string, line int) classmodel.RawAccess {
	return classmodel.RawAccess{
		Caller: caller,
		Target: classmodel.TargetInfo{Owner: owner, Name: name, Descriptor: desc},
		Line:   line,
		Kind:   classmodel.MethodCall,
	}
}

func TestDirectMatchPriority(t *testing.T) {
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	base := classmodel.NewClass("app.Base", "", nil, false)
	base.AddMember(classmodel.NewMember(classmodel.MethodMember, "size", "()I", jvm.ModPublic, nil))
	derived := classmodel.NewClass("app.Derived", "app.Base", nil, false)
	derived.AddMember(classmodel.NewMember(classmodel.MethodMember, "size", "()I", jvm.ModPublic, nil))
	require.NoError(t, reg.Put(base))
	require.NoError(t, reg.Put(derived))
	complete(t, reg)

	r := NewResolver(reg, nil)
	resolved, fallback, warn, err := r.ResolveRecord(context.Background(),
		methodCall(caller, "app.Derived", "size", "()I", 10))
	require.NoError(t, err)
	require.Nil(t, warn)
	assert.False(t, fallback)
	assert.Equal(t, "app.Derived", resolved.Member.Owner().Name())
}

func TestInheritedMethodResolvesToDeclaringAncestor(t *testing.T) {
	// Base declares int count(); Derived extends Base without override. A
	// call declared on Derived binds to Base.count.
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	base := classmodel.NewClass("app.Base", "", nil, false)
	base.AddMember(classmodel.NewMember(classmodel.MethodMember, "count", "()I", jvm.ModPublic, nil))
	derived := classmodel.NewClass("app.Derived", "app.Base", nil, false)
	require.NoError(t, reg.Put(base))
	require.NoError(t, reg.Put(derived))
	complete(t, reg)

	r := NewResolver(reg, nil)
	resolved, fallback, warn, err := r.ResolveRecord(context.Background(),
		methodCall(caller, "app.Derived", "count", "()I", 12))
	require.NoError(t, err)
	require.Nil(t, warn)
	assert.False(t, fallback)
	assert.Equal(t, "app.Base", resolved.Member.Owner().Name())
	assert.Equal(t, "count", resolved.Member.Name)
	assert.Equal(t, "()I", resolved.Member.Descriptor)
}

func TestUniqueAncestorAcceptanceOverTwoHops(t *testing.T) {
	// A extends B extends C; only B declares f()V; call declared on A.
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	c := classmodel.NewClass("app.C", "", nil, false)
	b := classmodel.NewClass("app.B", "app.C", nil, false)
	b.AddMember(classmodel.NewMember(classmodel.MethodMember, "f", "()V", jvm.ModPublic, nil))
	a := classmodel.NewClass("app.A", "app.B", nil, false)
	require.NoError(t, reg.Put(a))
	require.NoError(t, reg.Put(b))
	require.NoError(t, reg.Put(c))
	complete(t, reg)

	r := NewResolver(reg, nil)
	resolved, _, warn, err := r.ResolveRecord(context.Background(),
		methodCall(caller, "app.A", "f", "()V", 3))
	require.NoError(t, err)
	require.Nil(t, warn)
	assert.Equal(t, "app.B", resolved.Member.Owner().Name())
}

func TestDiamondRejectionFallsBackToSynthesis(t *testing.T) {
	// I1 and I2 both declare m()V; C implements both without overriding.
	// Neither declaration may bind; the call falls back to a synthetic
	// member.
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	i1 := classmodel.NewClass("app.I1", "", nil, true)
	i1.AddMember(classmodel.NewMember(classmodel.MethodMember, "m", "()V", jvm.ModPublic|jvm.ModAbstract, nil))
	i2 := classmodel.NewClass("app.I2", "", nil, true)
	i2.AddMember(classmodel.NewMember(classmodel.MethodMember, "m", "()V", jvm.ModPublic|jvm.ModAbstract, nil))
	c := classmodel.NewClass("app.C", "", []string{"app.I1", "app.I2"}, false)
	require.NoError(t, reg.Put(i1))
	require.NoError(t, reg.Put(i2))
	require.NoError(t, reg.Put(c))
	complete(t, reg)

	r := NewResolver(reg, nil)
	resolved, fallback, warn, err := r.ResolveRecord(context.Background(),
		methodCall(caller, "app.C", "m", "()V", 7))
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, errors.CodeAmbiguous, warn.Code)
	assert.True(t, fallback)
	assert.Equal(t, classmodel.DescriptorOnly, resolved.Member.Provenance)
	assert.Equal(t, "m", resolved.Member.Name)
	assert.Equal(t, "()V", resolved.Member.Descriptor)
	assert.True(t, resolved.Member.Modifiers.IsPublic())
	assert.True(t, resolved.Member.Modifiers.IsAbstract())

	_, handleErr := resolved.Member.Handle()
	assert.True(t, errors.IsCode(handleErr, errors.CodeNotSupported))
}

func TestUnknownOwnerIntrospectedField(t *testing.T) {
	table := introspect.NewTable()
	table.Add(&introspect.ClassInfo{
		Name: "lib.Unscanned",
		Members: []introspect.MemberInfo{
			{Kind: introspect.KindField, Name: "limit", Descriptor: "I", Modifiers: uint16(jvm.ModPrivate | jvm.ModFinal)},
		},
	})

	reg := registry.New(table)
	caller := newCallerClass(t, reg, "app.Caller")
	complete(t, reg)

	r := NewResolver(reg, table)
	rec := classmodel.RawAccess{
		Caller:     caller,
		Target:     classmodel.TargetInfo{Owner: "lib.Unscanned", Name: "limit", Descriptor: "I"},
		Line:       4,
		Kind:       classmodel.FieldAccess,
		AccessType: classmodel.AccessRead,
	}
	resolved, _, warn, err := r.ResolveRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Nil(t, warn)
	assert.Equal(t, classmodel.Introspected, resolved.Member.Provenance)
	assert.Equal(t, "lib.Unscanned", resolved.Member.Owner().Name())
	assert.True(t, resolved.Member.Modifiers.IsFinal())
	assert.Equal(t, classmodel.AccessRead, resolved.AccessType)
}

func TestUnknownOwnerSyntheticFieldWhenMemberNotIntrospectable(t *testing.T) {
	table := introspect.NewTable()
	table.Add(&introspect.ClassInfo{Name: "lib.Unscanned"})

	reg := registry.New(table)
	caller := newCallerClass(t, reg, "app.Caller")
	complete(t, reg)

	r := NewResolver(reg, table)
	rec := classmodel.RawAccess{
		Caller:     caller,
		Target:     classmodel.TargetInfo{Owner: "lib.Unscanned", Name: "limit", Descriptor: "I"},
		Kind:       classmodel.FieldAccess,
		AccessType: classmodel.AccessWrite,
	}
	resolved, fallback, warn, err := r.ResolveRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Nil(t, warn)
	assert.True(t, fallback)
	assert.Equal(t, classmodel.DescriptorOnly, resolved.Member.Provenance)
	assert.Equal(t, "limit", resolved.Member.Name)
	assert.Equal(t, "I", resolved.Member.Descriptor)
	assert.True(t, resolved.Member.Modifiers.IsPublic())
	assert.False(t, resolved.Member.Modifiers.IsAbstract())
}

func TestMissingOwnerDropsRecord(t *testing.T) {
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")
	complete(t, reg)

	r := NewResolver(reg, nil)
	_, _, warn, err := r.ResolveRecord(context.Background(),
		methodCall(caller, "gone.Missing", "m", "()V", 1))
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, errors.CodeMissingDependency, warn.Code)
}

func TestUnknownCallerCodeUnitIsFatal(t *testing.T) {
	reg := registry.New(nil)
	cls := classmodel.NewClass("app.Caller", "", nil, false)
	require.NoError(t, reg.Put(cls))
	complete(t, reg)

	r := NewResolver(reg, nil)
	bogus := classmodel.CodeUnit{DeclaringClass: "app.Caller", Name: "ghost", Descriptor: "()V"}
	_, _, _, err := r.ResolveRecord(context.Background(),
		methodCall(bogus, "app.Caller", "anything", "()V", 1))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInternal))
}

func TestConstructorCallResolution(t *testing.T) {
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	widget := classmodel.NewClass("app.Widget", "", nil, false)
	widget.AddMember(classmodel.NewMember(classmodel.ConstructorMember, jvm.ConstructorName, "(I)V", jvm.ModPublic, nil))
	require.NoError(t, reg.Put(widget))
	complete(t, reg)

	r := NewResolver(reg, nil)
	rec := classmodel.RawAccess{
		Caller: caller,
		Target: classmodel.TargetInfo{Owner: "app.Widget", Name: jvm.ConstructorName, Descriptor: "(I)V"},
		Line:   20,
		Kind:   classmodel.ConstructorCall,
	}
	resolved, fallback, warn, err := r.ResolveRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Nil(t, warn)
	assert.False(t, fallback)
	assert.Equal(t, classmodel.ConstructorMember, resolved.Member.Kind)
	assert.Equal(t, "app.Widget", resolved.Member.Owner().Name())
}

func TestResolutionIsIdempotent(t *testing.T) {
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	base := classmodel.NewClass("app.Base", "", nil, false)
	base.AddMember(classmodel.NewMember(classmodel.MethodMember, "count", "()I", jvm.ModPublic, nil))
	derived := classmodel.NewClass("app.Derived", "app.Base", nil, false)
	require.NoError(t, reg.Put(base))
	require.NoError(t, reg.Put(derived))
	complete(t, reg)

	r := NewResolver(reg, nil)
	rec := methodCall(caller, "app.Derived", "count", "()I", 12)

	first, _, _, err := r.ResolveRecord(context.Background(), rec)
	require.NoError(t, err)
	second, _, _, err := r.ResolveRecord(context.Background(), rec)
	require.NoError(t, err)

	assert.Same(t, first.Member, second.Member)
	assert.Same(t, first.Caller, second.Caller)
	assert.Equal(t, first.Line, second.Line)
}

// The resolved record preserves the raw record's signature and metadata.
func TestResolvedRecordCarriesRawMetadata(t *testing.T) {
	reg := registry.New(nil)
	caller := newCallerClass(t, reg, "app.Caller")

	target := classmodel.NewClass("app.Target", "", nil, false)
	target.AddMember(classmodel.NewMember(classmodel.MethodMember, "m", "(J)V", jvm.ModPublic|jvm.ModStatic, nil))
	require.NoError(t, reg.Put(target))
	complete(t, reg)

	r := NewResolver(reg, nil)
	resolved, _, _, err := r.ResolveRecord(context.Background(),
		methodCall(caller, "app.Target", "m", "(J)V", 42))
	require.NoError(t, err)
	assert.Equal(t, 42, resolved.Line)
	assert.Equal(t, classmodel.MethodCall, resolved.Kind)
	assert.Equal(t, "m", resolved.Member.Name)
	assert.Equal(t, "(J)V", resolved.Member.Descriptor)
	assert.Equal(t, caller, classmodel.CodeUnit{
		DeclaringClass: resolved.Caller.Owner().Name(),
		Name:           resolved.Caller.Name,
		Descriptor:     resolved.Caller.Descriptor,
	})
}
