package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/jvm"
	"classlink/internal/engine/registry"
)

func TestCompleteAddsMissingAncestors(t *testing.T) {
	table := introspect.NewTable()
	table.Add(&introspect.ClassInfo{Name: "lib.Base", SuperclassName: "java.lang.Object"})
	table.Add(&introspect.ClassInfo{Name: "java.lang.Object"})

	reg := registry.New(table)
	derived := classmodel.NewClass("app.Derived", "lib.Base", nil, false)
	require.NoError(t, reg.Put(derived))

	added := NewCompleter(reg).Complete(context.Background())

	assert.Equal(t, 2, added)
	base, ok := reg.Get("lib.Base")
	require.True(t, ok)
	assert.True(t, base.IsStub())

	super, ok := derived.Superclass()
	require.True(t, ok)
	assert.Same(t, base, super)

	// Fixed point: lib.Base's own ancestor was completed too.
	obj, ok := base.Superclass()
	require.True(t, ok)
	assert.Equal(t, "java.lang.Object", obj.Name())
}

func TestCompleteToleratesMissingDependency(t *testing.T) {
	reg := registry.New(nil)
	orphan := classmodel.NewClass("app.Orphan", "gone.Vanished", []string{"gone.Iface"}, false)
	require.NoError(t, reg.Put(orphan))

	NewCompleter(reg).Complete(context.Background())

	_, ok := orphan.Superclass()
	assert.False(t, ok, "edge to unlocatable ancestor must stay absent")
	assert.Empty(t, orphan.Interfaces())
	_, registered := reg.Get("gone.Vanished")
	assert.False(t, registered)
}

func TestCompleteLinksInterfaces(t *testing.T) {
	reg := registry.New(nil)
	iface := classmodel.NewClass("app.Marker", "", nil, true)
	impl := classmodel.NewClass("app.Impl", "", []string{"app.Marker"}, false)
	require.NoError(t, reg.Put(iface))
	require.NoError(t, reg.Put(impl))

	NewCompleter(reg).Complete(context.Background())

	require.Len(t, impl.Interfaces(), 1)
	assert.Same(t, iface, impl.Interfaces()[0])
	assert.Contains(t, iface.DirectSubclasses(), impl)
}

func buildChain(t *testing.T) (*classmodel.Class, *classmodel.Class, *classmodel.Class) {
	t.Helper()
	c := classmodel.NewClass("C", "", nil, false)
	b := classmodel.NewClass("B", "C", nil, false)
	a := classmodel.NewClass("A", "B", nil, false)
	b.LinkSuperclass(c)
	a.LinkSuperclass(b)
	return a, b, c
}

func TestPathWalksSuperclassChain(t *testing.T) {
	a, b, c := buildChain(t)

	assert.Equal(t, []*classmodel.Class{a, b, c}, Path(a, c))
	assert.Equal(t, []*classmodel.Class{b, c}, Path(b, c))
	assert.Equal(t, []*classmodel.Class{a}, Path(a, a))
	assert.Nil(t, Path(c, a), "downward walk has no path")
}

func TestPathFromDeclared(t *testing.T) {
	a, b, c := buildChain(t)

	assert.Equal(t, []*classmodel.Class{a, b, c}, PathFromDeclared("A", c))
	assert.Equal(t, []*classmodel.Class{b, c}, PathFromDeclared("B", c))
	assert.Equal(t, []*classmodel.Class{c}, PathFromDeclared("C", c))
	assert.Nil(t, PathFromDeclared("X", c))
	_ = a
}

func TestUniqueDeclarationSingleMatch(t *testing.T) {
	a, b, _ := buildChain(t)
	b.AddMember(classmodel.NewMember(classmodel.MethodMember, "f", "()V", jvm.ModPublic, nil))

	assert.True(t, UniqueDeclaration("A", b, classmodel.MethodMember, "f", "()V"))
	_ = a
}

func TestUniqueDeclarationRejectsDuplicates(t *testing.T) {
	a, b, c := buildChain(t)
	b.AddMember(classmodel.NewMember(classmodel.MethodMember, "f", "()V", jvm.ModPublic, nil))
	c.AddMember(classmodel.NewMember(classmodel.MethodMember, "f", "()V", jvm.ModPublic, nil))

	// Two classes on the path declare f()V: ambiguous, no safe bind.
	assert.False(t, UniqueDeclaration("A", c, classmodel.MethodMember, "f", "()V"))
	_ = a
}

func TestUniqueDeclarationRejectsInterfaceOnlyRoute(t *testing.T) {
	i1 := classmodel.NewClass("I1", "", nil, true)
	i1.AddMember(classmodel.NewMember(classmodel.MethodMember, "m", "()V", jvm.ModPublic|jvm.ModAbstract, nil))
	i2 := classmodel.NewClass("I2", "", nil, true)
	i2.AddMember(classmodel.NewMember(classmodel.MethodMember, "m", "()V", jvm.ModPublic|jvm.ModAbstract, nil))

	impl := classmodel.NewClass("CImpl", "", []string{"I1", "I2"}, false)
	impl.LinkInterface(i1)
	impl.LinkInterface(i2)

	// The declared owner reaches m only through interface edges; the
	// superclass walk yields no path, so neither declaration may bind.
	assert.False(t, UniqueDeclaration("CImpl", i1, classmodel.MethodMember, "m", "()V"))
	assert.False(t, UniqueDeclaration("CImpl", i2, classmodel.MethodMember, "m", "()V"))
}
