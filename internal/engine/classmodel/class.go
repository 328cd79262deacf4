// Package classmodel holds the in-memory model of a scanned codebase:
// classes, their members, and the raw and resolved access records that
// connect them. Types here are populated concurrently during scanning,
// linked once during hierarchy completion, and read-only afterwards.
package classmodel

// Class is the descriptor of one type, keyed by its fully-qualified name.
// Ancestry is carried twice: as names (captured by the scanner or an
// introspector) and as resolved links filled in exactly once by hierarchy
// completion. A Stub class was never scanned; it exists only so that
// hierarchy edges and lazy lookups have something to attach to.
type Class struct {
	name           string
	superclassName string
	interfaceNames []string
	iface          bool
	stub           bool

	superclass *Class
	interfaces []*Class
	subclasses []*Class

	fields       []*Member
	methods      []*Member
	constructors []*Member
}

func NewClass(name, superclassName string, interfaceNames []string, iface bool) *Class {
	return &Class{
		name:           name,
		superclassName: superclassName,
		interfaceNames: interfaceNames,
		iface:          iface,
	}
}

// NewStub creates a placeholder for a class the scanner never visited.
func NewStub(name string) *Class {
	return &Class{name: name, stub: true}
}

func (c *Class) Name() string            { return c.name }
func (c *Class) SuperclassName() string  { return c.superclassName }
func (c *Class) InterfaceNames() []string { return c.interfaceNames }
func (c *Class) IsInterface() bool       { return c.iface }
func (c *Class) IsStub() bool            { return c.stub }

// MarkStub flags a class that was synthesized rather than scanned.
func (c *Class) MarkStub() { c.stub = true }

func (c *Class) Superclass() (*Class, bool) {
	return c.superclass, c.superclass != nil
}

func (c *Class) Interfaces() []*Class { return c.interfaces }

// LinkSuperclass records the resolved superclass edge and the inverse
// subclass edge. Called once per class during hierarchy completion.
func (c *Class) LinkSuperclass(super *Class) {
	if c.superclass != nil || super == nil {
		return
	}
	c.superclass = super
	super.addSubclass(c)
}

// LinkInterface records one resolved interface edge and the inverse
// implementer edge.
func (c *Class) LinkInterface(iface *Class) {
	for _, existing := range c.interfaces {
		if existing == iface {
			return
		}
	}
	c.interfaces = append(c.interfaces, iface)
	iface.addSubclass(c)
}

func (c *Class) addSubclass(sub *Class) {
	c.subclasses = append(c.subclasses, sub)
}

// DirectSubclasses returns the classes that declare c as superclass or
// directly implemented interface.
func (c *Class) DirectSubclasses() []*Class { return c.subclasses }

// AllSubclasses returns every class transitively below c, through both
// extension and implementation edges.
func (c *Class) AllSubclasses() []*Class {
	var out []*Class
	seen := map[*Class]bool{c: true}
	queue := append([]*Class(nil), c.subclasses...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, next.subclasses...)
	}
	return out
}

func (c *Class) AddMember(m *Member) {
	m.ownerClass = c
	switch m.Kind {
	case FieldMember:
		c.fields = append(c.fields, m)
	case MethodMember:
		c.methods = append(c.methods, m)
	case ConstructorMember:
		c.constructors = append(c.constructors, m)
	}
}

func (c *Class) Fields() []*Member       { return c.fields }
func (c *Class) Methods() []*Member      { return c.methods }
func (c *Class) Constructors() []*Member { return c.constructors }

func (c *Class) Members(kind MemberKind) []*Member {
	switch kind {
	case FieldMember:
		return c.fields
	case MethodMember:
		return c.methods
	default:
		return c.constructors
	}
}

// CodeUnits returns the members that can act as callers: methods and
// constructors.
func (c *Class) CodeUnits() []*Member {
	units := make([]*Member, 0, len(c.methods)+len(c.constructors))
	units = append(units, c.methods...)
	units = append(units, c.constructors...)
	return units
}

// AllMembers collects the transitive member set of the given kind: c's own
// declarations plus everything inherited through superclasses and
// interfaces. Shadowed declarations are all included; resolution decides
// which one binds.
func (c *Class) AllMembers(kind MemberKind) []*Member {
	var out []*Member
	seen := make(map[*Class]bool)
	c.collectMembers(kind, seen, &out)
	return out
}

func (c *Class) collectMembers(kind MemberKind, seen map[*Class]bool, out *[]*Member) {
	if seen[c] {
		return
	}
	seen[c] = true
	*out = append(*out, c.Members(kind)...)
	if c.superclass != nil {
		c.superclass.collectMembers(kind, seen, out)
	}
	for _, iface := range c.interfaces {
		iface.collectMembers(kind, seen, out)
	}
}

// DeclaresSignature reports whether c itself (not an ancestor) declares a
// member of the given kind with exactly this name and descriptor.
func (c *Class) DeclaresSignature(kind MemberKind, name, descriptor string) bool {
	for _, m := range c.Members(kind) {
		if m.Name == name && m.Descriptor == descriptor {
			return true
		}
	}
	return false
}
