package hierarchy

import "classlink/internal/engine/classmodel"

// Path returns the ordered chain of classes from child up to ancestor,
// both inclusive, following superclass links. It returns nil when ancestor
// is not reachable that way; interface-only routes deliberately yield no
// path, which downstream treats as "no unique match".
func Path(child, ancestor *classmodel.Class) []*classmodel.Class {
	if child == nil || ancestor == nil {
		return nil
	}
	var path []*classmodel.Class
	for current := child; current != nil; {
		path = append(path, current)
		if current == ancestor {
			return path
		}
		next, ok := current.Superclass()
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// PathFromDeclared locates, among the ancestor itself and all its known
// subclasses, the class matching the declared owner's erased type, and
// returns the chain from it up to the ancestor. No matching subclass, or a
// subclass with no superclass route to the ancestor, yields nil.
func PathFromDeclared(declaredOwner string, ancestor *classmodel.Class) []*classmodel.Class {
	if ancestor == nil {
		return nil
	}
	if ancestor.Name() == declaredOwner {
		return []*classmodel.Class{ancestor}
	}
	for _, sub := range ancestor.AllSubclasses() {
		if sub.Name() == declaredOwner {
			return Path(sub, ancestor)
		}
	}
	return nil
}

// HasExactlyOneMatch reports whether exactly one class on the path itself
// declares a member of the given kind with this name and descriptor. Zero
// matches means the signature belongs elsewhere; more than one is the
// diamond scenario, where no single declaration is authoritative.
func HasExactlyOneMatch(path []*classmodel.Class, kind classmodel.MemberKind, name, descriptor string) bool {
	matches := 0
	for _, cls := range path {
		if cls.DeclaresSignature(kind, name, descriptor) {
			matches++
			if matches > 1 {
				return false
			}
		}
	}
	return matches == 1
}

// UniqueDeclaration decides whether a member declared on ancestor may be
// bound for an access whose statically declared owner is declaredOwner:
// the subtype path between them must exist and carry exactly one
// declaration of the signature.
func UniqueDeclaration(declaredOwner string, ancestor *classmodel.Class, kind classmodel.MemberKind, name, descriptor string) bool {
	path := PathFromDeclared(declaredOwner, ancestor)
	if path == nil {
		return false
	}
	return HasExactlyOneMatch(path, kind, name, descriptor)
}
