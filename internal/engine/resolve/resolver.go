package resolve

import (
	"context"
	"log/slog"

	"classlink/internal/core/errors"
	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/hierarchy"
	"classlink/internal/engine/introspect"
	"classlink/internal/engine/registry"
	"classlink/internal/shared/observability"
)

// Resolver binds one raw access record to its target declaration. All
// three access kinds share the algorithm; only the member kind differs.
type Resolver struct {
	reg   *registry.Registry
	intro introspect.Introspector
}

func NewResolver(reg *registry.Registry, intro introspect.Introspector) *Resolver {
	if intro == nil {
		intro = introspect.Unavailable()
	}
	return &Resolver{reg: reg, intro: intro}
}

func memberKindOf(kind classmodel.AccessKind) classmodel.MemberKind {
	switch kind {
	case classmodel.FieldAccess:
		return classmodel.FieldMember
	case classmodel.ConstructorCall:
		return classmodel.ConstructorMember
	default:
		return classmodel.MethodMember
	}
}

func introKindOf(kind classmodel.MemberKind) introspect.MemberKind {
	switch kind {
	case classmodel.FieldMember:
		return introspect.KindField
	case classmodel.ConstructorMember:
		return introspect.KindConstructor
	default:
		return introspect.KindMethod
	}
}

// ResolveRecord resolves one raw record. On success it returns the
// resolved record, with fallback reporting whether synthesis was needed
// and warn (if any) carrying a non-fatal note such as an ambiguous
// hierarchy match. A nil resolved with a non-nil warn means the record
// must be dropped. A non-nil error is fatal to the whole run: it means
// the model itself is inconsistent.
func (r *Resolver) ResolveRecord(ctx context.Context, rec classmodel.RawAccess) (resolved *classmodel.ResolvedAccess, fallback bool, warn *Warning, err error) {
	caller, warn, err := r.resolveCaller(ctx, rec)
	if warn != nil || err != nil {
		return nil, false, warn, err
	}

	target, fallback, ambiguous, dropWarn := r.resolveTarget(ctx, rec)
	if dropWarn != nil {
		return nil, false, dropWarn, nil
	}

	kind := rec.Kind.String()
	observability.RecordsResolvedTotal.WithLabelValues(kind).Inc()
	if fallback {
		observability.RecordsFallbackTotal.WithLabelValues(kind).Inc()
	}
	if ambiguous {
		warn = &Warning{
			Code:    errors.CodeAmbiguous,
			Kind:    rec.Kind,
			Caller:  rec.Caller.String(),
			Target:  rec.Target.String(),
			Message: "no unique ancestor declaration, bound via synthesis",
		}
	}
	return &classmodel.ResolvedAccess{
		Caller:     caller,
		Member:     target,
		Line:       rec.Line,
		Kind:       rec.Kind,
		AccessType: rec.AccessType,
	}, fallback, warn, nil
}

// resolveCaller locates the caller code unit among its declaring class's
// members. A declaring class that cannot be loaded drops the record; a
// class that is present but does not contain the recorded code unit means
// the model is internally inconsistent, which is fatal.
func (r *Resolver) resolveCaller(ctx context.Context, rec classmodel.RawAccess) (*classmodel.Member, *Warning, error) {
	cls, err := r.reg.GetOrLoad(ctx, rec.Caller.DeclaringClass)
	if err != nil {
		if errors.IsCode(err, errors.CodeMissingDependency) {
			return nil, r.dropped(rec, errors.CodeMissingDependency,
				"caller class cannot be loaded"), nil
		}
		return nil, nil, err
	}
	for _, unit := range cls.CodeUnits() {
		if unit.Matches(rec.Caller.Name, rec.Caller.Descriptor) {
			return unit, nil, nil
		}
	}
	return nil, nil, errors.Newf(errors.CodeInternal,
		"never found a code unit that matches supposed caller %s", rec.Caller)
}

// resolveTarget implements the shared resolver shape: direct declaration
// first, then a uniquely-determined ancestor declaration, then fallback
// synthesis. fallback reports whether the binding came from synthesis;
// ambiguous reports that ancestor declarations existed but none could be
// bound safely.
func (r *Resolver) resolveTarget(ctx context.Context, rec classmodel.RawAccess) (member *classmodel.Member, fallback, ambiguous bool, warn *Warning) {
	kind := memberKindOf(rec.Kind)
	target := rec.Target

	owner, err := r.reg.GetOrLoad(ctx, target.Owner)
	if err != nil {
		return nil, false, false, r.dropped(rec, errors.CodeOf(err), "target owner cannot be loaded")
	}

	// Direct-match priority: a declaration on the owner itself wins over
	// any same-signature declaration further up.
	for _, m := range owner.Members(kind) {
		if m.Matches(target.Name, target.Descriptor) {
			return m, false, false, nil
		}
	}

	for _, m := range owner.AllMembers(kind) {
		if !m.Matches(target.Name, target.Descriptor) || m.Owner() == owner {
			continue
		}
		if hierarchy.UniqueDeclaration(target.Owner, m.Owner(), kind, target.Name, target.Descriptor) {
			return m, false, false, nil
		}
		ambiguous = true
		slog.Debug("ancestor declaration is not uniquely determined",
			"target", target.String(), "ancestor", m.Owner().Name())
	}

	return r.synthesize(owner, kind, target), true, ambiguous, nil
}

// synthesize manufactures a best-effort member when no registry-backed
// declaration can be safely bound: a structurally matching declaration
// from a live loaded class when introspection can find one, otherwise a
// descriptor-only stand-in.
func (r *Resolver) synthesize(owner *classmodel.Class, kind classmodel.MemberKind, target classmodel.TargetInfo) *classmodel.Member {
	if info, ok := r.intro.LoadClass(target.Owner); ok {
		if mi, found := info.FindMember(introKindOf(kind), target.Name, target.Descriptor); found {
			return classmodel.NewIntrospectedMember(kind, &mi).WithOwner(owner)
		}
	}
	return classmodel.NewSyntheticMember(kind, target.Name, target.Descriptor).WithOwner(owner)
}

func (r *Resolver) dropped(rec classmodel.RawAccess, code errors.ErrorCode, msg string) *Warning {
	slog.Warn("cannot analyse access because of missing dependency",
		"target", rec.Target.String(), "caller", rec.Caller.String(), "reason", msg)
	observability.RecordsDroppedTotal.WithLabelValues(rec.Kind.String()).Inc()
	return &Warning{
		Code:    code,
		Kind:    rec.Kind,
		Caller:  rec.Caller.String(),
		Target:  rec.Target.String(),
		Message: msg,
	}
}
