// Package ingest decodes scanner dump files into the class registry and
// the raw access store. A dump is the JSON artifact produced by the
// bytecode scanning stage: class declarations plus the raw field access,
// method call and constructor call records captured per code unit.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gobwas/glob"

	"classlink/internal/core/errors"
	"classlink/internal/engine/classmodel"
	"classlink/internal/engine/jvm"
	"classlink/internal/engine/resolve"
	"classlink/internal/engine/registry"
	"classlink/internal/shared/observability"
)

type ClassRecord struct {
	Name       string         `json:"name"`
	Superclass string         `json:"superclass,omitempty"`
	Interfaces []string       `json:"interfaces,omitempty"`
	Interface  bool           `json:"interface,omitempty"`
	Members    []MemberRecord `json:"members,omitempty"`
}

type MemberRecord struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Descriptor  string   `json:"descriptor"`
	Modifiers   uint16   `json:"modifiers"`
	Annotations []string `json:"annotations,omitempty"`
}

type CodeUnitRecord struct {
	Class      string `json:"class"`
	Name       string `json:"name"`
	Descriptor string `json:"descriptor"`
}

type AccessRecord struct {
	Caller     CodeUnitRecord `json:"caller"`
	Owner      string         `json:"owner"`
	Name       string         `json:"name"`
	Descriptor string         `json:"descriptor"`
	Line       int            `json:"line"`
	AccessType string         `json:"access_type,omitempty"`
}

// Dump is the top-level scanner artifact.
type Dump struct {
	Classes          []ClassRecord  `json:"classes"`
	FieldAccesses    []AccessRecord `json:"field_accesses"`
	MethodCalls      []AccessRecord `json:"method_calls"`
	ConstructorCalls []AccessRecord `json:"constructor_calls"`
}

// Filter restricts ingestion by class name. Include patterns, when
// present, whitelist; exclude patterns always win over includes.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

func NewFilter(include, exclude []string) (*Filter, error) {
	inc, err := compileGlobs(include, "include")
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude, "exclude")
	if err != nil {
		return nil, err
	}
	return &Filter{include: inc, exclude: exc}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *Filter) Match(name string) bool {
	if f == nil {
		return true
	}
	for _, g := range f.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Summary reports what one dump contributed.
type Summary struct {
	Classes        int
	Records        int
	SkippedClasses int
	SkippedRecords int
}

// Loader feeds dumps into an open registry and a record store. Loading
// must finish before the registry is frozen.
type Loader struct {
	reg    *registry.Registry
	store  *resolve.Store
	filter *Filter
}

func NewLoader(reg *registry.Registry, store *resolve.Store, filter *Filter) *Loader {
	return &Loader{reg: reg, store: store, filter: filter}
}

func (l *Loader) LoadFile(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open dump %q: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

func (l *Loader) Load(r io.Reader) (Summary, error) {
	start := time.Now()
	defer func() {
		observability.PhaseDuration.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	}()

	var dump Dump
	dec := json.NewDecoder(r)
	if err := dec.Decode(&dump); err != nil {
		return Summary{}, errors.Wrap(err, errors.CodeValidationError, "malformed scan dump")
	}

	var sum Summary
	for _, cr := range dump.Classes {
		if cr.Name == "" {
			return sum, errors.New(errors.CodeValidationError, "class record without a name")
		}
		if !l.filter.Match(cr.Name) {
			sum.SkippedClasses++
			slog.Debug("class excluded by filter", "class", cr.Name)
			continue
		}
		cls, err := classFromRecord(cr)
		if err != nil {
			return sum, err
		}
		if err := l.reg.Put(cls); err != nil {
			return sum, err
		}
		sum.Classes++
	}

	for _, groups := range []struct {
		kind    classmodel.AccessKind
		records []AccessRecord
	}{
		{classmodel.FieldAccess, dump.FieldAccesses},
		{classmodel.MethodCall, dump.MethodCalls},
		{classmodel.ConstructorCall, dump.ConstructorCalls},
	} {
		for _, ar := range groups.records {
			rec, err := accessFromRecord(groups.kind, ar)
			if err != nil {
				return sum, err
			}
			if !l.filter.Match(rec.Caller.DeclaringClass) {
				sum.SkippedRecords++
				continue
			}
			l.store.Register(rec)
			sum.Records++
		}
	}

	slog.Info("scan dump loaded",
		"classes", sum.Classes,
		"records", sum.Records,
		"skipped_classes", sum.SkippedClasses,
		"skipped_records", sum.SkippedRecords)
	return sum, nil
}

func classFromRecord(cr ClassRecord) (*classmodel.Class, error) {
	cls := classmodel.NewClass(cr.Name, cr.Superclass, cr.Interfaces, cr.Interface)
	for _, mr := range cr.Members {
		kind, err := memberKind(mr.Kind)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError,
				fmt.Sprintf("class %s member %s", cr.Name, mr.Name))
		}
		if err := validateMember(kind, mr); err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError,
				fmt.Sprintf("class %s member %s", cr.Name, mr.Name))
		}
		cls.AddMember(classmodel.NewMember(kind, mr.Name, mr.Descriptor, jvm.Modifiers(mr.Modifiers), mr.Annotations))
	}
	return cls, nil
}

func memberKind(s string) (classmodel.MemberKind, error) {
	switch s {
	case "field":
		return classmodel.FieldMember, nil
	case "method":
		return classmodel.MethodMember, nil
	case "constructor":
		return classmodel.ConstructorMember, nil
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}

func validateMember(kind classmodel.MemberKind, mr MemberRecord) error {
	switch kind {
	case classmodel.FieldMember:
		if jvm.IsMethodDescriptor(mr.Descriptor) {
			return fmt.Errorf("field carries method descriptor %q", mr.Descriptor)
		}
	case classmodel.MethodMember:
		if !jvm.IsMethodDescriptor(mr.Descriptor) {
			return fmt.Errorf("method carries field descriptor %q", mr.Descriptor)
		}
		if mr.Name == jvm.ConstructorName {
			return fmt.Errorf("constructor declared as method")
		}
	case classmodel.ConstructorMember:
		if mr.Name != jvm.ConstructorName {
			return fmt.Errorf("constructor named %q, want %q", mr.Name, jvm.ConstructorName)
		}
		if !jvm.IsMethodDescriptor(mr.Descriptor) {
			return fmt.Errorf("constructor carries field descriptor %q", mr.Descriptor)
		}
	}
	return nil
}

func accessFromRecord(kind classmodel.AccessKind, ar AccessRecord) (classmodel.RawAccess, error) {
	var zero classmodel.RawAccess
	if ar.Caller.Class == "" || ar.Caller.Name == "" {
		return zero, errors.New(errors.CodeValidationError, "access record without a caller")
	}
	if ar.Owner == "" || ar.Name == "" || ar.Descriptor == "" {
		return zero, errors.Newf(errors.CodeValidationError,
			"incomplete %s target in %s.%s", kind, ar.Caller.Class, ar.Caller.Name)
	}

	accessType := classmodel.AccessNone
	switch kind {
	case classmodel.FieldAccess:
		switch ar.AccessType {
		case "read":
			accessType = classmodel.AccessRead
		case "write":
			accessType = classmodel.AccessWrite
		default:
			return zero, errors.Newf(errors.CodeValidationError,
				"field access %s.%s has unknown access type %q", ar.Owner, ar.Name, ar.AccessType)
		}
		if jvm.IsMethodDescriptor(ar.Descriptor) {
			return zero, errors.Newf(errors.CodeValidationError,
				"field access %s.%s carries method descriptor %q", ar.Owner, ar.Name, ar.Descriptor)
		}
	case classmodel.MethodCall:
		if ar.Name == jvm.ConstructorName {
			return zero, errors.Newf(errors.CodeValidationError,
				"method call targets constructor of %s", ar.Owner)
		}
	case classmodel.ConstructorCall:
		if ar.Name != jvm.ConstructorName {
			return zero, errors.Newf(errors.CodeValidationError,
				"constructor call targets %q on %s, want %s", ar.Name, ar.Owner, jvm.ConstructorName)
		}
	}

	return classmodel.RawAccess{
		Caller: classmodel.CodeUnit{
			DeclaringClass: ar.Caller.Class,
			Name:           ar.Caller.Name,
			Descriptor:     ar.Caller.Descriptor,
		},
		Target: classmodel.TargetInfo{
			Owner:      ar.Owner,
			Name:       ar.Name,
			Descriptor: ar.Descriptor,
		},
		Line:       ar.Line,
		Kind:       kind,
		AccessType: accessType,
	}, nil
}
