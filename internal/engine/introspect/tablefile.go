package introspect

import (
	"encoding/json"
	"fmt"
	"os"
)

type classRecord struct {
	Name       string         `json:"name"`
	Superclass string         `json:"superclass,omitempty"`
	Interfaces []string       `json:"interfaces,omitempty"`
	Interface  bool           `json:"interface,omitempty"`
	Members    []memberRecord `json:"members,omitempty"`
}

type memberRecord struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Descriptor  string   `json:"descriptor"`
	Modifiers   uint16   `json:"modifiers"`
	Annotations []string `json:"annotations,omitempty"`
}

// LoadTableFile builds a Table from a classpath index file: a JSON list of
// the classes the host could load at runtime, with their structural
// signatures. It stands in for a live classloader in batch runs.
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open classpath index %q: %w", path, err)
	}

	var doc struct {
		Classes []classRecord `json:"classes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed classpath index %q: %w", path, err)
	}

	table := NewTable()
	for _, cr := range doc.Classes {
		if cr.Name == "" {
			return nil, fmt.Errorf("classpath index %q: class record without a name", path)
		}
		info := &ClassInfo{
			Name:           cr.Name,
			SuperclassName: cr.Superclass,
			InterfaceNames: cr.Interfaces,
			Interface:      cr.Interface,
		}
		for _, mr := range cr.Members {
			kind, err := parseMemberKind(mr.Kind)
			if err != nil {
				return nil, fmt.Errorf("classpath index %q: class %s: %w", path, cr.Name, err)
			}
			info.Members = append(info.Members, MemberInfo{
				Kind:        kind,
				Name:        mr.Name,
				Descriptor:  mr.Descriptor,
				Modifiers:   mr.Modifiers,
				Annotations: mr.Annotations,
			})
		}
		table.Add(info)
	}
	return table, nil
}

func parseMemberKind(s string) (MemberKind, error) {
	switch s {
	case "field":
		return KindField, nil
	case "method":
		return KindMethod, nil
	case "constructor":
		return KindConstructor, nil
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}
