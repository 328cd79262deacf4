// Package jvm handles the raw signature plumbing of compiled class files:
// field and method descriptors, binary type names, and access flags.
// Descriptors arrive exactly as recorded in the constant pool, e.g. "()I"
// or "(JLjava/lang/String;)[B", and are parsed into source-form type names.
package jvm

import (
	"fmt"
	"strings"
)

// ConstructorName is the code-unit name the class file format assigns to
// every constructor.
const ConstructorName = "<init>"

// StaticInitializerName is the code-unit name of a static initializer block.
const StaticInitializerName = "<clinit>"

var primitiveTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// ParseFieldType converts a single field descriptor into a source-form type
// name ("I" -> "int", "Ljava/lang/String;" -> "java.lang.String",
// "[[I" -> "int[][]").
func ParseFieldType(desc string) (string, error) {
	name, rest, err := parseType(desc)
	if err != nil {
		return "", err
	}
	if rest != "" {
		return "", fmt.Errorf("trailing characters %q in field descriptor %q", rest, desc)
	}
	return name, nil
}

// ParseMethodDescriptor splits a method descriptor into its parameter type
// names and return type name.
func ParseMethodDescriptor(desc string) (params []string, ret string, err error) {
	if len(desc) < 3 || desc[0] != '(' {
		return nil, "", fmt.Errorf("malformed method descriptor %q", desc)
	}
	rest := desc[1:]
	for len(rest) > 0 && rest[0] != ')' {
		var name string
		name, rest, err = parseType(rest)
		if err != nil {
			return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		params = append(params, name)
	}
	if len(rest) == 0 || rest[0] != ')' {
		return nil, "", fmt.Errorf("unterminated parameter list in method descriptor %q", desc)
	}
	ret, rest, err = parseType(rest[1:])
	if err != nil {
		return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
	}
	if rest != "" {
		return nil, "", fmt.Errorf("trailing characters %q in method descriptor %q", rest, desc)
	}
	return params, ret, nil
}

// IsMethodDescriptor reports whether desc looks like a method descriptor
// rather than a field descriptor.
func IsMethodDescriptor(desc string) bool {
	return strings.HasPrefix(desc, "(")
}

func parseType(desc string) (name, rest string, err error) {
	if desc == "" {
		return "", "", fmt.Errorf("empty type descriptor")
	}
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	if dims == len(desc) {
		return "", "", fmt.Errorf("array descriptor %q without element type", desc)
	}
	tag := desc[dims]
	switch {
	case tag == 'L':
		end := strings.IndexByte(desc[dims:], ';')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated object type in %q", desc)
		}
		name = SourceName(desc[dims+1 : dims+end])
		rest = desc[dims+end+1:]
	default:
		prim, ok := primitiveTypes[tag]
		if !ok {
			return "", "", fmt.Errorf("unknown type tag %q in %q", tag, desc)
		}
		name = prim
		rest = desc[dims+1:]
	}
	return name + strings.Repeat("[]", dims), rest, nil
}

// SourceName converts a binary type name ("java/lang/String") into its
// source form ("java.lang.String"). Dotted names pass through unchanged.
func SourceName(binary string) string {
	return strings.ReplaceAll(binary, "/", ".")
}
