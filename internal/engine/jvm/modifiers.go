package jvm

import "strings"

// Modifiers mirrors the access_flags bitmask of members and classes.
type Modifiers uint16

const (
	ModPublic    Modifiers = 0x0001
	ModPrivate   Modifiers = 0x0002
	ModProtected Modifiers = 0x0004
	ModStatic    Modifiers = 0x0008
	ModFinal     Modifiers = 0x0010
	ModVolatile  Modifiers = 0x0040
	ModTransient Modifiers = 0x0080
	ModNative    Modifiers = 0x0100
	ModInterface Modifiers = 0x0200
	ModAbstract  Modifiers = 0x0400
	ModSynthetic Modifiers = 0x1000
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

func (m Modifiers) IsPublic() bool   { return m.Has(ModPublic) }
func (m Modifiers) IsStatic() bool   { return m.Has(ModStatic) }
func (m Modifiers) IsFinal() bool    { return m.Has(ModFinal) }
func (m Modifiers) IsAbstract() bool { return m.Has(ModAbstract) }

func (m Modifiers) String() string {
	var parts []string
	for _, f := range []struct {
		flag Modifiers
		name string
	}{
		{ModPublic, "public"},
		{ModPrivate, "private"},
		{ModProtected, "protected"},
		{ModStatic, "static"},
		{ModFinal, "final"},
		{ModVolatile, "volatile"},
		{ModTransient, "transient"},
		{ModNative, "native"},
		{ModInterface, "interface"},
		{ModAbstract, "abstract"},
		{ModSynthetic, "synthetic"},
	} {
		if m.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " ")
}
