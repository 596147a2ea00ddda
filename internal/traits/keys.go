// Package traits holds the fixed trait vocabulary and the validation that turns
// untrusted model output into bounded trait levels.
package traits

type Key string

const (
	Ruthlessness   Key = "ruthlessness"
	Fearlessness   Key = "fearlessness"
	Impulsivity    Key = "impulsivity"
	SelfConfidence Key = "selfConfidence"
	Focus          Key = "focus"
	Coolness       Key = "coolness"
	Toughness      Key = "toughness"
	Charm          Key = "charm"
	Charisma       Key = "charisma"
	ReducedEmpathy Key = "reducedEmpathy"
	LackConscience Key = "lackConscience"
)

const (
	MinLevel     = 0
	MaxLevel     = 10
	DefaultLevel = 5
)

var keys = [...]Key{
	Ruthlessness,
	Fearlessness,
	Impulsivity,
	SelfConfidence,
	Focus,
	Coolness,
	Toughness,
	Charm,
	Charisma,
	ReducedEmpathy,
	LackConscience,
}

// Keys returns the vocabulary in declaration order. The slice is a copy.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys[:])
	return out
}

func IsKey(s string) bool {
	for _, k := range keys {
		if string(k) == s {
			return true
		}
	}
	return false
}
