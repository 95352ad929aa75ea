// Package domain defines the fixed catalog of purchasable course offerings.
//
// The catalog is the cross product of the supported languages and the
// age-level codes. It is compile-time static: offerings are never added,
// removed, or re-priced at runtime, and every offering's product ID is
// unique and stable for the lifetime of the process.
package domain

import "strings"

// LevelCode identifies an age level of a course. The set is closed.
type LevelCode string

const (
	// LevelPreJunior is the course level for ages 3-6.
	LevelPreJunior LevelCode = "pre_junior"
	// LevelJunior is the course level for ages 7-12.
	LevelJunior LevelCode = "junior"
)

// Levels lists every level code, lowest first.
var Levels = []LevelCode{LevelPreJunior, LevelJunior}

// Languages lists every supported course language.
var Languages = []string{"Hindi", "Telugu", "Tamil"}

// Offering is one purchasable (language, level) course bundle.
type Offering struct {
	Language  string
	Level     LevelCode
	ProductID string
}

// Key returns the (language, level) identity of the offering.
func (o Offering) Key() Key {
	return Key{Language: o.Language, Level: o.Level}
}

// Key identifies an offering by its (language, level) pair.
type Key struct {
	Language string
	Level    LevelCode
}

// ProductIDFor derives the billing product ID for a (language, level)
// combination. The derivation is pure and deterministic: lowercased
// language joined with the level suffix. Calling it with a language or
// level outside the catalog sets is a caller contract violation; the
// function still returns the derived string rather than failing.
func ProductIDFor(language string, level LevelCode) string {
	return strings.ToLower(language) + "_" + string(level)
}

var offerings = buildOfferings()

func buildOfferings() []Offering {
	out := make([]Offering, 0, len(Languages)*len(Levels))
	for _, lang := range Languages {
		for _, lvl := range Levels {
			out = append(out, Offering{
				Language:  lang,
				Level:     lvl,
				ProductID: ProductIDFor(lang, lvl),
			})
		}
	}
	return out
}

// Offerings returns every offering in the catalog. The returned slice is
// a copy; callers may not mutate the catalog.
func Offerings() []Offering {
	out := make([]Offering, len(offerings))
	copy(out, offerings)
	return out
}

// OfferingByProductID resolves a billing product ID back to its offering.
func OfferingByProductID(productID string) (Offering, bool) {
	for _, o := range offerings {
		if o.ProductID == productID {
			return o, true
		}
	}
	return Offering{}, false
}

// OfferingFor resolves a (language, level) pair to its catalog offering.
func OfferingFor(language string, level LevelCode) (Offering, bool) {
	for _, o := range offerings {
		if o.Language == language && o.Level == level {
			return o, true
		}
	}
	return Offering{}, false
}
