package plan

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tier is a subscription tier.
type Tier string

const (
	Basic        Tier = "basic"
	Professional Tier = "professional"
	Clinical     Tier = "clinical"
)

// Unlimited is the DailyAnalyses value of tiers without a daily cap.
const Unlimited = -1

var tiers = []Tier{Basic, Professional, Clinical}

// Tiers returns all known tiers from lowest to highest.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}

// Parse normalises a stored plan name into a Tier. The name is case folded,
// trimmed and stripped of a trailing "plan" word; the result must equal a
// tier name exactly. Anything else resolves to Basic.
func Parse(name string) Tier {
	t, ok := Lookup(name)
	if !ok {
		return Basic
	}
	return t
}

// Lookup is Parse that reports whether name matched a tier.
func Lookup(name string) (Tier, bool) {
	n := strings.TrimSpace(cases.Fold().String(name))
	if stripped, ok := strings.CutSuffix(n, " plan"); ok {
		n = strings.TrimSpace(stripped)
	}
	for _, t := range tiers {
		if n == string(t) {
			return t, true
		}
	}
	return "", false
}

func (t Tier) String() string {
	return string(t)
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	for _, known := range tiers {
		if t == known {
			return true
		}
	}
	return false
}

// Capabilities returns the limits of t from the built-in catalog.
// Unknown tiers get Basic's capabilities.
func (t Tier) Capabilities() Capabilities {
	return Default().Plan(t).Capabilities
}

// Unlimited reports whether t has no daily analysis cap.
func (t Tier) Unlimited() bool {
	return t.Capabilities().DailyAnalyses == Unlimited
}
