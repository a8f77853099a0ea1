package statemachine

import (
	"fmt"
	"strings"
)

// Phase is a set of lifecycle moments at which callbacks may be dispatched.
// A single named phase is a set with one member; phases combine with With.
type Phase uint8

const (
	PhaseEnter Phase = 1 << iota
	PhaseUpdate
	PhaseFixedUpdate
	PhaseExit
)

const (
	PhaseNone Phase = 0
	PhaseAll  Phase = PhaseEnter | PhaseUpdate | PhaseFixedUpdate | PhaseExit
)

var phaseNames = []struct {
	phase Phase
	name  string
}{
	{PhaseEnter, "enter"},
	{PhaseUpdate, "update"},
	{PhaseFixedUpdate, "fixed_update"},
	{PhaseExit, "exit"},
}

// Has reports whether every phase in q is also in p. The empty set is never contained.
func (p Phase) Has(q Phase) bool {
	return q != PhaseNone && p&q == q
}

// With returns the union of p and q.
func (p Phase) With(q Phase) Phase {
	return p | q
}

// Without returns p with every phase of q removed.
func (p Phase) Without(q Phase) Phase {
	return p &^ q
}

// Phases splits p into its single-phase members in dispatch order.
func (p Phase) Phases() []Phase {
	out := make([]Phase, 0, len(phaseNames))
	for _, pn := range phaseNames {
		if p.Has(pn.phase) {
			out = append(out, pn.phase)
		}
	}
	return out
}

func (p Phase) String() string {
	if p == PhaseNone {
		return "none"
	}
	names := make([]string, 0, len(phaseNames))
	for _, pn := range phaseNames {
		if p.Has(pn.phase) {
			names = append(names, pn.name)
		}
	}
	if rest := p.Without(PhaseAll); rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(names, "|")
}

// MarshalText encodes p the same way String does.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase set written as names separated by '|', ',' or spaces.
// It lets Phase be used directly in env-tagged config structs.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase parses names such as "enter|exit", "update, fixed_update", "all" or "none".
// Names are case-insensitive; "fixedupdate" and "fixed-update" are accepted too.
func ParsePhase(s string) (Phase, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	})

	var p Phase
	for _, f := range fields {
		name := strings.ReplaceAll(strings.ToLower(f), "-", "_")
		switch name {
		case "none":
			continue
		case "all":
			p = p.With(PhaseAll)
			continue
		case "fixedupdate":
			name = "fixed_update"
		}

		found := false
		for _, pn := range phaseNames {
			if pn.name == name {
				p = p.With(pn.phase)
				found = true
				break
			}
		}
		if !found {
			return PhaseNone, fmt.Errorf("%w: %q", ErrInvalidPhase, f)
		}
	}
	return p, nil
}

// ParsePhases parses each name with ParsePhase and returns their union.
func ParsePhases(names ...string) (Phase, error) {
	var p Phase
	for _, n := range names {
		q, err := ParsePhase(n)
		if err != nil {
			return PhaseNone, err
		}
		p = p.With(q)
	}
	return p, nil
}
