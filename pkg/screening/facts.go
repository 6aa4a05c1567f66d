package screening

import "sort"

// FactName identifies one structured fact collected about a caller.
type FactName string

const (
	FactCallerName       FactName = "caller_name"
	FactCallerPhone      FactName = "caller_phone"
	FactLocation         FactName = "location"
	FactCaseType         FactName = "case_type"
	FactConflict         FactName = "conflict_flag"
	FactDomesticViolence FactName = "domestic_violence_flag"
	FactIncome           FactName = "income"
	FactHouseholdSize    FactName = "household_size"
	FactReceivesBenefits FactName = "receives_benefits"
	FactAssets           FactName = "assets"
	FactCitizenship      FactName = "citizenship_status"
	FactEmergency        FactName = "emergency_flag"
)

// Kind is the value shape of a fact.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
)

// Confidence levels are ordered: a fact only satisfies a node's requirement
// when its confidence is at or above the machine's threshold.
type Confidence int

const (
	// ConfidenceContradicted marks a fact that received two disagreeing
	// certain extractions; it must be reconfirmed before it counts.
	ConfidenceContradicted Confidence = iota
	// ConfidenceLow marks an extraction the adapter was unsure about.
	ConfidenceLow
	// ConfidenceCertain marks a confident extraction.
	ConfidenceCertain
)

// String returns a human-readable confidence name.
func (c Confidence) String() string {
	switch c {
	case ConfidenceContradicted:
		return "CONTRADICTED"
	case ConfidenceLow:
		return "LOW"
	case ConfidenceCertain:
		return "CERTAIN"
	default:
		return "UNKNOWN"
	}
}

// Provenance records whether a fact value arrived on the current turn or was
// carried over from an earlier one.
type Provenance int

const (
	ProvenanceCarriedOver Provenance = iota
	ProvenanceThisTurn
)

// Value is one typed fact value with its confidence and provenance.
type Value struct {
	Name       FactName
	Kind       Kind
	Text       string
	Number     int
	Bool       bool
	Confidence Confidence
	Provenance Provenance
}

// TextFact builds a text-valued fact.
func TextFact(name FactName, text string, conf Confidence) Value {
	return Value{Name: name, Kind: KindText, Text: text, Confidence: conf, Provenance: ProvenanceThisTurn}
}

// NumberFact builds a number-valued fact.
func NumberFact(name FactName, n int, conf Confidence) Value {
	return Value{Name: name, Kind: KindNumber, Number: n, Confidence: conf, Provenance: ProvenanceThisTurn}
}

// BoolFact builds a boolean-valued fact.
func BoolFact(name FactName, b bool, conf Confidence) Value {
	return Value{Name: name, Kind: KindBool, Bool: b, Confidence: conf, Provenance: ProvenanceThisTurn}
}

func sameValue(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindText:
		return a.Text == b.Text
	case KindNumber:
		return a.Number == b.Number
	case KindBool:
		return a.Bool == b.Bool
	default:
		return false
	}
}

// Set is the accumulated fact knowledge for one session. It is owned by a
// single session and never shared.
type Set struct {
	values map[FactName]Value
}

// NewSet returns an empty fact set.
func NewSet() *Set {
	return &Set{values: make(map[FactName]Value)}
}

// Get returns the stored value for name.
func (s *Set) Get(name FactName) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether any value is stored for name, at any confidence.
func (s *Set) Has(name FactName) bool {
	_, ok := s.values[name]
	return ok
}

// AtLeast reports whether name is present with confidence >= min.
func (s *Set) AtLeast(name FactName, min Confidence) bool {
	v, ok := s.values[name]
	return ok && v.Confidence >= min
}

// Len returns the number of stored facts.
func (s *Set) Len() int {
	return len(s.values)
}

// Forget removes a stored fact so a fresh answer can replace it without
// counting as a contradiction. Used when the caller was explicitly asked to
// correct a value we already held.
func (s *Set) Forget(name FactName) {
	delete(s.values, name)
}

// Values returns the stored facts sorted by name.
func (s *Set) Values() []Value {
	out := make([]Value, 0, len(s.values))
	for _, v := range s.values {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	out := NewSet()
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

// Merge applies one turn's extracted values under the confidence-preservation
// rule: a certain fact is never silently replaced by a lower-confidence
// extraction, and two disagreeing certain extractions demote the fact to
// contradicted so the caller is asked to reconfirm. A certain value resolves
// an earlier contradiction. Merge returns the names that became contradicted
// during this call.
func (s *Set) Merge(updates []Value) (contradicted []FactName) {
	for name, v := range s.values {
		v.Provenance = ProvenanceCarriedOver
		s.values[name] = v
	}

	for _, in := range updates {
		in.Provenance = ProvenanceThisTurn
		old, exists := s.values[in.Name]
		if !exists {
			s.values[in.Name] = in
			continue
		}

		switch {
		case old.Confidence == ConfidenceCertain && in.Confidence < ConfidenceCertain:
			// Preserved: a certain fact needs a certain correction.
		case old.Confidence == ConfidenceCertain && in.Confidence == ConfidenceCertain && !sameValue(old, in):
			old.Confidence = ConfidenceContradicted
			old.Provenance = ProvenanceThisTurn
			s.values[in.Name] = old
			contradicted = append(contradicted, in.Name)
		default:
			// Covers: low replaced by anything, contradicted resolved by a
			// certain reconfirmation, and certain re-stated unchanged.
			if old.Confidence == ConfidenceContradicted && in.Confidence < ConfidenceCertain {
				// A contradiction can only be cleared by a certain value.
				continue
			}
			s.values[in.Name] = in
		}
	}
	return contradicted
}
