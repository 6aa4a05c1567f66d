// Package screening implements the fixed legal-aid screening decision tree:
// a pure transition function over a typed fact set, plus the eligibility
// rules (service area, case type, conflict, income, assets, citizenship)
// each branch applies. The package performs no I/O; the turn coordinator
// drives it with facts produced by the extractor.
package screening

// Eligibility holds the office's screening rules. All limits are whole
// dollars; income limits follow the federal poverty scale (see poverty.go).
type Eligibility struct {
	// ServiceAreas lists the counties and cities the office serves.
	ServiceAreas []string
	// CaseTypes lists the matter types the office handles.
	CaseTypes []string
	// PovertyBaseAnnual is the poverty guideline for a one-person household.
	PovertyBaseAnnual int
	// PovertyIncrementAnnual is the per-additional-person guideline increase.
	PovertyIncrementAnnual int
	// IncomeMultiplier scales the guideline into the office's income ceiling.
	IncomeMultiplier float64
	// AssetLimit is the maximum total asset value, unless benefits exempt it.
	AssetLimit int
	// MinConfidence is the confidence a fact needs before a node branches on
	// it; anything lower keeps the node waiting and triggers a reprompt.
	MinConfidence Confidence
}

// DefaultEligibility returns the rules the office runs with today.
func DefaultEligibility() Eligibility {
	return Eligibility{
		ServiceAreas: []string{
			"Henry County", "Patrick County", "Franklin County",
			"Pittsylvania County", "City of Martinsville", "City of Danville",
		},
		CaseTypes: []string{
			"housing", "family", "public_benefits", "consumer", "health_care", "expungement",
		},
		PovertyBaseAnnual:      15650,
		PovertyIncrementAnnual: 5500,
		IncomeMultiplier:       3.0,
		AssetLimit:             10000,
		MinConfidence:          ConfidenceCertain,
	}
}

// Machine evaluates the decision tree. It is stateless: every call to
// Transition depends only on its arguments, so a node/fact-set pair always
// produces the same result.
type Machine struct {
	elig Eligibility
}

// NewMachine returns a machine applying the given rules.
func NewMachine(elig Eligibility) *Machine {
	return &Machine{elig: elig}
}

// Result is the outcome of one transition evaluation.
type Result struct {
	// Next is the node to move to. Next == the input node means the node is
	// still waiting on facts and should reprompt.
	Next Node
	// Missing lists the facts that kept the node waiting.
	Missing []FactName
	// ReferralReason is set when Next is ExitReferral.
	ReferralReason string
	// Suggestion is a near-miss service area to offer back to the caller
	// ("did you mean Henry County?"). Only set while AskLocation waits.
	Suggestion string
}

// Transition evaluates node against facts and returns where the screening
// goes next. Terminal nodes return themselves. Facts below the confidence
// threshold count as missing.
func (m *Machine) Transition(node Node, facts *Set) Result {
	if node.Terminal() {
		return Result{Next: node}
	}

	missing := m.missingFacts(node, facts)
	if len(missing) > 0 {
		res := Result{Next: node, Missing: missing}
		if node == AskLocation {
			if v, ok := facts.Get(FactLocation); ok && v.Confidence >= m.elig.MinConfidence {
				// Location was heard but didn't match; it was demoted to
				// missing by the validity check below, so surface a near miss.
				if area, match := MatchServiceArea(v.Text, m.elig.ServiceAreas); match == AreaMatchClose {
					res.Suggestion = area
				}
			}
		}
		return res
	}

	switch node {
	case StartCollectIdentity:
		return Result{Next: AskLocation}

	case AskLocation:
		loc, _ := facts.Get(FactLocation)
		if _, match := MatchServiceArea(loc.Text, m.elig.ServiceAreas); match == AreaMatchExact {
			return Result{Next: AskCaseType}
		}
		return Result{Next: ExitReferral, ReferralReason: ReasonLocationIneligible}

	case AskCaseType:
		ct, _ := facts.Get(FactCaseType)
		for _, handled := range m.elig.CaseTypes {
			if ct.Text == handled {
				return Result{Next: CheckConflict}
			}
		}
		return Result{Next: ExitReferral, ReferralReason: ReasonCaseTypeIneligible}

	case CheckConflict:
		c, _ := facts.Get(FactConflict)
		if c.Bool {
			return Result{Next: ExitReferral, ReferralReason: ReasonConflictOfInterest}
		}
		return Result{Next: AskIncome}

	case AskIncome:
		income, _ := facts.Get(FactIncome)
		household := 1
		if h, ok := facts.Get(FactHouseholdSize); ok && h.Number > 0 {
			household = h.Number
		}
		if m.elig.IncomeQualifies(income.Number, household) {
			return Result{Next: AskAssets}
		}
		return Result{Next: ExitReferral, ReferralReason: ReasonIncomeOverLimit}

	case AskAssets:
		if b, ok := facts.Get(FactReceivesBenefits); ok && b.Bool && b.Confidence >= m.elig.MinConfidence {
			return Result{Next: AskCitizenship}
		}
		assets, _ := facts.Get(FactAssets)
		if assets.Number <= m.elig.AssetLimit {
			return Result{Next: AskCitizenship}
		}
		return Result{Next: ExitReferral, ReferralReason: ReasonAssetsOverLimit}

	case AskCitizenship:
		cit, _ := facts.Get(FactCitizenship)
		if cit.Bool {
			return Result{Next: AskEmergency}
		}
		return Result{Next: ExitReferral, ReferralReason: ReasonCitizenshipIneligible}

	case AskEmergency:
		// Emergency status is recorded for the interview queue; both answers
		// proceed.
		return Result{Next: ConductInterview}
	}

	return Result{Next: node}
}

// missingFacts returns the required facts that are absent, under-confident,
// or invalid for the node.
func (m *Machine) missingFacts(node Node, facts *Set) []FactName {
	var missing []FactName
	for _, name := range node.Required() {
		if name == FactAssets {
			if b, ok := facts.Get(FactReceivesBenefits); ok && b.Bool && b.Confidence >= m.elig.MinConfidence {
				continue
			}
		}
		v, ok := facts.Get(name)
		if !ok || v.Confidence < m.elig.MinConfidence {
			missing = append(missing, name)
			continue
		}
		if !m.validFact(node, name, v, facts) {
			missing = append(missing, name)
		}
	}
	return missing
}

// validFact applies per-node value checks beyond presence and confidence.
// An invalid value is treated exactly like a missing one so the coordinator
// reprompts rather than branching on garbage.
func (m *Machine) validFact(node Node, name FactName, v Value, facts *Set) bool {
	switch name {
	case FactCallerName:
		return ValidName(v.Text)
	case FactCallerPhone:
		_, ok := NormalizePhone(v.Text)
		return ok
	case FactLocation:
		_, match := MatchServiceArea(v.Text, m.elig.ServiceAreas)
		// A close match stays unresolved until the caller confirms; no match
		// at all is a real answer and flows to the referral branch.
		return match != AreaMatchClose
	case FactIncome:
		return v.Number >= 0
	case FactAssets:
		// Benefits receipt waives the asset question entirely.
		if b, ok := facts.Get(FactReceivesBenefits); ok && b.Bool && b.Confidence >= m.elig.MinConfidence {
			return true
		}
		return v.Number >= 0
	default:
		return true
	}
}
