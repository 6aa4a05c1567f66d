package screening

import "testing"

func TestMergeNewFacts(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{
		TextFact(FactCallerName, "Ada Example", ConfidenceCertain),
		NumberFact(FactIncome, 1200, ConfidenceLow),
	})
	if s.Len() != 2 {
		t.Fatalf("len=%d, want 2", s.Len())
	}
	v, ok := s.Get(FactIncome)
	if !ok || v.Number != 1200 || v.Confidence != ConfidenceLow {
		t.Fatalf("income=%+v, want low-confidence 1200", v)
	}
}

func TestMergeCertainNotOverwrittenByLow(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{TextFact(FactLocation, "Henry County", ConfidenceCertain)})
	s.Merge([]Value{TextFact(FactLocation, "Memphis", ConfidenceLow)})

	v, _ := s.Get(FactLocation)
	if v.Text != "Henry County" || v.Confidence != ConfidenceCertain {
		t.Fatalf("location=%+v, want certain Henry County", v)
	}
}

func TestMergeLowUpgradedByCertain(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{NumberFact(FactIncome, 900, ConfidenceLow)})
	s.Merge([]Value{NumberFact(FactIncome, 950, ConfidenceCertain)})

	v, _ := s.Get(FactIncome)
	if v.Number != 950 || v.Confidence != ConfidenceCertain {
		t.Fatalf("income=%+v, want certain 950", v)
	}
}

func TestMergeContradiction(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{TextFact(FactCaseType, "housing", ConfidenceCertain)})
	contradicted := s.Merge([]Value{TextFact(FactCaseType, "family", ConfidenceCertain)})

	if len(contradicted) != 1 || contradicted[0] != FactCaseType {
		t.Fatalf("contradicted=%v, want [case_type]", contradicted)
	}
	v, _ := s.Get(FactCaseType)
	if v.Confidence != ConfidenceContradicted {
		t.Fatalf("confidence=%v, want CONTRADICTED", v.Confidence)
	}

	// Restating the same value is not a contradiction.
	s2 := NewSet()
	s2.Merge([]Value{TextFact(FactCaseType, "housing", ConfidenceCertain)})
	if got := s2.Merge([]Value{TextFact(FactCaseType, "housing", ConfidenceCertain)}); len(got) != 0 {
		t.Fatalf("contradicted=%v, want none", got)
	}
}

func TestMergeContradictionResolvedOnlyByCertain(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{BoolFact(FactConflict, false, ConfidenceCertain)})
	s.Merge([]Value{BoolFact(FactConflict, true, ConfidenceCertain)})

	s.Merge([]Value{BoolFact(FactConflict, true, ConfidenceLow)})
	if v, _ := s.Get(FactConflict); v.Confidence != ConfidenceContradicted {
		t.Fatalf("low extraction cleared a contradiction: %+v", v)
	}

	s.Merge([]Value{BoolFact(FactConflict, true, ConfidenceCertain)})
	v, _ := s.Get(FactConflict)
	if v.Confidence != ConfidenceCertain || !v.Bool {
		t.Fatalf("conflict=%+v, want certain true", v)
	}
}

func TestMergeProvenance(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{TextFact(FactCallerName, "Ada Example", ConfidenceCertain)})
	s.Merge([]Value{TextFact(FactLocation, "Henry County", ConfidenceCertain)})

	name, _ := s.Get(FactCallerName)
	loc, _ := s.Get(FactLocation)
	if name.Provenance != ProvenanceCarriedOver {
		t.Fatalf("name provenance=%v, want carried over", name.Provenance)
	}
	if loc.Provenance != ProvenanceThisTurn {
		t.Fatalf("location provenance=%v, want this turn", loc.Provenance)
	}
}

func TestCloneIsolation(t *testing.T) {
	s := NewSet()
	s.Merge([]Value{TextFact(FactCallerName, "Ada Example", ConfidenceCertain)})
	c := s.Clone()
	c.Merge([]Value{TextFact(FactCallerName, "Grace Sample", ConfidenceCertain)})

	v, _ := s.Get(FactCallerName)
	if v.Text != "Ada Example" {
		t.Fatalf("clone mutated original: %+v", v)
	}
}
