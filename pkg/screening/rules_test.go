package screening

import "testing"

func TestMonthlyIncomeLimit(t *testing.T) {
	e := DefaultEligibility()

	cases := []struct {
		household int
		want      int
	}{
		// (15650 + (n-1)*5500) * 3.0, rounded, then /12 rounded.
		{1, 3913},
		{2, 5288},
		{4, 8038},
		{0, 3913}, // clamped to one person
	}
	for _, tc := range cases {
		if got := e.MonthlyIncomeLimit(tc.household); got != tc.want {
			t.Fatalf("household=%d: limit=%d, want %d", tc.household, got, tc.want)
		}
	}
}

func TestIncomeQualifiesBoundary(t *testing.T) {
	e := DefaultEligibility()
	limit := e.MonthlyIncomeLimit(3)
	if !e.IncomeQualifies(limit, 3) {
		t.Fatalf("income at the limit should qualify")
	}
	if e.IncomeQualifies(limit+1, 3) {
		t.Fatalf("income over the limit should not qualify")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"434-555-2368", "(434) 555-2368", true},
		{"(434) 555 2368", "(434) 555-2368", true},
		{"14345552368", "(434) 555-2368", true},
		{"4345552368", "(434) 555-2368", true},
		{"555-2368", "", false},
		{"043-555-2368", "", false}, // area code can't start with 0
		{"434-155-2368", "", false}, // exchange can't start with 1
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizePhone(%q)=(%q,%v), want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValidName(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"Ada Example", true},
		{"Ada", false},
		{"  ", false},
		{"Mary Jo Sample", true},
		{"4da Example", false},
	}
	for _, tc := range cases {
		if got := ValidName(tc.in); got != tc.ok {
			t.Fatalf("ValidName(%q)=%v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestMatchServiceArea(t *testing.T) {
	areas := DefaultEligibility().ServiceAreas

	cases := []struct {
		in    string
		area  string
		match AreaMatch
	}{
		{"Henry County", "Henry County", AreaMatchExact},
		{"henry", "Henry County", AreaMatchExact},
		{"City of Martinsville", "City of Martinsville", AreaMatchExact},
		{"martinsville", "City of Martinsville", AreaMatchExact},
		{"Hennry County", "Henry County", AreaMatchClose},
		{"patric", "Patrick County", AreaMatchClose},
		{"Memphis", "", AreaMatchNone},
		{"", "", AreaMatchNone},
	}
	for _, tc := range cases {
		area, match := MatchServiceArea(tc.in, areas)
		if match != tc.match || area != tc.area {
			t.Fatalf("MatchServiceArea(%q)=(%q,%v), want (%q,%v)", tc.in, area, match, tc.area, tc.match)
		}
	}
}
