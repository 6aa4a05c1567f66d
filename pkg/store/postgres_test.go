package store

import (
	"encoding/json"
	"testing"

	"github.com/legalaid-go/screenline/pkg/screening"
)

func TestEncodeFacts(t *testing.T) {
	s := screening.NewSet()
	s.Merge([]screening.Value{
		screening.TextFact(screening.FactCallerName, "Ada Example", screening.ConfidenceCertain),
		screening.NumberFact(screening.FactIncome, 1200, screening.ConfidenceLow),
		screening.BoolFact(screening.FactEmergency, true, screening.ConfidenceCertain),
	})

	raw, err := encodeFacts(s)
	if err != nil {
		t.Fatalf("encodeFacts: %v", err)
	}

	var rows []factRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len=%d, want 3", len(rows))
	}
	// Values() sorts by name: caller_name, emergency_flag, income.
	if rows[0].Name != "caller_name" || rows[0].Kind != "text" || rows[0].Text != "Ada Example" {
		t.Fatalf("rows[0]=%+v", rows[0])
	}
	if rows[1].Name != "emergency_flag" || rows[1].Kind != "bool" || !rows[1].Bool {
		t.Fatalf("rows[1]=%+v", rows[1])
	}
	if rows[2].Name != "income" || rows[2].Number != 1200 || rows[2].Confidence != "LOW" {
		t.Fatalf("rows[2]=%+v", rows[2])
	}
}
