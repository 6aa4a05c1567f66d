package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/legalaid-go/screenline/pkg/screening"
)

const systemPrompt = `You extract structured intake facts from one utterance by a caller to a legal aid phone line. Reply with JSON only, no prose, in this shape:

{"facts":[{"name":"<fact name>","text":"...","number":0,"bool":false,"confidence":"certain|low"}]}

Fact names and types:
  caller_name (text)            full name of the caller
  caller_phone (text)           callback phone number
  location (text)               county or city of residence
  case_type (text)              one of: housing, family, public_benefits, consumer, health_care, expungement, other
  conflict_flag (bool)          true if an opposing party was named
  domestic_violence_flag (bool) true if the caller mentions domestic violence
  income (number)               total monthly household income in dollars
  household_size (number)       people in the household
  receives_benefits (bool)      true if the caller receives Medicaid, SSI, or TANF
  assets (number)               total asset value in dollars
  citizenship_status (bool)     true if the caller is a citizen or lawfully present
  emergency_flag (bool)         true if a hearing, eviction, or shutoff is imminent

Only include each value field matching the fact's type. Only report facts the utterance actually states; mark a fact "low" when the wording is ambiguous. Never guess values. If the utterance states nothing extractable, reply {"facts":[]}.`

// buildPrompt renders the user message: current question context, known
// facts, and the utterance to extract from.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current question: %s\n", req.Node.Prompt())
	if len(req.Known) > 0 {
		names := make([]string, 0, len(req.Known))
		for n := range req.Known {
			names = append(names, string(n))
		}
		sort.Strings(names)
		b.WriteString("Already known:\n")
		for _, n := range names {
			fmt.Fprintf(&b, "  %s: %s\n", n, req.Known[screening.FactName(n)])
		}
	}
	fmt.Fprintf(&b, "Caller said: %q", req.Utterance)
	return b.String()
}

type wireFact struct {
	Name       string  `json:"name"`
	Text       *string `json:"text"`
	Number     *int    `json:"number"`
	Bool       *bool   `json:"bool"`
	Confidence string  `json:"confidence"`
}

type wireResponse struct {
	Facts []wireFact `json:"facts"`
}

var factKinds = map[screening.FactName]screening.Kind{
	screening.FactCallerName:       screening.KindText,
	screening.FactCallerPhone:      screening.KindText,
	screening.FactLocation:         screening.KindText,
	screening.FactCaseType:         screening.KindText,
	screening.FactConflict:         screening.KindBool,
	screening.FactDomesticViolence: screening.KindBool,
	screening.FactIncome:           screening.KindNumber,
	screening.FactHouseholdSize:    screening.KindNumber,
	screening.FactReceivesBenefits: screening.KindBool,
	screening.FactAssets:           screening.KindNumber,
	screening.FactCitizenship:      screening.KindBool,
	screening.FactEmergency:        screening.KindBool,
}

// parseResponse decodes model output into fact values. Unknown fact names
// and type mismatches are skipped rather than failing the turn; a malformed
// document is an error.
func parseResponse(raw string) ([]screening.Value, error) {
	trimmed := stripFences(raw)
	var resp wireResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	var out []screening.Value
	for _, f := range resp.Facts {
		name := screening.FactName(f.Name)
		kind, ok := factKinds[name]
		if !ok {
			continue
		}
		conf := screening.ConfidenceCertain
		if f.Confidence == "low" {
			conf = screening.ConfidenceLow
		}
		switch kind {
		case screening.KindText:
			if f.Text != nil {
				out = append(out, screening.TextFact(name, *f.Text, conf))
			}
		case screening.KindNumber:
			if f.Number != nil {
				out = append(out, screening.NumberFact(name, *f.Number, conf))
			}
		case screening.KindBool:
			if f.Bool != nil {
				out = append(out, screening.BoolFact(name, *f.Bool, conf))
			}
		}
	}
	return out, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one, which happens despite the instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
