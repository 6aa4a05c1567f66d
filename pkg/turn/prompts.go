package turn

import (
	"fmt"
	"strings"

	"github.com/legalaid-go/screenline/pkg/screening"
)

// followUps are the targeted questions used when a node got a partial
// answer: instead of repeating the whole opening question, ask only for
// what is still missing.
var followUps = map[screening.FactName]string{
	screening.FactCallerName:  "Could I get your full name, first and last?",
	screening.FactCallerPhone: "What phone number can we reach you at, with the area code?",
	screening.FactLocation:    "Which county or city do you live in?",
	screening.FactCaseType:    "Can you tell me a bit more about the legal problem, for example housing, family, or benefits?",
	screening.FactConflict:    "Is there another person or company on the other side of this matter?",
	screening.FactIncome:      "About how much money does your household bring in each month, before taxes?",
	screening.FactAssets:      "Roughly what are your total savings and other assets worth?",
	screening.FactCitizenship: "Are you a U.S. citizen or otherwise lawfully in the country?",
	screening.FactEmergency:   "Is anything about this happening in the next few days, like a hearing or an eviction?",
}

// repromptText composes the question to re-ask a waiting node. A near-miss
// service area suggestion takes priority; otherwise missing facts get their
// targeted follow-ups.
func repromptText(node screening.Node, missing []screening.FactName, suggestion string) string {
	if suggestion != "" {
		return fmt.Sprintf("I may have misheard. Did you mean %s?", suggestion)
	}
	var qs []string
	for _, name := range missing {
		if q, ok := followUps[name]; ok {
			qs = append(qs, q)
		}
	}
	if len(qs) == 0 {
		return node.Prompt()
	}
	return strings.Join(qs, " ")
}

// reconfirmText asks the caller to settle a contradicted fact.
func reconfirmText(name screening.FactName) string {
	q, ok := followUps[name]
	if !ok {
		q = "Could you repeat that for me?"
	}
	return "I want to make sure I have this right. " + q
}

// silenceText repeats a node's question after a silence timeout.
func silenceText(node screening.Node) string {
	return "I'm sorry, I didn't catch that. " + node.Prompt()
}

// closingText is the final system line for a terminal node.
func closingText(node screening.Node) string {
	if node == screening.ExitReferral {
		return node.Prompt() + " You might try " + strings.Join(screening.AlternativeProviders, " or ") + "."
	}
	return node.Prompt()
}

// goodbyeText ends a call the screening could not finish.
func goodbyeText() string {
	return "I'm having trouble hearing you, so I'll let you go for now. Please call us back when you can. Goodbye."
}
