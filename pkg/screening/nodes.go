package screening

// Node is one step of the fixed screening decision tree. The tree order is
// identity, location, case type, conflict, income, assets, citizenship,
// emergency, and then one of the two terminals.
type Node int

const (
	StartCollectIdentity Node = iota
	AskLocation
	AskCaseType
	CheckConflict
	AskIncome
	AskAssets
	AskCitizenship
	AskEmergency
	ConductInterview
	ExitReferral
)

// String returns the node name for logs and persistence.
func (n Node) String() string {
	switch n {
	case StartCollectIdentity:
		return "COLLECT_IDENTITY"
	case AskLocation:
		return "ASK_LOCATION"
	case AskCaseType:
		return "ASK_CASE_TYPE"
	case CheckConflict:
		return "CHECK_CONFLICT"
	case AskIncome:
		return "ASK_INCOME"
	case AskAssets:
		return "ASK_ASSETS"
	case AskCitizenship:
		return "ASK_CITIZENSHIP"
	case AskEmergency:
		return "ASK_EMERGENCY"
	case ConductInterview:
		return "CONDUCT_INTERVIEW"
	case ExitReferral:
		return "EXIT_REFERRAL"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the node ends the screening.
func (n Node) Terminal() bool {
	return n == ConductInterview || n == ExitReferral
}

// Required lists the facts a node needs before it can branch. Facts that are
// recorded but never branched on (domestic violence, household size) are not
// listed; they are accepted whenever the extractor produces them.
func (n Node) Required() []FactName {
	switch n {
	case StartCollectIdentity:
		return []FactName{FactCallerName, FactCallerPhone}
	case AskLocation:
		return []FactName{FactLocation}
	case AskCaseType:
		return []FactName{FactCaseType}
	case CheckConflict:
		return []FactName{FactConflict}
	case AskIncome:
		return []FactName{FactIncome}
	case AskAssets:
		return []FactName{FactAssets}
	case AskCitizenship:
		return []FactName{FactCitizenship}
	case AskEmergency:
		return []FactName{FactEmergency}
	default:
		return nil
	}
}

// Prompt is the opening question for a node. Reprompts for partial answers
// are composed by the turn coordinator from the missing fact names.
func (n Node) Prompt() string {
	switch n {
	case StartCollectIdentity:
		return "Thank you for calling the legal aid helpline. Can I get your full name and a phone number where we can reach you?"
	case AskLocation:
		return "What county or city do you live in?"
	case AskCaseType:
		return "What kind of legal problem are you calling about today?"
	case CheckConflict:
		return "Is there another person involved in this matter, such as a landlord, employer, or opposing party? If so, what is their name?"
	case AskIncome:
		return "To check whether you qualify, what is your household's total monthly income before taxes, and how many people live in your household?"
	case AskAssets:
		return "Do you receive Medicaid, SSI, or TANF benefits? If not, what is the rough total value of your savings and other assets?"
	case AskCitizenship:
		return "Are you a U.S. citizen or otherwise lawfully present in the United States?"
	case AskEmergency:
		return "Is this an emergency, for example a hearing, eviction, or shutoff happening within the next few days?"
	case ConductInterview:
		return "Good news: based on what you've told me, you appear to qualify for our services. Let me connect you with an intake specialist."
	case ExitReferral:
		return "I'm sorry, we aren't able to take this matter. I'll give you some other organizations that may be able to help."
	default:
		return ""
	}
}

// Referral reasons recorded on an ExitReferral outcome.
const (
	ReasonLocationIneligible    = "location_ineligible"
	ReasonCaseTypeIneligible    = "case_type_ineligible"
	ReasonConflictOfInterest    = "conflict_of_interest"
	ReasonIncomeOverLimit       = "income_over_limit"
	ReasonAssetsOverLimit       = "assets_over_limit"
	ReasonCitizenshipIneligible = "citizenship_ineligible"
)

// AlternativeProviders are suggested to callers the office must turn away.
var AlternativeProviders = []string{"Center for Legal Help", "Local Legal Help"}
