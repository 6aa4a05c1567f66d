package screening

import "math"

// AnnualIncomeLimit is the office's annual income ceiling for a household:
// the federal poverty guideline for the household size, scaled by the
// configured multiplier and rounded to whole dollars.
func (e Eligibility) AnnualIncomeLimit(householdSize int) int {
	if householdSize < 1 {
		householdSize = 1
	}
	guideline := e.PovertyBaseAnnual + (householdSize-1)*e.PovertyIncrementAnnual
	return int(math.Round(float64(guideline) * e.IncomeMultiplier))
}

// MonthlyIncomeLimit is the annual ceiling divided into months, rounded.
func (e Eligibility) MonthlyIncomeLimit(householdSize int) int {
	return int(math.Round(float64(e.AnnualIncomeLimit(householdSize)) / 12))
}

// IncomeQualifies reports whether a household's monthly income is at or
// under the ceiling for its size.
func (e Eligibility) IncomeQualifies(monthlyIncome, householdSize int) bool {
	return monthlyIncome <= e.MonthlyIncomeLimit(householdSize)
}
