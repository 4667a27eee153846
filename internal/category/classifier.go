// Package category classifies bill text into the canonical category
// vocabulary and owns the reward-rate configuration keyed by it.
package category

import (
	"regexp"

	"github.com/billwise/billwise/internal/model"
)

// rule pairs a pattern with the category it maps to. Rules are evaluated
// in order and the first match wins, so more specific vocabularies must
// come before catch-alls (e.g. "school" reaches Education before Other).
type rule struct {
	pattern  *regexp.Regexp
	category model.BillCategory
}

var rules = []rule{
	{regexp.MustCompile(`(?i)rent|mortgage|landlord|lease|hoa`), model.CategoryHousing},
	{regexp.MustCompile(`(?i)electric|water|gas|power|energy|utilit|internet|broadband|sewer|trash|telecom|wireless`), model.CategoryUtilities},
	{regexp.MustCompile(`(?i)netflix|spotify|hulu|disney|subscription|streaming|prime|membership`), model.CategorySubscriptions},
	{regexp.MustCompile(`(?i)insurance|premium|geico|allstate|progressive`), model.CategoryInsurance},
	{regexp.MustCompile(`(?i)loan|credit card|mortgage payment|repayment|lending|emi`), model.CategoryLoans},
	{regexp.MustCompile(`(?i)school|college|tuition|university|course|education|academy`), model.CategoryEducation},
	{regexp.MustCompile(`(?i)amazon|walmart|target|shopping|retail|store|outlet`), model.CategoryShopping},
	{regexp.MustCompile(`(?i)gym|fitness|health|pharmacy|wellness|clinic|dental`), model.CategoryHealth},
}

// Classify maps free text (typically merchant plus description) to a bill
// category, defaulting to Other when nothing matches.
func Classify(text string) model.BillCategory {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.category
		}
	}
	return model.CategoryOther
}
