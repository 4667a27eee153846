package model

// BillCategory is the canonical bill category vocabulary. The same enum is
// used at detection time and at settlement time so the reward-rate lookup
// can never disagree with the classifier.
type BillCategory string

// Bill category constants.
const (
	CategoryHousing       BillCategory = "Housing"
	CategoryUtilities     BillCategory = "Utilities"
	CategorySubscriptions BillCategory = "Subscriptions"
	CategoryInsurance     BillCategory = "Insurance"
	CategoryLoans         BillCategory = "Loans"
	CategoryEducation     BillCategory = "Education"
	CategoryShopping      BillCategory = "Shopping & Retail"
	CategoryHealth        BillCategory = "Health & Wellness"
	CategoryOther         BillCategory = "Other"
)

// AllCategories lists every category in the canonical vocabulary.
func AllCategories() []BillCategory {
	return []BillCategory{
		CategoryHousing,
		CategoryUtilities,
		CategorySubscriptions,
		CategoryInsurance,
		CategoryLoans,
		CategoryEducation,
		CategoryShopping,
		CategoryHealth,
		CategoryOther,
	}
}
