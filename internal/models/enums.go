package models

// Category is the vendor's merchandise category.
type Category string

const (
	CategoryFashion        Category = "fashion"
	CategoryElectronics    Category = "electronics"
	CategoryHomeGarden     Category = "home-garden"
	CategoryBeautyHealth   Category = "beauty-health"
	CategoryFoodBeverage   Category = "food-beverage"
	CategorySportsOutdoors Category = "sports-outdoors"
	CategoryToysGames      Category = "toys-games"
	CategoryBooksMedia     Category = "books-media"
	CategoryAutomotive     Category = "automotive"
	CategoryOther          Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryFashion:        "Fashion",
	CategoryElectronics:    "Electronics",
	CategoryHomeGarden:     "Home & Garden",
	CategoryBeautyHealth:   "Beauty & Health",
	CategoryFoodBeverage:   "Food & Beverage",
	CategorySportsOutdoors: "Sports & Outdoors",
	CategoryToysGames:      "Toys & Games",
	CategoryBooksMedia:     "Books & Media",
	CategoryAutomotive:     "Automotive",
	CategoryOther:          "Other",
}

// Label returns the display label used by free-text search.
func (c Category) Label() string { return categoryLabels[c] }

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// UseOfFunds is what the vendor intends to spend the capital on.
type UseOfFunds string

const (
	UseOfFundsInventory      UseOfFunds = "inventory"
	UseOfFundsMarketing      UseOfFunds = "marketing"
	UseOfFundsEquipment      UseOfFunds = "equipment"
	UseOfFundsExpansion      UseOfFunds = "expansion"
	UseOfFundsWorkingCapital UseOfFunds = "working-capital"
	UseOfFundsTechnology     UseOfFunds = "technology"
	UseOfFundsStaffing       UseOfFunds = "staffing"
	UseOfFundsOther          UseOfFunds = "other"
)

var useOfFundsLabels = map[UseOfFunds]string{
	UseOfFundsInventory:      "Inventory",
	UseOfFundsMarketing:      "Marketing",
	UseOfFundsEquipment:      "Equipment",
	UseOfFundsExpansion:      "Expansion",
	UseOfFundsWorkingCapital: "Working Capital",
	UseOfFundsTechnology:     "Technology",
	UseOfFundsStaffing:       "Staffing",
	UseOfFundsOther:          "Other",
}

// Label returns the display label used by free-text search.
func (u UseOfFunds) Label() string { return useOfFundsLabels[u] }

// Valid reports whether u is a known use of funds.
func (u UseOfFunds) Valid() bool {
	_, ok := useOfFundsLabels[u]
	return ok
}

// OpportunityStatus represents where an opportunity is in its funding lifecycle.
type OpportunityStatus string

const (
	StatusAvailable       OpportunityStatus = "available"
	StatusPartiallyFunded OpportunityStatus = "partially-funded"
	StatusFullyFunded     OpportunityStatus = "fully-funded"
	StatusExpired         OpportunityStatus = "expired"
)

// Valid reports whether s is a known status.
func (s OpportunityStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusPartiallyFunded, StatusFullyFunded, StatusExpired:
		return true
	}
	return false
}

// Open reports whether the opportunity still accepts funding in this status.
func (s OpportunityStatus) Open() bool {
	return s == StatusAvailable || s == StatusPartiallyFunded
}

// RiskLevel is the platform's risk assessment of a vendor.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels: low=1, medium=2, high=3. Unknown levels rank 0.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool { return r.Rank() > 0 }
