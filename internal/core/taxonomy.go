package core

// Group names with special meaning to the allocator.
const (
	GroupIncome = "Income"
	GroupOther  = "Other"
)

type (
	Category struct {
		Name string `json:"name"`
	}

	CategoryGroup struct {
		Name       string     `json:"name"`
		Categories []Category `json:"categories"`
	}

	// Taxonomy maps every category to exactly one named group. Categories
	// missing from the taxonomy fall into the implicit Other group.
	Taxonomy []CategoryGroup
)

// GroupFor returns the group a category belongs to, or GroupOther when the
// taxonomy does not know the category.
func (t Taxonomy) GroupFor(category string) string {
	for _, g := range t {
		for _, c := range g.Categories {
			if c.Name == category {
				return g.Name
			}
		}
	}
	return GroupOther
}

// IsIncome reports whether a category counts toward income. Membership in
// the Income group decides; the literal category name "Income" is accepted
// for data recorded before the taxonomy existed.
func (t Taxonomy) IsIncome(category string) bool {
	for _, g := range t {
		for _, c := range g.Categories {
			if c.Name == category {
				return g.Name == GroupIncome
			}
		}
	}
	return category == GroupIncome
}

// Categories returns every category name in taxonomy order.
func (t Taxonomy) Categories() []string {
	var names []string
	for _, g := range t {
		for _, c := range g.Categories {
			names = append(names, c.Name)
		}
	}
	return names
}

// DefaultTaxonomy is the category-group layout seeded into a fresh
// database. Users extend it; the engine treats it as data apart from the
// Income group.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Name: GroupIncome, Categories: []Category{
			{Name: "Paychecks"}, {Name: "Interest"}, {Name: "Other Income"},
		}},
		{Name: "Housing", Categories: []Category{
			{Name: "Rent"}, {Name: "Mortgage"}, {Name: "Home Improvement"},
		}},
		{Name: "Utilities", Categories: []Category{
			{Name: "Gas & Electric"}, {Name: "Internet & Cable"}, {Name: "Phone"}, {Name: "Water"},
		}},
		{Name: "Food", Categories: []Category{
			{Name: "Groceries"}, {Name: "Dining Out"},
		}},
		{Name: "Transport", Categories: []Category{
			{Name: "Gas"}, {Name: "Auto Payment"}, {Name: "Public Transit"}, {Name: "Parking & Tolls"},
		}},
		{Name: "Shopping", Categories: []Category{
			{Name: "Shopping"}, {Name: "Clothing"}, {Name: "Electronics"},
		}},
		{Name: "Life & Entertainment", Categories: []Category{
			{Name: "Events & Amusement"}, {Name: "Travel & Vacation"}, {Name: "Hobbies"}, {Name: "Streaming & Subscriptions"},
		}},
		{Name: "Health", Categories: []Category{
			{Name: "Medical"}, {Name: "Fitness"}, {Name: "Pharmacy"},
		}},
		{Name: "Financial", Categories: []Category{
			{Name: "Insurance"}, {Name: "Loan Repayment"}, {Name: "Financial Fees"},
		}},
	}
}
