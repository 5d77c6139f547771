package domain

// Category is one of the fixed set of transaction categories.
type Category string

const (
	CategoryHousing        Category = "Housing"
	CategoryTransportation Category = "Transportation"
	CategoryFood           Category = "Food"
	CategoryUtilities      Category = "Utilities"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryEducation      Category = "Education"
	CategorySalary         Category = "Salary"
	CategoryOther          Category = "Other"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryHousing,
		CategoryTransportation,
		CategoryFood,
		CategoryUtilities,
		CategoryHealthcare,
		CategoryEntertainment,
		CategoryShopping,
		CategoryEducation,
		CategorySalary,
		CategoryOther,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
