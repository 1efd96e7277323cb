package documents

import "time"

// Category is the closed classification set for vault documents.
type Category string

const (
	CategoryMedical   Category = "Medical"
	CategoryLegal     Category = "Legal"
	CategoryAcademic  Category = "Academic"
	CategoryFinancial Category = "Financial"
	CategoryPersonal  Category = "Personal"
	CategoryOther     Category = "Other"
)

// Categories returns all valid categories in display order.
func Categories() []Category {
	return []Category{
		CategoryMedical,
		CategoryLegal,
		CategoryAcademic,
		CategoryFinancial,
		CategoryPersonal,
		CategoryOther,
	}
}

// ValidCategory reports whether raw is one of the six known categories.
// Matching is exact; anything else must be rejected, never coerced.
func ValidCategory(raw string) bool {
	switch Category(raw) {
	case CategoryMedical, CategoryLegal, CategoryAcademic, CategoryFinancial, CategoryPersonal, CategoryOther:
		return true
	default:
		return false
	}
}

// Document is a user-owned named text blob with a category label.
// Documents are created and deleted, never updated; UserID is immutable.
type Document struct {
	ID        string
	UserID    string
	Name      string
	Category  Category
	Content   string
	Size      string
	FileKey   string
	CreatedAt time.Time
}
