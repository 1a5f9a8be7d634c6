package equity

import "fmt"

// Category classifies a stake for reporting. It never affects dilution math.
type Category string

const (
	Founder  Category = "founder"
	Team     Category = "team"
	Investor Category = "investor"
)

// Categories lists every category in reporting order.
var Categories = []Category{Founder, Team, Investor}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Founder, Team, Investor:
		return true
	default:
		return false
	}
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("equity: unknown category %q", s)
	}
	return c, nil
}
