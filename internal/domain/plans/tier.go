package plans

import "strings"

// Plan type constants (single source of truth)
const (
	TypeBasic        = "basic"
	TypeIntermediate = "intermediate"
	TypePremium      = "premium"
)

// PlanType returns the normalized type of a plan. Unknown values fall back to
// basic, the lowest tier.
func PlanType(p *Plan) string {
	if p == nil {
		return TypeBasic
	}
	switch t := strings.ToLower(strings.TrimSpace(p.Type)); t {
	case TypeBasic, TypeIntermediate, TypePremium:
		return t
	default:
		return TypeBasic
	}
}

// Content is the display copy for a plan.
type Content struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// DefaultContent is the last step of the content fallback chain. Features stay
// empty; only title and description are synthesized.
func DefaultContent(p *Plan) Content {
	c := Content{Features: []string{}}
	switch PlanType(p) {
	case TypePremium:
		c.Title = "Premium"
		c.Description = "Unlimited readings and the complete astrology profile."
	case TypeIntermediate:
		c.Title = "Intermediate"
		c.Description = "More daily readings and extended astrology insights."
	default:
		c.Title = "Basic"
		c.Description = "Daily tarot readings and your sun sign profile."
	}
	return c
}

// ContentFrom converts a stored content row. Features are never nil.
func ContentFrom(row *RegionalPlanContent) Content {
	features := make([]string, 0, len(row.Features))
	features = append(features, row.Features...)
	return Content{
		Title:       row.Title,
		Description: row.Description,
		Features:    features,
	}
}

// TierRank orders plans from the lowest tier up.
func TierRank(p *Plan) int {
	switch PlanType(p) {
	case TypePremium:
		return 2
	case TypeIntermediate:
		return 1
	default:
		return 0
	}
}
