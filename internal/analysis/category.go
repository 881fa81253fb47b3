package analysis

import (
	"fmt"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// combinations of 6 out of 49 and 5 out of 50.
const (
	lottoOutcomes       = 13_983_816
	eurojackpotOutcomes = 2_118_760
)

// Category is one analyzed prize tier. A payout row belongs to the category
// when Width characters of its description starting at Offset equal Label.
type Category struct {
	Label       string
	Offset      int
	Width       int
	Probability float64
}

// Matches reports whether a payout description falls into the category.
// Matching is byte exact; the archive publishes ASCII class names.
func (c Category) Matches(description string) bool {
	end := c.Offset + c.Width
	if end > len(description) {
		return false
	}
	return description[c.Offset:end] == c.Label
}

func prefix(label string, probability float64) Category {
	return Category{Label: label, Offset: 0, Width: len(label), Probability: probability}
}

// Main prize tiers, each meaning "at least n correct". The order is the
// column order of unpopularity matrices and model outputs: 5, 4, 3 correct.
var (
	lottoMainCategories = []Category{
		prefix("5 Richtige", 259.0/lottoOutcomes),
		prefix("4 Richtige", 13_804.0/lottoOutcomes),
		prefix("3 Richtige", 260_624.0/lottoOutcomes),
	}

	eurojackpotMainCategories = []Category{
		prefix("5 Richtige", 1.0/eurojackpotOutcomes),
		prefix("4 Richtige", 226.0/eurojackpotOutcomes),
		prefix("3 Richtige", 10_126.0/eurojackpotOutcomes),
	}

	// Any class with at least two correct numbers and the right Superzahl,
	// e.g. "2 Richtige + SZ". The class name sits at offset 11.
	lottoBonusCategory = Category{
		Label:       "+ SZ",
		Offset:      11,
		Width:       4,
		Probability: 2_111_774.0 / lottoOutcomes / 10,
	}
)

// MainCategories returns the 5/4/3-correct tiers of a variant.
func MainCategories(v domain.Variant) ([]Category, error) {
	switch v.Name {
	case domain.VariantLotto:
		return append([]Category(nil), lottoMainCategories...), nil
	case domain.VariantEurojackpot:
		return append([]Category(nil), eurojackpotMainCategories...), nil
	default:
		return nil, fmt.Errorf("analysis: main categories: %w: %s", domain.ErrUnsupportedVariant, v.Name)
	}
}

// BonusCategory returns the tier used for bonus number analysis.
func BonusCategory(v domain.Variant) (Category, error) {
	if v.Name != domain.VariantLotto {
		return Category{}, fmt.Errorf("analysis: bonus category: %w: %s", domain.ErrUnsupportedVariant, v.Name)
	}
	return lottoBonusCategory, nil
}
