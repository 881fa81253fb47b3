package analysis

import (
	"fmt"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// Dataset is a feature matrix together with its row-aligned unpopularity.
type Dataset struct {
	Features     *FeatureMatrix
	Unpopularity *UnpopularityMatrix
}

// PrepareNumbers builds the main number dataset over the 5/4/3-correct
// categories.
func PrepareNumbers(draws []domain.Draw, v domain.Variant) (Dataset, error) {
	categories, err := MainCategories(v)
	if err != nil {
		return Dataset{}, err
	}
	features, err := BuildNumberFeatures(draws, v)
	if err != nil {
		return Dataset{}, err
	}
	unpop, err := ComputeUnpopularity(draws, v, categories)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Features: features, Unpopularity: unpop}, nil
}

// PrepareBonus builds the bonus number dataset. Only draws from the rule
// epoch on carry the bonus prize classes, and draws without a published
// bonus number are skipped.
func PrepareBonus(draws []domain.Draw, v domain.Variant) (Dataset, error) {
	category, err := BonusCategory(v)
	if err != nil {
		return Dataset{}, err
	}

	eligible := make([]domain.Draw, 0, len(draws))
	for _, d := range draws {
		if d.Date.Before(v.RuleEpoch) || len(d.Bonus) == 0 {
			continue
		}
		eligible = append(eligible, d)
	}

	features, err := BuildBonusFeatures(eligible, v)
	if err != nil {
		return Dataset{}, err
	}
	unpop, err := ComputeUnpopularity(eligible, v, []Category{category})
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Features: features, Unpopularity: unpop}, nil
}

// ComputeImpact runs the whole analysis for one number domain.
func ComputeImpact(draws []domain.Draw, v domain.Variant, kind domain.ImpactKind, normalize bool) ([]domain.Impact, error) {
	var (
		ds  Dataset
		err error
	)
	switch kind {
	case domain.ImpactNumbers:
		ds, err = PrepareNumbers(draws, v)
	case domain.ImpactBonus:
		ds, err = PrepareBonus(draws, v)
	default:
		return nil, fmt.Errorf("analysis: unknown impact kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	impacts, err := Aggregate(ds.Features, ds.Unpopularity)
	if err != nil {
		return nil, err
	}
	if !normalize {
		return impacts, nil
	}
	return Normalize(impacts)
}
