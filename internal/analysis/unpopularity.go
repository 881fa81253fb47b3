package analysis

import (
	"database/sql"
	"fmt"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// UnpopularityMatrix holds one value per draw and category, row-aligned with
// the FeatureMatrix built from the same draws. A cell is invalid when the
// category had no winners or no payout row in that draw.
type UnpopularityMatrix struct {
	Categories []string
	Values     [][]sql.Null[float64]
}

// Rows returns the number of draws.
func (u *UnpopularityMatrix) Rows() int { return len(u.Values) }

// Column returns the values of category j for every draw.
func (u *UnpopularityMatrix) Column(j int) []sql.Null[float64] {
	col := make([]sql.Null[float64], len(u.Values))
	for i, row := range u.Values {
		col[i] = row[j]
	}
	return col
}

// Unpopularity is expected winners over observed winners, where the
// expected count is probability times the number of bets the stake paid
// for. It is undefined for zero observed winners.
func Unpopularity(stake int64, costPerBet, probability float64, winners int64) sql.Null[float64] {
	if winners <= 0 || costPerBet <= 0 {
		return sql.Null[float64]{}
	}
	impliedBets := float64(stake) / costPerBet
	expected := probability * impliedBets
	return sql.Null[float64]{V: expected / float64(winners), Valid: true}
}

// ComputeUnpopularity evaluates every category for every draw. Draws before
// the variant's rule epoch use the old bet price, which corrects the implied
// bet count. A category that matches no payout row in any draw is reported
// as domain.ErrCategoryNotFound rather than an all-missing column.
func ComputeUnpopularity(draws []domain.Draw, v domain.Variant, categories []Category) (*UnpopularityMatrix, error) {
	um := &UnpopularityMatrix{
		Categories: make([]string, len(categories)),
		Values:     make([][]sql.Null[float64], len(draws)),
	}
	for j, c := range categories {
		um.Categories[j] = c.Label
	}

	matchedRows := make([]int, len(categories))
	for i, d := range draws {
		if !d.Stake.Valid || d.Stake.V <= 0 {
			return nil, fmt.Errorf("analysis: unpopularity: %w: draw %s", domain.ErrInvalidStake, d.Date.Format(dateLayout))
		}
		cost := v.CostPerBet(d.Date)

		row := make([]sql.Null[float64], len(categories))
		for j, c := range categories {
			var winners int64
			matched := false
			for _, p := range d.Payouts {
				if c.Matches(p.Description) {
					winners += p.Winners
					matched = true
				}
			}
			if !matched {
				continue
			}
			matchedRows[j]++
			row[j] = Unpopularity(d.Stake.V, cost, c.Probability, winners)
		}
		um.Values[i] = row
	}

	if len(draws) > 0 {
		for j, n := range matchedRows {
			if n == 0 {
				return nil, fmt.Errorf("analysis: unpopularity: %w: %q", domain.ErrCategoryNotFound, categories[j].Label)
			}
		}
	}
	return um, nil
}
