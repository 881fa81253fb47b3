package domain

import (
	"database/sql"
	"time"
)

// Draw is one historical lottery result together with its prize table.
type Draw struct {
	ID      int64           `json:"id"`
	Variant string          `json:"variant"`
	Date    time.Time       `json:"date"`
	Stake   sql.Null[int64] `json:"stake"`
	Numbers []int           `json:"numbers"`
	// Bonus holds the Superzahl for Lotto and the euro numbers for
	// Eurojackpot. It is empty when the archive did not publish one.
	Bonus []int `json:"bonus,omitempty"`
	// Extra is the Lotto Zusatzzahl, drawn until the 2013 rule change.
	Extra   sql.Null[int64] `json:"extra"`
	Payouts []PayoutRow     `json:"payouts,omitempty"`
}

// PayoutRow is one prize class of a draw.
type PayoutRow struct {
	DrawID      int64   `json:"draw_id"`
	Description string  `json:"description"`
	Winners     int64   `json:"winners"`
	Amount      float64 `json:"amount"`
}

// Impact is the relative unpopularity effect of one number value.
type Impact struct {
	Value int     `json:"value"`
	Score float64 `json:"score"`
	// Observed is false when the value never appeared in a draw with a
	// valid unpopularity, so no ratio could be formed.
	Observed bool `json:"observed"`
}

// ImpactKind selects which number domain an impact analysis covers.
type ImpactKind string

const (
	ImpactNumbers ImpactKind = "numbers"
	ImpactBonus   ImpactKind = "bonus"
)

// Recommendation is the best combination found for one prize category.
type Recommendation struct {
	Category string  `json:"category"`
	Numbers  []int   `json:"numbers"`
	Score    float64 `json:"score"`
}

// PickResult bundles the per-category winners of a combination search.
type PickResult struct {
	Best3 Recommendation `json:"best3"`
	Best4 Recommendation `json:"best4"`
	Best5 Recommendation `json:"best5"`
}
