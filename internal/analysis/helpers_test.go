package analysis

import (
	"database/sql"
	"time"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stake(v int64) sql.Null[int64] { return sql.Null[int64]{V: v, Valid: true} }

func payout(desc string, winners int64) domain.PayoutRow {
	return domain.PayoutRow{Description: desc, Winners: winners, Amount: 10}
}

// lottoDraw builds a draw with the 5/4/3-correct classes of the current
// prize table.
func lottoDraw(date string, stakeAmount int64, numbers []int, w5, w4, w3 int64) domain.Draw {
	return domain.Draw{
		Variant: domain.VariantLotto,
		Date:    day(date),
		Stake:   stake(stakeAmount),
		Numbers: numbers,
		Payouts: []domain.PayoutRow{
			payout("5 Richtige + SZ", 0),
			payout("5 Richtige", w5),
			payout("4 Richtige + SZ", 0),
			payout("4 Richtige", w4),
			payout("3 Richtige + SZ", 0),
			payout("3 Richtige", w3),
			payout("2 Richtige + SZ", 1000),
		},
	}
}
