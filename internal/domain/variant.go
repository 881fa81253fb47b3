package domain

import (
	"fmt"
	"strings"
	"time"
)

// Variant describes the rules of one lottery game. Numbers are drawn from
// [MainMin, MainMax], bonus numbers from [BonusMin, BonusMax].
type Variant struct {
	Name       string
	MainCount  int
	MainMin    int
	MainMax    int
	BonusCount int
	BonusMin   int
	BonusMax   int

	// RuleEpoch is the first draw date of the current pricing regime. The
	// zero value means the game never changed its bet price.
	RuleEpoch time.Time
	// CostBefore and CostAfter are the prices of a single bet before and
	// from RuleEpoch on.
	CostBefore float64
	CostAfter  float64

	// FirstDrawDate is where ingestion starts on an empty store.
	FirstDrawDate time.Time
	// ArchivePath is the lotto.de archive endpoint, ArchiveKey the JSON key
	// under each draw day holding the game payload.
	ArchivePath string
	ArchiveKey  string
}

const (
	VariantLotto       = "lotto"
	VariantEurojackpot = "eurojackpot"
)

var (
	// Lotto is "6 aus 49" with a Superzahl in 0..9. On 2013-05-04 the bet
	// price rose from 0.75 to 1.00 and the Zusatzzahl classes were dropped.
	Lotto = Variant{
		Name:          VariantLotto,
		MainCount:     6,
		MainMin:       1,
		MainMax:       49,
		BonusCount:    1,
		BonusMin:      0,
		BonusMax:      9,
		RuleEpoch:     time.Date(2013, time.May, 4, 0, 0, 0, 0, time.UTC),
		CostBefore:    0.75,
		CostAfter:     1.0,
		FirstDrawDate: time.Date(2002, time.January, 2, 0, 0, 0, 0, time.UTC),
		ArchivePath:   "/bin/6aus49_archiv",
		ArchiveKey:    "lotto",
	}

	// Eurojackpot is "5 aus 50" plus two euro numbers.
	Eurojackpot = Variant{
		Name:          VariantEurojackpot,
		MainCount:     5,
		MainMin:       1,
		MainMax:       50,
		BonusCount:    2,
		BonusMin:      1,
		BonusMax:      12,
		CostBefore:    2.0,
		CostAfter:     2.0,
		FirstDrawDate: time.Date(2012, time.April, 20, 0, 0, 0, 0, time.UTC),
		ArchivePath:   "/bin/ej_archiv",
		ArchiveKey:    "ej",
	}
)

// VariantByName resolves a configured variant name.
func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VariantLotto:
		return Lotto, nil
	case VariantEurojackpot:
		return Eurojackpot, nil
	default:
		return Variant{}, fmt.Errorf("%w: unknown variant %q", ErrUnsupportedVariant, name)
	}
}

// CostPerBet returns the price of one bet on the given draw date.
func (v Variant) CostPerBet(date time.Time) float64 {
	if !v.RuleEpoch.IsZero() && date.Before(v.RuleEpoch) {
		return v.CostBefore
	}
	return v.CostAfter
}

// MainDomain returns the number of possible main number values.
func (v Variant) MainDomain() int { return v.MainMax - v.MainMin + 1 }

// BonusDomain returns the number of possible bonus number values.
func (v Variant) BonusDomain() int { return v.BonusMax - v.BonusMin + 1 }
