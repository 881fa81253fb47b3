package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// DrawStore implements domain.DrawStore using PostgreSQL.
type DrawStore struct {
	db DB
}

// NewDrawStore creates a new DrawStore backed by the given connection pool.
func NewDrawStore(db DB) *DrawStore {
	return &DrawStore{db: db}
}

// drawWhere renders the shared filter of the draw and payout listings.
func drawWhere(f domain.DrawFilter) (string, []any) {
	where := "d.variant = $1"
	args := []any{f.Variant}
	if f.Since != nil {
		args = append(args, *f.Since)
		where += fmt.Sprintf(" AND d.draw_date >= $%d", len(args))
	}
	if f.Until != nil {
		args = append(args, *f.Until)
		where += fmt.Sprintf(" AND d.draw_date <= $%d", len(args))
	}
	return where, args
}

// ListDraws returns the filtered draws in ascending date order. Payout rows
// are loaded with a second query over the same filter.
func (s *DrawStore) ListDraws(ctx context.Context, f domain.DrawFilter) ([]domain.Draw, error) {
	where, args := drawWhere(f)

	rows, err := s.db.Query(ctx, `
		SELECT d.id, d.variant, d.draw_date, d.stake, d.numbers, d.bonus, d.extra
		FROM draws d
		WHERE `+where+`
		ORDER BY d.draw_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			d              domain.Draw
			numbers, bonus []int32
		)
		if err := rows.Scan(&d.ID, &d.Variant, &d.Date, &d.Stake, &numbers, &bonus, &d.Extra); err != nil {
			return nil, fmt.Errorf("postgres: scan draw: %w", err)
		}
		d.Numbers = toInts(numbers)
		d.Bonus = toInts(bonus)
		byID[d.ID] = len(draws)
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list draws rows: %w", err)
	}
	if len(draws) == 0 {
		return draws, nil
	}

	prows, err := s.db.Query(ctx, `
		SELECT p.draw_id, p.description, p.winners, p.amount
		FROM payouts p
		JOIN draws d ON d.id = p.draw_id
		WHERE `+where+`
		ORDER BY p.draw_id, p.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list payouts: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var p domain.PayoutRow
		if err := prows.Scan(&p.DrawID, &p.Description, &p.Winners, &p.Amount); err != nil {
			return nil, fmt.Errorf("postgres: scan payout: %w", err)
		}
		i, ok := byID[p.DrawID]
		if !ok {
			continue
		}
		draws[i].Payouts = append(draws[i].Payouts, p)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list payouts rows: %w", err)
	}
	return draws, nil
}

// LastDrawDate returns the newest stored draw date of a variant, or the zero
// time for an empty store.
func (s *DrawStore) LastDrawDate(ctx context.Context, variant string) (time.Time, error) {
	var last sql.Null[time.Time]
	err := s.db.QueryRow(ctx,
		`SELECT MAX(draw_date) FROM draws WHERE variant = $1`, variant,
	).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: last draw date %s: %w", variant, err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.V, nil
}

// InsertDraw stores a draw and its payout rows in one transaction. A draw
// whose (variant, date) already exists is left untouched.
func (s *DrawStore) InsertDraw(ctx context.Context, d domain.Draw) error {
	date := d.Date.Format(time.DateOnly)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin insert draw %s: %w", date, err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO draws (variant, draw_date, stake, numbers, bonus, extra)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (variant, draw_date) DO NOTHING
		RETURNING id`,
		d.Variant, d.Date, d.Stake, toInt32s(d.Numbers), toInt32s(d.Bonus), d.Extra,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = tx.Rollback(ctx)
		return nil
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("postgres: insert draw %s: %w", date, err)
	}

	if len(d.Payouts) > 0 {
		rows := make([][]any, len(d.Payouts))
		for i, p := range d.Payouts {
			rows[i] = []any{id, p.Description, p.Winners, p.Amount}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"payouts"},
			[]string{"draw_id", "description", "winners", "amount"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: insert payouts %s: %w", date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit draw %s: %w", date, err)
	}
	return nil
}

// Count returns the number of stored draws of a variant.
func (s *DrawStore) Count(ctx context.Context, variant string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM draws WHERE variant = $1`, variant,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count draws %s: %w", variant, err)
	}
	return n, nil
}

func toInts(in []int32) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}
