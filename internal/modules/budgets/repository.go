package budgets

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/database"
	"github.com/aristath/fintrack/internal/domain"
)

// Repository handles budget persistence in fintrack.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new budget repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "budgets").Logger(),
	}
}

// Get returns the budget for a month and category, or nil if none is set.
func (r *Repository) Get(month domain.Month, category string) (*Budget, error) {
	var (
		amount    string
		updatedAt int64
	)
	err := r.db.QueryRow(
		"SELECT amount, updated_at FROM budgets WHERE month = ? AND category = ?",
		month.String(), category,
	).Scan(&amount, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget %s/%s: %w", month, category, err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, &domain.ParseError{Field: "budget amount", Value: amount, Err: err}
	}
	return &Budget{Month: month, Category: category, Amount: value, UpdatedAt: time.Unix(updatedAt, 0).UTC()}, nil
}

// Set creates or replaces a budget. Negative amounts are rejected.
func (r *Repository) Set(month domain.Month, category string, amount decimal.Decimal) error {
	if category == "" {
		return &domain.ParseError{Field: "category", Err: errors.New("category is required")}
	}
	if amount.IsNegative() {
		return &domain.ParseError{Field: "budget amount", Value: amount.String(), Err: errors.New("must not be negative")}
	}

	_, err := r.db.Exec(`
		INSERT INTO budgets (month, category, amount, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(month, category) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
	`, month.String(), category, amount.String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set budget %s/%s: %w", month, category, err)
	}

	r.log.Debug().Str("month", month.String()).Str("category", category).Str("amount", amount.String()).Msg("Budget updated")
	return nil
}

// List returns all budgets of a month ordered by category.
func (r *Repository) List(month domain.Month) ([]Budget, error) {
	rows, err := r.db.Query(
		"SELECT category, amount, updated_at FROM budgets WHERE month = ? ORDER BY category",
		month.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets for %s: %w", month, err)
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		var (
			b         Budget
			amount    string
			updatedAt int64
		)
		if err := rows.Scan(&b.Category, &amount, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, &domain.ParseError{Field: "budget amount", Value: amount, Err: err}
		}
		b.Month = month
		b.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// EnsureDefaults inserts amount for every month and category pair that has
// no budget yet and returns how many rows were added. Existing budgets are
// left untouched.
func (r *Repository) EnsureDefaults(months []domain.Month, categories []string, amount decimal.Decimal) (int, error) {
	inserted := 0
	now := time.Now().Unix()
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO budgets (month, category, amount, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(month, category) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range months {
			for _, c := range categories {
				res, err := stmt.Exec(m.String(), c, amount.String(), now)
				if err != nil {
					return fmt.Errorf("failed to seed budget %s/%s: %w", m, c, err)
				}
				if n, err := res.RowsAffected(); err == nil {
					inserted += int(n)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		r.log.Info().Int("inserted", inserted).Str("amount", amount.String()).Msg("Seeded default budgets")
	}
	return inserted, nil
}
