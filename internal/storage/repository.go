package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"svend/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup or delete that matched no row.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction persists one ledger entry.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, date, amount_cents, category) VALUES (?, ?, ?, ?)`,
		t.ID, t.Date.String(), core.Cents(t.Amount), t.Category)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"date", t.Date.String(),
		"amount_cents", core.Cents(t.Amount),
		"category", t.Category)
	return nil
}

// ListTransactions returns every transaction in date order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount_cents, category FROM transactions ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var (
			id       string
			date     string
			cents    int64
			category string
		)
		if err := rows.Scan(&id, &date, &cents, &category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		parsed, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		transactions = append(transactions, core.Transaction{
			ID:       id,
			Date:     parsed,
			Amount:   core.FromCents(cents),
			Category: category,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return transactions, nil
}

// DeleteTransaction removes one transaction by ID.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// CreateGoal persists a goal together with its initial contribution
// schedule in one database transaction.
func (r *SQLiteRepository) CreateGoal(ctx context.Context, goal core.Goal, schedule []core.MonthlyAllocation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO goals (id, name, kind, debt_component, amount_cents, target_date, starting_balance_cents, monthly_amount_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.Name, string(goal.Kind), string(goal.DebtComponent),
		core.Cents(goal.Amount), goal.TargetDate.String(),
		core.Cents(goal.StartingBalance), core.Cents(goal.MonthlyAmount))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	for _, a := range schedule {
		var actualDate sql.NullString
		if a.ActualDate != nil {
			actualDate = sql.NullString{String: a.ActualDate.String(), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO goal_allocations (goal_id, month, planned_cents, actual_cents, actual_date)
			 VALUES (?, ?, ?, ?, ?)`,
			goal.ID, a.Date.String(), core.Cents(a.Planned), core.Cents(a.Actual), actualDate)
		if err != nil {
			return fmt.Errorf("create goal allocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goal insert: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved",
		"id", goal.ID,
		"name", goal.Name,
		"kind", string(goal.Kind),
		"amount_cents", core.Cents(goal.Amount),
		"schedule_months", len(schedule))
	return nil
}

// GetGoal returns one goal by ID.
func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind, debt_component, amount_cents, target_date, starting_balance_cents, monthly_amount_cents
		 FROM goals WHERE id = ?`, id)

	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("get goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

// ListGoals returns every goal in creation order.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, debt_component, amount_cents, target_date, starting_balance_cents, monthly_amount_cents
		 FROM goals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	return goals, nil
}

// DeleteGoal removes a goal and its allocation schedule.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM goal_allocations WHERE goal_id = ?`, id); err != nil {
		return fmt.Errorf("delete goal allocations: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete goal %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goal delete: %w", err)
	}

	slog.InfoContext(ctx, "Goal deleted", "id", id)
	return nil
}

// GetGoalSchedule returns a goal's stored allocations in month order.
func (r *SQLiteRepository) GetGoalSchedule(ctx context.Context, goalID string) ([]core.MonthlyAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, planned_cents, actual_cents, actual_date
		 FROM goal_allocations WHERE goal_id = ? ORDER BY month`, goalID)
	if err != nil {
		return nil, fmt.Errorf("get goal schedule: %w", err)
	}
	defer rows.Close()

	allocations := []core.MonthlyAllocation{}
	for rows.Next() {
		var (
			month      string
			planned    int64
			actual     int64
			actualDate sql.NullString
		)
		if err := rows.Scan(&month, &planned, &actual, &actualDate); err != nil {
			return nil, fmt.Errorf("scan goal allocation: %w", err)
		}
		date, err := core.ParseDate(month)
		if err != nil {
			return nil, fmt.Errorf("parse allocation month %q: %w", month, err)
		}

		allocation := core.MonthlyAllocation{
			Date:    date,
			Planned: core.FromCents(planned),
			Actual:  core.FromCents(actual),
		}
		if actualDate.Valid {
			parsed, err := core.ParseDate(actualDate.String)
			if err != nil {
				return nil, fmt.Errorf("parse allocation actual date %q: %w", actualDate.String, err)
			}
			allocation.ActualDate = &parsed
		}
		allocations = append(allocations, allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal allocations: %w", err)
	}

	return allocations, nil
}

// Taxonomy reconstructs the category grouping from the category_groups
// table, preserving the seeded group order.
func (r *SQLiteRepository) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, group_name FROM category_groups ORDER BY position, group_name, rowid`)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	defer rows.Close()

	var (
		taxonomy core.Taxonomy
		index    = map[string]int{}
	)
	for rows.Next() {
		var category, group string
		if err := rows.Scan(&category, &group); err != nil {
			return nil, fmt.Errorf("scan category group: %w", err)
		}
		i, ok := index[group]
		if !ok {
			i = len(taxonomy)
			index[group] = i
			taxonomy = append(taxonomy, core.CategoryGroup{Name: group})
		}
		taxonomy[i].Categories = append(taxonomy[i].Categories, core.Category{Name: category})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category groups: %w", err)
	}

	// A wiped table still yields a usable grouping.
	if len(taxonomy) == 0 {
		slog.WarnContext(ctx, "No category groups stored, using default taxonomy")
		return core.DefaultTaxonomy(), nil
	}
	return taxonomy, nil
}

// SavePlanSnapshot stores a computed bundle as the newest snapshot.
func (r *SQLiteRepository) SavePlanSnapshot(ctx context.Context, bundle *core.Bundle) (int64, error) {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return 0, fmt.Errorf("marshal plan snapshot: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO plan_snapshots (computed_at, payload) VALUES (?, ?)`,
		bundle.ComputedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return 0, fmt.Errorf("save plan snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("plan snapshot id: %w", err)
	}

	slog.InfoContext(ctx, "Plan snapshot saved", "snapshot_id", id, "bytes", len(payload))
	return id, nil
}

// LatestPlanSnapshot returns the most recently stored bundle.
func (r *SQLiteRepository) LatestPlanSnapshot(ctx context.Context) (*core.Bundle, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM plan_snapshots ORDER BY id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest plan snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest plan snapshot: %w", err)
	}

	var bundle core.Bundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		return nil, fmt.Errorf("unmarshal plan snapshot: %w", err)
	}
	return &bundle, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		goal          core.Goal
		kind          string
		debtComponent string
		amountCents   int64
		targetDate    string
		startingCents int64
		monthlyCents  int64
	)
	err := row.Scan(&goal.ID, &goal.Name, &kind, &debtComponent, &amountCents, &targetDate, &startingCents, &monthlyCents)
	if err != nil {
		return core.Goal{}, err
	}

	parsed, err := core.ParseDate(targetDate)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse goal target date %q: %w", targetDate, err)
	}

	goal.Kind = core.GoalKind(kind)
	goal.DebtComponent = core.DebtComponent(debtComponent)
	goal.Amount = core.FromCents(amountCents)
	goal.TargetDate = parsed
	goal.StartingBalance = core.FromCents(startingCents)
	goal.MonthlyAmount = core.FromCents(monthlyCents)
	return goal, nil
}
