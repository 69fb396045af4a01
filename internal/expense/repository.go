package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles expense data persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an expense and its shares in one transaction, filling in
// the generated ids.
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (group_id, payer_id, description, amount, expense_date,
		                      split_all, sharing_method, recurrence_unit, recurrence_interval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query,
		e.GroupID, e.PayerID, e.Description, e.Amount, e.Date,
		e.SplitAll, e.SharingMethod, e.RecurrenceUnit, e.RecurrenceInterval,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if err := insertShares(ctx, tx, e.ID, e.Shares); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense with its shares. Returns nil when not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT id, group_id, payer_id, description, amount, expense_date,
		       split_all, sharing_method, recurrence_unit, recurrence_interval, created_at
		FROM expenses
		WHERE id = $1
	`

	e := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount, &e.Date,
		&e.SplitAll, &e.SharingMethod, &e.RecurrenceUnit, &e.RecurrenceInterval, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	shares, err := r.sharesFor(ctx, []int64{e.ID})
	if err != nil {
		return nil, err
	}
	e.Shares = shares[e.ID]
	return e, nil
}

// ListByGroup retrieves a group's expenses with shares, newest first.
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Expense, error) {
	return r.list(ctx, `WHERE group_id = $1`, groupID)
}

// ListSplitAllByGroup retrieves the group's split-all expenses. Used when
// membership changes require share re-redistribution.
func (r *Repository) ListSplitAllByGroup(ctx context.Context, groupID int64) ([]*Expense, error) {
	return r.list(ctx, `WHERE group_id = $1 AND split_all`, groupID)
}

func (r *Repository) list(ctx context.Context, where string, args ...interface{}) ([]*Expense, error) {
	query := `
		SELECT id, group_id, payer_id, description, amount, expense_date,
		       split_all, sharing_method, recurrence_unit, recurrence_interval, created_at
		FROM expenses
		` + where + `
		ORDER BY expense_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	var ids []int64
	for rows.Next() {
		e := &Expense{}
		err := rows.Scan(
			&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount, &e.Date,
			&e.SplitAll, &e.SharingMethod, &e.RecurrenceUnit, &e.RecurrenceInterval, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shares, err := r.sharesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		e.Shares = shares[e.ID]
	}
	return expenses, nil
}

// Update rewrites an expense's fields and replaces its shares in one
// transaction.
func (r *Repository) Update(ctx context.Context, e *Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE expenses
		SET payer_id = $2, description = $3, amount = $4, expense_date = $5,
		    split_all = $6, sharing_method = $7, recurrence_unit = $8, recurrence_interval = $9
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query,
		e.ID, e.PayerID, e.Description, e.Amount, e.Date,
		e.SplitAll, e.SharingMethod, e.RecurrenceUnit, e.RecurrenceInterval,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrExpenseNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, e.ID); err != nil {
		return fmt.Errorf("failed to clear expense shares: %w", err)
	}
	if err := insertShares(ctx, tx, e.ID, e.Shares); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense update: %w", err)
	}
	return nil
}

// ReplaceShares swaps the share set of an expense.
func (r *Repository) ReplaceShares(ctx context.Context, expenseID int64, shares []*Share) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, expenseID); err != nil {
		return fmt.Errorf("failed to clear expense shares: %w", err)
	}
	if err := insertShares(ctx, tx, expenseID, shares); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shares: %w", err)
	}
	return nil
}

// SetShareManuallyEdited flips the pin flag of one share without touching
// its amount.
func (r *Repository) SetShareManuallyEdited(ctx context.Context, expenseID, memberID int64, manuallyEdited bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE expense_shares SET manually_edited = $3 WHERE expense_id = $1 AND member_id = $2`,
		expenseID, memberID, manuallyEdited,
	)
	if err != nil {
		return fmt.Errorf("failed to update share: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrShareNotFound
	}
	return nil
}

// Delete removes an expense and its shares.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *Repository) sharesFor(ctx context.Context, expenseIDs []int64) (map[int64][]*Share, error) {
	shares := make(map[int64][]*Share)
	if len(expenseIDs) == 0 {
		return shares, nil
	}

	query := `
		SELECT id, expense_id, member_id, amount, weight, manually_edited
		FROM expense_shares
		WHERE expense_id = ANY($1)
		ORDER BY member_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(expenseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &Share{}
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.MemberID, &s.Amount, &s.Weight, &s.ManuallyEdited); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		shares[s.ExpenseID] = append(shares[s.ExpenseID], s)
	}
	return shares, rows.Err()
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID int64, shares []*Share) error {
	query := `
		INSERT INTO expense_shares (expense_id, member_id, amount, weight, manually_edited)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for _, s := range shares {
		s.ExpenseID = expenseID
		if err := tx.QueryRowContext(ctx, query, expenseID, s.MemberID, s.Amount, s.Weight, s.ManuallyEdited).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}
