package consumption

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles consumption data persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new consumption repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a consumption and its shares in one transaction, filling
// in the generated ids.
func (r *Repository) Create(ctx context.Context, c *Consumption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO consumptions (group_id, resource_id, description, amount, is_unit_amount, consumption_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query,
		c.GroupID, c.ResourceID, c.Description, c.Amount, c.IsUnitAmount, c.Date,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create consumption: %w", err)
	}

	if err := insertShares(ctx, tx, c.ID, c.Shares); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit consumption: %w", err)
	}
	return nil
}

// GetByID retrieves a consumption with its shares. Returns nil when not
// found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Consumption, error) {
	query := `
		SELECT id, group_id, resource_id, description, amount, is_unit_amount, consumption_date, created_at
		FROM consumptions
		WHERE id = $1
	`

	c := &Consumption{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.GroupID, &c.ResourceID, &c.Description, &c.Amount, &c.IsUnitAmount, &c.Date, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get consumption: %w", err)
	}

	shares, err := r.sharesFor(ctx, []int64{c.ID})
	if err != nil {
		return nil, err
	}
	c.Shares = shares[c.ID]
	return c, nil
}

// ListByGroup retrieves a group's consumptions with shares, newest first.
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Consumption, error) {
	query := `
		SELECT id, group_id, resource_id, description, amount, is_unit_amount, consumption_date, created_at
		FROM consumptions
		WHERE group_id = $1
		ORDER BY consumption_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumptions: %w", err)
	}
	defer rows.Close()

	var consumptions []*Consumption
	var ids []int64
	for rows.Next() {
		c := &Consumption{}
		err := rows.Scan(
			&c.ID, &c.GroupID, &c.ResourceID, &c.Description, &c.Amount, &c.IsUnitAmount, &c.Date, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consumption: %w", err)
		}
		consumptions = append(consumptions, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shares, err := r.sharesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range consumptions {
		c.Shares = shares[c.ID]
	}
	return consumptions, nil
}

// Update rewrites a consumption's fields and replaces its shares in one
// transaction.
func (r *Repository) Update(ctx context.Context, c *Consumption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE consumptions
		SET description = $2, amount = $3, is_unit_amount = $4, consumption_date = $5
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, c.ID, c.Description, c.Amount, c.IsUnitAmount, c.Date)
	if err != nil {
		return fmt.Errorf("failed to update consumption: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrConsumptionNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM consumption_shares WHERE consumption_id = $1`, c.ID); err != nil {
		return fmt.Errorf("failed to clear consumption shares: %w", err)
	}
	if err := insertShares(ctx, tx, c.ID, c.Shares); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit consumption update: %w", err)
	}
	return nil
}

// Delete removes a consumption and its shares.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM consumptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete consumption: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrConsumptionNotFound
	}
	return nil
}

func (r *Repository) sharesFor(ctx context.Context, consumptionIDs []int64) (map[int64][]*Share, error) {
	shares := make(map[int64][]*Share)
	if len(consumptionIDs) == 0 {
		return shares, nil
	}

	query := `
		SELECT id, consumption_id, member_id, amount, manually_edited
		FROM consumption_shares
		WHERE consumption_id = ANY($1)
		ORDER BY member_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(consumptionIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load consumption shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &Share{}
		if err := rows.Scan(&s.ID, &s.ConsumptionID, &s.MemberID, &s.Amount, &s.ManuallyEdited); err != nil {
			return nil, fmt.Errorf("failed to scan consumption share: %w", err)
		}
		shares[s.ConsumptionID] = append(shares[s.ConsumptionID], s)
	}
	return shares, rows.Err()
}

func insertShares(ctx context.Context, tx *sql.Tx, consumptionID int64, shares []*Share) error {
	query := `
		INSERT INTO consumption_shares (consumption_id, member_id, amount, manually_edited)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for _, s := range shares {
		s.ConsumptionID = consumptionID
		if err := tx.QueryRowContext(ctx, query, consumptionID, s.MemberID, s.Amount, s.ManuallyEdited).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to insert consumption share: %w", err)
		}
	}
	return nil
}
