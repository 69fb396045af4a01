package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/phclaus/fairsplit/internal/balance"
)

// Repository handles settlement data persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a settlement batch and its member transactions in one
// transaction, filling in the generated ids.
func (r *Repository) Create(ctx context.Context, s *Settlement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO settlements (group_id, reference, strategy, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, query, s.GroupID, s.Reference, s.Strategy, s.CreatedAt).Scan(&s.ID); err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	memberQuery := `
		INSERT INTO settlement_members (settlement_id, from_kind, from_id, to_kind, to_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for _, m := range s.Members {
		m.SettlementID = s.ID
		fromKind, fromID := splitKey(m.From)
		toKind, toID := splitKey(m.To)
		err := tx.QueryRowContext(ctx, memberQuery,
			s.ID, fromKind, fromID, toKind, toID, m.Amount, m.Status, m.CreatedAt,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to insert settlement member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

// GetByID retrieves a settlement batch with its members. Returns nil when
// not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	query := `
		SELECT id, group_id, reference, strategy, created_at
		FROM settlements
		WHERE id = $1
	`

	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.GroupID, &s.Reference, &s.Strategy, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	members, err := r.membersFor(ctx, []int64{s.ID})
	if err != nil {
		return nil, err
	}
	s.Members = members[s.ID]
	return s, nil
}

// ListByGroup retrieves a group's settlement batches with members, newest
// first.
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Settlement, error) {
	query := `
		SELECT id, group_id, reference, strategy, created_at
		FROM settlements
		WHERE group_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	var ids []int64
	for rows.Next() {
		s := &Settlement{}
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Reference, &s.Strategy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := r.membersFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range settlements {
		s.Members = members[s.ID]
	}
	return settlements, nil
}

// UpdateMemberStatus sets the status of one member transaction.
func (r *Repository) UpdateMemberStatus(ctx context.Context, settlementID, memberID int64, status MemberStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE settlement_members SET status = $3 WHERE id = $2 AND settlement_id = $1`,
		settlementID, memberID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement member: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *Repository) membersFor(ctx context.Context, settlementIDs []int64) (map[int64][]*Member, error) {
	members := make(map[int64][]*Member)
	if len(settlementIDs) == 0 {
		return members, nil
	}

	query := `
		SELECT id, settlement_id, from_kind, from_id, to_kind, to_id, amount, status, created_at
		FROM settlement_members
		WHERE settlement_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(settlementIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &Member{}
		var fromKind, toKind *string
		var fromID, toID *int64
		err := rows.Scan(&m.ID, &m.SettlementID, &fromKind, &fromID, &toKind, &toID, &m.Amount, &m.Status, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement member: %w", err)
		}
		m.From = joinKey(fromKind, fromID)
		m.To = joinKey(toKind, toID)
		members[m.SettlementID] = append(members[m.SettlementID], m)
	}
	return members, rows.Err()
}

func splitKey(key *balance.EntityKey) (*string, *int64) {
	if key == nil {
		return nil, nil
	}
	kind := string(key.Kind)
	id := key.ID
	return &kind, &id
}

func joinKey(kind *string, id *int64) *balance.EntityKey {
	if kind == nil || id == nil {
		return nil
	}
	return &balance.EntityKey{Kind: balance.EntityKind(*kind), ID: *id}
}
