package group

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Repository handles group data persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group into the database.
func (r *Repository) Create(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	query := `
		INSERT INTO groups (name, description, currency)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, currency, created_at
	`

	g := &Group{}
	err := r.db.QueryRowContext(ctx, query, req.Name, req.Description, req.Currency).Scan(
		&g.ID, &g.Name, &g.Description, &g.Currency, &g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return g, nil
}

// GetByID retrieves a group by its ID. Returns nil when not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `
		SELECT id, name, description, currency, created_at
		FROM groups
		WHERE id = $1
	`

	g := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Description, &g.Currency, &g.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// List retrieves all groups ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]*Group, error) {
	query := `
		SELECT id, name, description, currency, created_at
		FROM groups
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g := &Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Currency, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Update applies a partial update to a group.
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    currency = COALESCE($4, currency)
		WHERE id = $1
		RETURNING id, name, description, currency, created_at
	`

	g := &Group{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Description, req.Currency).Scan(
		&g.ID, &g.Name, &g.Description, &g.Currency, &g.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return g, nil
}

// Delete removes a group and its dependent rows.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// CreateWeightType inserts a new weighting scheme for a group.
func (r *Repository) CreateWeightType(ctx context.Context, groupID int64, req *CreateWeightTypeRequest) (*WeightType, error) {
	query := `
		INSERT INTO weight_types (group_id, name)
		VALUES ($1, $2)
		RETURNING id, group_id, name, created_at
	`

	wt := &WeightType{}
	err := r.db.QueryRowContext(ctx, query, groupID, req.Name).Scan(
		&wt.ID, &wt.GroupID, &wt.Name, &wt.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create weight type: %w", err)
	}
	return wt, nil
}

// ListWeightTypes retrieves all weighting schemes of a group.
func (r *Repository) ListWeightTypes(ctx context.Context, groupID int64) ([]*WeightType, error) {
	query := `
		SELECT id, group_id, name, created_at
		FROM weight_types
		WHERE group_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight types: %w", err)
	}
	defer rows.Close()

	var types []*WeightType
	for rows.Next() {
		wt := &WeightType{}
		if err := rows.Scan(&wt.ID, &wt.GroupID, &wt.Name, &wt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight type: %w", err)
		}
		types = append(types, wt)
	}
	return types, rows.Err()
}

// DeleteWeightType removes a weighting scheme and its member weights.
func (r *Repository) DeleteWeightType(ctx context.Context, groupID, weightTypeID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM weight_types WHERE id = $1 AND group_id = $2`, weightTypeID, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete weight type: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrWeightTypeNotFound
	}
	return nil
}

// CreateMember inserts a member and its per-type weights in one transaction.
func (r *Repository) CreateMember(ctx context.Context, groupID int64, req *CreateMemberRequest) (*Member, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO members (group_id, name, active_from, active_to)
		VALUES ($1, $2, COALESCE($3, NOW()), $4)
		RETURNING id, group_id, name, active_from, active_to, created_at
	`

	m := &Member{}
	err = tx.QueryRowContext(ctx, query, groupID, req.Name, req.ActiveFrom, req.ActiveTo).Scan(
		&m.ID, &m.GroupID, &m.Name, &m.ActiveFrom, &m.ActiveTo, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	if err := upsertWeights(ctx, tx, m.ID, groupID, req.Weights); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit member: %w", err)
	}
	m.Weights = req.Weights
	return m, nil
}

// GetMemberByID retrieves a member with its weights. Returns nil when not
// found.
func (r *Repository) GetMemberByID(ctx context.Context, id int64) (*Member, error) {
	query := `
		SELECT id, group_id, name, active_from, active_to, created_at
		FROM members
		WHERE id = $1
	`

	m := &Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.GroupID, &m.Name, &m.ActiveFrom, &m.ActiveTo, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	weights, err := r.memberWeights(ctx, []int64{m.ID})
	if err != nil {
		return nil, err
	}
	m.Weights = weights[m.ID]
	return m, nil
}

// ListMembers retrieves all members of a group, weights included.
func (r *Repository) ListMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	query := `
		SELECT id, group_id, name, active_from, active_to, created_at
		FROM members
		WHERE group_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	var ids []int64
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Name, &m.ActiveFrom, &m.ActiveTo, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	weights, err := r.memberWeights(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		m.Weights = weights[m.ID]
	}
	return members, nil
}

// UpdateMember applies a partial update, replacing weights when provided.
func (r *Repository) UpdateMember(ctx context.Context, groupID, memberID int64, req *UpdateMemberRequest) (*Member, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE members
		SET name = COALESCE($3, name),
		    active_from = COALESCE($4, active_from),
		    active_to = COALESCE($5, active_to)
		WHERE id = $2 AND group_id = $1
		RETURNING id, group_id, name, active_from, active_to, created_at
	`

	m := &Member{}
	err = tx.QueryRowContext(ctx, query, groupID, memberID, req.Name, req.ActiveFrom, req.ActiveTo).Scan(
		&m.ID, &m.GroupID, &m.Name, &m.ActiveFrom, &m.ActiveTo, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	if req.Weights != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM member_weights WHERE member_id = $1`, memberID); err != nil {
			return nil, fmt.Errorf("failed to clear member weights: %w", err)
		}
		if err := upsertWeights(ctx, tx, memberID, groupID, req.Weights); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit member update: %w", err)
	}

	return r.GetMemberByID(ctx, memberID)
}

// DeleteMember removes a member from a group.
func (r *Repository) DeleteMember(ctx context.Context, groupID, memberID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM members WHERE id = $1 AND group_id = $2`, memberID, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// CreateResource inserts a metered resource.
func (r *Repository) CreateResource(ctx context.Context, groupID int64, req *CreateResourceRequest) (*Resource, error) {
	query := `
		INSERT INTO resources (group_id, name, unit, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, name, unit, unit_price, created_at
	`

	res := &Resource{}
	err := r.db.QueryRowContext(ctx, query, groupID, req.Name, req.Unit, req.UnitPrice).Scan(
		&res.ID, &res.GroupID, &res.Name, &res.Unit, &res.UnitPrice, &res.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// GetResourceByID retrieves a resource. Returns nil when not found.
func (r *Repository) GetResourceByID(ctx context.Context, id int64) (*Resource, error) {
	query := `
		SELECT id, group_id, name, unit, unit_price, created_at
		FROM resources
		WHERE id = $1
	`

	res := &Resource{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.GroupID, &res.Name, &res.Unit, &res.UnitPrice, &res.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return res, nil
}

// ListResources retrieves all resources of a group.
func (r *Repository) ListResources(ctx context.Context, groupID int64) ([]*Resource, error) {
	query := `
		SELECT id, group_id, name, unit, unit_price, created_at
		FROM resources
		WHERE group_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []*Resource
	for rows.Next() {
		res := &Resource{}
		if err := rows.Scan(&res.ID, &res.GroupID, &res.Name, &res.Unit, &res.UnitPrice, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// UpdateResource applies a partial update to a resource.
func (r *Repository) UpdateResource(ctx context.Context, groupID, resourceID int64, req *UpdateResourceRequest) (*Resource, error) {
	query := `
		UPDATE resources
		SET name = COALESCE($3, name),
		    unit = COALESCE($4, unit),
		    unit_price = COALESCE($5, unit_price)
		WHERE id = $2 AND group_id = $1
		RETURNING id, group_id, name, unit, unit_price, created_at
	`

	res := &Resource{}
	err := r.db.QueryRowContext(ctx, query, groupID, resourceID, req.Name, req.Unit, req.UnitPrice).Scan(
		&res.ID, &res.GroupID, &res.Name, &res.Unit, &res.UnitPrice, &res.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return res, nil
}

// DeleteResource removes a resource.
func (r *Repository) DeleteResource(ctx context.Context, groupID, resourceID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM resources WHERE id = $1 AND group_id = $2`, resourceID, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// memberWeights loads the weight map for a set of members, keyed by member
// id and weight type name.
func (r *Repository) memberWeights(ctx context.Context, memberIDs []int64) (map[int64]map[string]decimal.Decimal, error) {
	weights := make(map[int64]map[string]decimal.Decimal)
	if len(memberIDs) == 0 {
		return weights, nil
	}

	query := `
		SELECT mw.member_id, wt.name, mw.weight
		FROM member_weights mw
		JOIN weight_types wt ON wt.id = mw.weight_type_id
		WHERE mw.member_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(memberIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load member weights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int64
		var typeName string
		var weight decimal.Decimal
		if err := rows.Scan(&memberID, &typeName, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan member weight: %w", err)
		}
		if weights[memberID] == nil {
			weights[memberID] = make(map[string]decimal.Decimal)
		}
		weights[memberID][typeName] = weight
	}
	return weights, rows.Err()
}

// upsertWeights stores a member's weights, resolving weight type names
// scoped to the group.
func upsertWeights(ctx context.Context, tx *sql.Tx, memberID, groupID int64, weights map[string]decimal.Decimal) error {
	query := `
		INSERT INTO member_weights (member_id, weight_type_id, weight)
		SELECT $1, id, $3 FROM weight_types WHERE group_id = $2 AND name = $4
		ON CONFLICT (member_id, weight_type_id) DO UPDATE SET weight = EXCLUDED.weight
	`
	for name, weight := range weights {
		if _, err := tx.ExecContext(ctx, query, memberID, groupID, weight, name); err != nil {
			return fmt.Errorf("failed to store weight %q: %w", name, err)
		}
	}
	return nil
}
