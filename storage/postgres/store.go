package pgstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PaulFidika/entitlekit/entitlements"
)

// Store is the pgx-backed entitlements.Store against a dedicated schema.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "entitlements"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) entitlementsTable() string { return s.schema + ".user_entitlements" }
func (s *Store) productsTable() string     { return s.schema + ".products" }
func (s *Store) usersTable() string        { return s.schema + ".users" }

const entitlementCols = `user_id, product_id, status, trial_started_at, trial_ends_at,
	usage_count, usage_limit, access_ends_at, granted_by, note, created_at, updated_at`

func scanEntitlement(row pgx.Row) (entitlements.UserEntitlement, error) {
	var e entitlements.UserEntitlement
	var note *string
	err := row.Scan(&e.UserID, &e.ProductID, &e.Status, &e.TrialStartedAt, &e.TrialEndsAt,
		&e.UsageCount, &e.UsageLimit, &e.AccessEndsAt, &e.GrantedBy, &note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return entitlements.UserEntitlement{}, err
	}
	if note != nil {
		e.Note = *note
	}
	return e, nil
}

func (s *Store) GetEntitlements(ctx context.Context, userID uuid.UUID) ([]entitlements.UserEntitlement, error) {
	if s.pg == nil || userID == uuid.Nil {
		return nil, nil
	}
	rows, err := s.pg.Query(ctx, `SELECT `+entitlementCols+` FROM `+s.entitlementsTable()+` WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entitlements.UserEntitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetProducts(ctx context.Context) ([]entitlements.Product, error) {
	if s.pg == nil {
		return nil, nil
	}
	rows, err := s.pg.Query(ctx, `SELECT id, name, description, icon, price_monthly, price_annual,
		trial_type, trial_limit, is_active, sort_order, created_at, updated_at
		FROM `+s.productsTable()+` ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entitlements.Product
	for rows.Next() {
		var p entitlements.Product
		var desc, icon *string
		if err := rows.Scan(&p.ID, &p.Name, &desc, &icon, &p.PriceMonthly, &p.PriceAnnual,
			&p.TrialType, &p.TrialLimit, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if desc != nil {
			p.Description = *desc
		}
		if icon != nil {
			p.Icon = *icon
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertEntitlement writes the row keyed on (user, product). Last writer
// wins; created_at survives conflicts.
func (s *Store) UpsertEntitlement(ctx context.Context, row entitlements.UserEntitlement) error {
	if s.pg == nil || row.UserID == uuid.Nil || row.ProductID == "" {
		return nil
	}
	_, err := s.pg.Exec(ctx, `INSERT INTO `+s.entitlementsTable()+` (`+entitlementCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			status=EXCLUDED.status,
			trial_started_at=EXCLUDED.trial_started_at,
			trial_ends_at=EXCLUDED.trial_ends_at,
			usage_count=EXCLUDED.usage_count,
			usage_limit=EXCLUDED.usage_limit,
			access_ends_at=EXCLUDED.access_ends_at,
			granted_by=EXCLUDED.granted_by,
			note=EXCLUDED.note,
			updated_at=NOW()`,
		row.UserID, row.ProductID, row.Status, row.TrialStartedAt, row.TrialEndsAt,
		row.UsageCount, row.UsageLimit, row.AccessEndsAt, row.GrantedBy, row.Note)
	return err
}

// ConditionalIncrementUsage is the one-statement check-and-increment: the
// WHERE clause refuses rows that are not incrementable trials or are
// already at their limit, so racing callers can never push usage_count
// past usage_limit.
func (s *Store) ConditionalIncrementUsage(ctx context.Context, userID uuid.UUID, productID string) (entitlements.IncrementResult, error) {
	if s.pg == nil || userID == uuid.Nil || productID == "" {
		return entitlements.IncrementResult{}, nil
	}
	var count, limit int
	err := s.pg.QueryRow(ctx, `UPDATE `+s.entitlementsTable()+`
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE user_id=$1 AND product_id=$2 AND status=$3
			AND usage_limit IS NOT NULL AND usage_count < usage_limit
		RETURNING usage_count, usage_limit`,
		userID, productID, entitlements.StatusTrial).Scan(&count, &limit)
	if err == pgx.ErrNoRows {
		return entitlements.IncrementResult{Success: false}, nil
	}
	if err != nil {
		return entitlements.IncrementResult{}, err
	}
	return entitlements.IncrementResult{Success: true, NewCount: count, UsageLimit: limit}, nil
}

func (s *Store) ListAllEntitlements(ctx context.Context) ([]entitlements.UserEntitlement, error) {
	if s.pg == nil {
		return nil, nil
	}
	rows, err := s.pg.Query(ctx, `SELECT `+entitlementCols+` FROM `+s.entitlementsTable()+` ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entitlements.UserEntitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListAllUsers joins display data for the staff console. The users table
// (or view) is owned by the host application's profile schema.
func (s *Store) ListAllUsers(ctx context.Context) ([]entitlements.UserRef, error) {
	if s.pg == nil {
		return nil, nil
	}
	rows, err := s.pg.Query(ctx, `SELECT id, email, username FROM `+s.usersTable())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entitlements.UserRef
	for rows.Next() {
		var u entitlements.UserRef
		var username *string
		if err := rows.Scan(&u.ID, &u.Email, &username); err != nil {
			return nil, err
		}
		if username != nil {
			u.Username = *username
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
