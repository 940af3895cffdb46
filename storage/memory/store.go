package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PaulFidika/entitlekit/entitlements"
)

// Store is an in-memory entitlements.Store for tests and single-process
// development. The conditional increment holds the lock across the check
// and the write, giving the same atomicity the SQL statement gives in
// production.
type Store struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]map[string]entitlements.UserEntitlement
	products map[string]entitlements.Product
	users    map[uuid.UUID]entitlements.UserRef
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		rows:     make(map[uuid.UUID]map[string]entitlements.UserEntitlement),
		products: make(map[string]entitlements.Product),
		users:    make(map[uuid.UUID]entitlements.UserRef),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SeedProduct inserts or replaces a catalog entry.
func (s *Store) SeedProduct(p entitlements.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedUser registers display info for admin listings.
func (s *Store) SeedUser(u entitlements.UserRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetEntitlements(ctx context.Context, userID uuid.UUID) ([]entitlements.UserEntitlement, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entitlements.UserEntitlement
	for _, e := range s.rows[userID] {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetProducts(ctx context.Context) ([]entitlements.Product, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entitlements.Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) UpsertEntitlement(ctx context.Context, row entitlements.UserEntitlement) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct, ok := s.rows[row.UserID]
	if !ok {
		byProduct = make(map[string]entitlements.UserEntitlement)
		s.rows[row.UserID] = byProduct
	}
	now := s.now()
	if prev, ok := byProduct[row.ProductID]; ok {
		row.CreatedAt = prev.CreatedAt
	} else {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	byProduct[row.ProductID] = row
	return nil
}

func (s *Store) ConditionalIncrementUsage(ctx context.Context, userID uuid.UUID, productID string) (entitlements.IncrementResult, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID][productID]
	if !ok || row.Status != entitlements.StatusTrial || row.UsageLimit == nil {
		return entitlements.IncrementResult{Success: false}, nil
	}
	if row.UsageCount >= *row.UsageLimit {
		return entitlements.IncrementResult{Success: false}, nil
	}
	row.UsageCount++
	row.UpdatedAt = s.now()
	s.rows[userID][productID] = row
	return entitlements.IncrementResult{Success: true, NewCount: row.UsageCount, UsageLimit: *row.UsageLimit}, nil
}

func (s *Store) ListAllEntitlements(ctx context.Context) ([]entitlements.UserEntitlement, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entitlements.UserEntitlement
	for _, byProduct := range s.rows {
		for _, e := range byProduct {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListAllUsers(ctx context.Context) ([]entitlements.UserRef, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entitlements.UserRef
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}
