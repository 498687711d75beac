package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repositories gives access to every repository. Inside Store.Atomic all of
// them share the same database transaction.
type Repositories interface {
	Categories() CategoryRepository
	Units() UnitRepository
	Items() ItemRepository
	ItemSizes() ItemSizeRepository
	Transactions() TransactionRepository
	Requests() ItemRequestRepository
	Users() UserRepository
}

// Store runs fn inside a single database transaction. If fn returns an
// error the transaction is rolled back.
type Store interface {
	Repositories
	Atomic(ctx context.Context, fn func(r Repositories) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Atomic(ctx context.Context, fn func(r Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Categories() CategoryRepository     { return &categoryRepo{s.db} }
func (s *gormStore) Units() UnitRepository               { return &unitRepo{s.db} }
func (s *gormStore) Items() ItemRepository               { return &itemRepo{s.db} }
func (s *gormStore) ItemSizes() ItemSizeRepository       { return &itemSizeRepo{s.db} }
func (s *gormStore) Transactions() TransactionRepository { return &transactionRepo{s.db} }
func (s *gormStore) Requests() ItemRequestRepository     { return &itemRequestRepo{s.db} }
func (s *gormStore) Users() UserRepository               { return &userRepo{s.db} }

// forUpdate adds SELECT ... FOR UPDATE (Pessimistic Locking)
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// forShare adds SELECT ... FOR SHARE: concurrent readers proceed, writers wait
func forShare(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "SHARE"})
}

// withDeleted keeps soft-deleted rows visible to preloads so that history
// stays resolvable after an item or variant is removed.
func withDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
