package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is an in-memory repository.Store. Atomic holds one mutex for the
// whole callback and restores a snapshot when the callback fails, which is
// the behaviour the services rely on from a serializable database
// transaction.
type memStore struct {
	mu  sync.Mutex
	st  *memState
	seq int64

	// failTransactionCreate makes the next ledger insert fail.
	failTransactionCreate error

	// rowLocks records catalog row locks as "<table> <strength>".
	rowLocks []string
}

func (r memRepos) recordLock(lock string) {
	r.store.rowLocks = append(r.store.rowLocks, lock)
}

type memState struct {
	categories   map[uuid.UUID]model.Category
	units        map[uuid.UUID]model.Unit
	items        map[uuid.UUID]model.Item
	sizes        map[uuid.UUID]model.ItemSize
	transactions map[uuid.UUID]model.Transaction
	requests     map[uuid.UUID]model.ItemRequest
	users        map[uuid.UUID]model.User
}

func newMemStore() *memStore {
	return &memStore{st: &memState{
		categories:   map[uuid.UUID]model.Category{},
		units:        map[uuid.UUID]model.Unit{},
		items:        map[uuid.UUID]model.Item{},
		sizes:        map[uuid.UUID]model.ItemSize{},
		transactions: map[uuid.UUID]model.Transaction{},
		requests:     map[uuid.UUID]model.ItemRequest{},
		users:        map[uuid.UUID]model.User{},
	}}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *memState) clone() *memState {
	return &memState{
		categories:   cloneMap(st.categories),
		units:        cloneMap(st.units),
		items:        cloneMap(st.items),
		sizes:        cloneMap(st.sizes),
		transactions: cloneMap(st.transactions),
		requests:     cloneMap(st.requests),
		users:        cloneMap(st.users),
	}
}

func (s *memStore) Atomic(_ context.Context, fn func(r repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(memRepos{store: s, locked: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *memStore) Categories() repository.CategoryRepository     { return memRepos{store: s}.Categories() }
func (s *memStore) Units() repository.UnitRepository               { return memRepos{store: s}.Units() }
func (s *memStore) Items() repository.ItemRepository               { return memRepos{store: s}.Items() }
func (s *memStore) ItemSizes() repository.ItemSizeRepository       { return memRepos{store: s}.ItemSizes() }
func (s *memStore) Transactions() repository.TransactionRepository { return memRepos{store: s}.Transactions() }
func (s *memStore) Requests() repository.ItemRequestRepository     { return memRepos{store: s}.Requests() }
func (s *memStore) Users() repository.UserRepository               { return memRepos{store: s}.Users() }

// tick hands out strictly increasing timestamps so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Millisecond)
}

// memRepos binds the repositories to the store. Outside Atomic every call
// takes the mutex itself.
type memRepos struct {
	store  *memStore
	locked bool
}

func (r memRepos) with(fn func(st *memState) error) error {
	if !r.locked {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return fn(r.store.st)
}

func (r memRepos) Categories() repository.CategoryRepository     { return memCategories{r} }
func (r memRepos) Units() repository.UnitRepository               { return memUnits{r} }
func (r memRepos) Items() repository.ItemRepository               { return memItems{r} }
func (r memRepos) ItemSizes() repository.ItemSizeRepository       { return memSizes{r} }
func (r memRepos) Transactions() repository.TransactionRepository { return memTransactions{r} }
func (r memRepos) Requests() repository.ItemRequestRepository     { return memRequests{r} }
func (r memRepos) Users() repository.UserRepository               { return memUsers{r} }

func (r memRepos) stamp(base *model.BaseModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	now := r.store.tick()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func (r memRepos) deleted(by string) gorm.DeletedAt {
	return gorm.DeletedAt{Time: r.store.tick(), Valid: true}
}

// ---- categories ----

type memCategories struct{ memRepos }

func (r memCategories) Create(_ context.Context, c *model.Category) error {
	return r.with(func(st *memState) error {
		for _, other := range st.categories {
			if !other.DeletedAt.Valid && strings.EqualFold(other.Name, c.Name) {
				return repository.ErrDuplicate
			}
		}
		r.stamp(&c.BaseModel)
		st.categories[c.ID] = *c
		return nil
	})
}

func (r memCategories) Update(_ context.Context, c *model.Category) error {
	return r.with(func(st *memState) error {
		c.UpdatedAt = r.store.tick()
		st.categories[c.ID] = *c
		return nil
	})
}

func (r memCategories) Delete(_ context.Context, id uuid.UUID, by string) error {
	return r.with(func(st *memState) error {
		c, ok := st.categories[id]
		if !ok || c.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		c.DeletedAt = r.deleted(by)
		c.DeletedBy = by
		st.categories[id] = c
		return nil
	})
}

func (r memCategories) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	var out *model.Category
	err := r.with(func(st *memState) error {
		c, ok := st.categories[id]
		if !ok || c.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r memCategories) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c, err := r.FindByID(ctx, id)
	if err == nil {
		r.recordLock("categories UPDATE")
	}
	return c, err
}

func (r memCategories) FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c, err := r.FindByID(ctx, id)
	if err == nil {
		r.recordLock("categories SHARE")
	}
	return c, err
}

func (r memCategories) FindByName(_ context.Context, name string) (*model.Category, error) {
	var out *model.Category
	err := r.with(func(st *memState) error {
		for _, c := range st.categories {
			if !c.DeletedAt.Valid && strings.EqualFold(c.Name, name) {
				c := c
				out = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r memCategories) FindAll(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	err := r.with(func(st *memState) error {
		for _, c := range st.categories {
			if !c.DeletedAt.Valid {
				out = append(out, c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

// ---- units ----

type memUnits struct{ memRepos }

func (r memUnits) Create(_ context.Context, u *model.Unit) error {
	return r.with(func(st *memState) error {
		for _, other := range st.units {
			if !other.DeletedAt.Valid && (strings.EqualFold(other.Name, u.Name) || strings.EqualFold(other.Symbol, u.Symbol)) {
				return repository.ErrDuplicate
			}
		}
		r.stamp(&u.BaseModel)
		st.units[u.ID] = *u
		return nil
	})
}

func (r memUnits) Update(_ context.Context, u *model.Unit) error {
	return r.with(func(st *memState) error {
		u.UpdatedAt = r.store.tick()
		st.units[u.ID] = *u
		return nil
	})
}

func (r memUnits) Delete(_ context.Context, id uuid.UUID, by string) error {
	return r.with(func(st *memState) error {
		u, ok := st.units[id]
		if !ok || u.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		u.DeletedAt = r.deleted(by)
		u.DeletedBy = by
		st.units[id] = u
		return nil
	})
}

func (r memUnits) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	u, err := r.FindByID(ctx, id)
	if err == nil {
		r.recordLock("units UPDATE")
	}
	return u, err
}

func (r memUnits) FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	u, err := r.FindByID(ctx, id)
	if err == nil {
		r.recordLock("units SHARE")
	}
	return u, err
}

func (r memUnits) FindByID(_ context.Context, id uuid.UUID) (*model.Unit, error) {
	var out *model.Unit
	err := r.with(func(st *memState) error {
		u, ok := st.units[id]
		if !ok || u.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r memUnits) find(match func(model.Unit) bool) (*model.Unit, error) {
	var out *model.Unit
	err := r.with(func(st *memState) error {
		for _, u := range st.units {
			if !u.DeletedAt.Valid && match(u) {
				u := u
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r memUnits) FindByName(_ context.Context, name string) (*model.Unit, error) {
	return r.find(func(u model.Unit) bool { return strings.EqualFold(u.Name, name) })
}

func (r memUnits) FindBySymbol(_ context.Context, symbol string) (*model.Unit, error) {
	return r.find(func(u model.Unit) bool { return strings.EqualFold(u.Symbol, symbol) })
}

func (r memUnits) FindAll(_ context.Context) ([]model.Unit, error) {
	var out []model.Unit
	err := r.with(func(st *memState) error {
		for _, u := range st.units {
			if !u.DeletedAt.Valid {
				out = append(out, u)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

// ---- items ----

type memItems struct{ memRepos }

func bareItem(i model.Item) model.Item {
	i.Category, i.Unit, i.Sizes = nil, nil, nil
	return i
}

func liveSizes(st *memState, itemID uuid.UUID) []model.ItemSize {
	var out []model.ItemSize
	for _, s := range st.sizes {
		if s.ItemID == itemID && !s.DeletedAt.Valid {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// loaded mirrors the repository preloads (category and unit even when soft-deleted).
func loadedItem(st *memState, i model.Item) model.Item {
	if c, ok := st.categories[i.CategoryID]; ok {
		i.Category = &c
	}
	if u, ok := st.units[i.UnitID]; ok {
		i.Unit = &u
	}
	i.Sizes = liveSizes(st, i.ID)
	return i
}

func (r memItems) Create(_ context.Context, item *model.Item) error {
	return r.with(func(st *memState) error {
		for _, other := range st.items {
			if !other.DeletedAt.Valid && other.Code == item.Code {
				return repository.ErrDuplicate
			}
		}
		r.stamp(&item.BaseModel)
		st.items[item.ID] = bareItem(*item)
		return nil
	})
}

func (r memItems) Update(_ context.Context, item *model.Item) error {
	return r.with(func(st *memState) error {
		for _, other := range st.items {
			if !other.DeletedAt.Valid && other.Code == item.Code && other.ID != item.ID {
				return repository.ErrDuplicate
			}
		}
		item.UpdatedAt = r.store.tick()
		st.items[item.ID] = bareItem(*item)
		return nil
	})
}

func (r memItems) Delete(_ context.Context, id uuid.UUID, by string) error {
	return r.with(func(st *memState) error {
		i, ok := st.items[id]
		if !ok || i.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		i.DeletedAt = r.deleted(by)
		i.DeletedBy = by
		st.items[id] = i
		return nil
	})
}

func (r memItems) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	var out *model.Item
	err := r.with(func(st *memState) error {
		i, ok := st.items[id]
		if !ok || i.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		loaded := loadedItem(st, i)
		out = &loaded
		return nil
	})
	return out, err
}

func (r memItems) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Item, error) {
	var out *model.Item
	err := r.with(func(st *memState) error {
		i, ok := st.items[id]
		if !ok || i.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &i
		return nil
	})
	return out, err
}

func (r memItems) FindByCode(_ context.Context, code string) (*model.Item, error) {
	var out *model.Item
	err := r.with(func(st *memState) error {
		for _, i := range st.items {
			if !i.DeletedAt.Valid && i.Code == code {
				i := i
				out = &i
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r memItems) Search(_ context.Context, term string) ([]model.Item, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []model.Item
	err := r.with(func(st *memState) error {
		for _, i := range st.items {
			if i.DeletedAt.Valid {
				continue
			}
			loaded := loadedItem(st, i)
			category := ""
			if loaded.Category != nil {
				category = loaded.Category.Name
			}
			haystack := strings.ToLower(strings.Join([]string{i.Name, i.Code, i.Size, category}, "\x00"))
			if term == "" || strings.Contains(haystack, term) {
				out = append(out, loaded)
			}
		}
		sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
		return nil
	})
	return out, err
}

func (r memItems) count(match func(model.Item) bool) (int64, error) {
	var n int64
	err := r.with(func(st *memState) error {
		for _, i := range st.items {
			if !i.DeletedAt.Valid && match(i) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memItems) CountByCategory(_ context.Context, id uuid.UUID) (int64, error) {
	return r.count(func(i model.Item) bool { return i.CategoryID == id })
}

func (r memItems) CountByUnit(_ context.Context, id uuid.UUID) (int64, error) {
	return r.count(func(i model.Item) bool { return i.UnitID == id })
}

func (r memItems) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	return r.with(func(st *memState) error {
		i, ok := st.items[id]
		if !ok || i.DeletedAt.Valid || i.Stock+delta < 0 {
			return repository.ErrStockConflict
		}
		i.Stock += delta
		st.items[id] = i
		return nil
	})
}

func (r memItems) GetStockStats(_ context.Context, threshold int) (*repository.StockStats, error) {
	stats := &repository.StockStats{TotalValuation: decimal.Zero}
	err := r.with(func(st *memState) error {
		for _, i := range st.items {
			if i.DeletedAt.Valid {
				continue
			}
			stats.TotalItems++
			if i.Stock < threshold {
				stats.LowStockCount++
			}
			stats.TotalValuation = stats.TotalValuation.Add(i.Price.Mul(decimal.NewFromInt(int64(i.Stock))))
		}
		return nil
	})
	return stats, err
}

// ---- item sizes ----

type memSizes struct{ memRepos }

func (r memSizes) FindByItem(_ context.Context, itemID uuid.UUID) ([]model.ItemSize, error) {
	var out []model.ItemSize
	err := r.with(func(st *memState) error {
		out = liveSizes(st, itemID)
		return nil
	})
	return out, err
}

func (r memSizes) FindByID(_ context.Context, id uuid.UUID) (*model.ItemSize, error) {
	var out *model.ItemSize
	err := r.with(func(st *memState) error {
		s, ok := st.sizes[id]
		if !ok || s.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (r memSizes) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ItemSize, error) {
	return r.FindByID(ctx, id)
}

func (r memSizes) FindByItemAndSize(_ context.Context, itemID uuid.UUID, size string) (*model.ItemSize, error) {
	var out *model.ItemSize
	err := r.with(func(st *memState) error {
		for _, s := range liveSizes(st, itemID) {
			if s.Size == size {
				s := s
				out = &s
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r memSizes) ReplaceForItem(_ context.Context, itemID uuid.UUID, sizes []model.ItemSize, actor string) error {
	return r.with(func(st *memState) error {
		for _, s := range liveSizes(st, itemID) {
			s.DeletedAt = r.deleted(actor)
			st.sizes[s.ID] = s
		}
		for i := range sizes {
			sizes[i].ItemID = itemID
			sizes[i].CreatedBy = actor
			r.stamp(&sizes[i].BaseModel)
			st.sizes[sizes[i].ID] = sizes[i]
		}
		return nil
	})
}

func (r memSizes) DeleteByItem(_ context.Context, itemID uuid.UUID, actor string) error {
	return r.with(func(st *memState) error {
		for _, s := range liveSizes(st, itemID) {
			s.DeletedAt = r.deleted(actor)
			st.sizes[s.ID] = s
		}
		return nil
	})
}

func (r memSizes) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	return r.with(func(st *memState) error {
		s, ok := st.sizes[id]
		if !ok || s.DeletedAt.Valid || s.Stock+delta < 0 {
			return repository.ErrStockConflict
		}
		s.Stock += delta
		st.sizes[id] = s
		return nil
	})
}

// ---- transactions ----

type memTransactions struct{ memRepos }

func loadedTransaction(st *memState, t model.Transaction) model.Transaction {
	if i, ok := st.items[t.ItemID]; ok {
		i = bareItem(i)
		t.Item = &i
	}
	if t.ItemSizeID != nil {
		if s, ok := st.sizes[*t.ItemSizeID]; ok {
			t.ItemSize = &s
		}
	}
	if u, ok := st.users[t.UserID]; ok {
		t.User = &u
	}
	return t
}

func (r memTransactions) Create(_ context.Context, t *model.Transaction) error {
	return r.with(func(st *memState) error {
		if err := r.store.failTransactionCreate; err != nil {
			r.store.failTransactionCreate = nil
			return err
		}
		r.stamp(&t.BaseModel)
		stored := *t
		stored.Item, stored.ItemSize, stored.User = nil, nil, nil
		st.transactions[t.ID] = stored
		return nil
	})
}

func (r memTransactions) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	var out *model.Transaction
	err := r.with(func(st *memState) error {
		t, ok := st.transactions[id]
		if !ok {
			return repository.ErrNotFound
		}
		loaded := loadedTransaction(st, t)
		out = &loaded
		return nil
	})
	return out, err
}

func (r memTransactions) List(_ context.Context, f repository.TransactionFilter) ([]model.Transaction, error) {
	var out []model.Transaction
	err := r.with(func(st *memState) error {
		for _, t := range st.transactions {
			if f.UserID != nil && t.UserID != *f.UserID {
				continue
			}
			if f.ItemID != nil && t.ItemID != *f.ItemID {
				continue
			}
			if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
				continue
			}
			if f.DateTo != nil && t.Date.After(*f.DateTo) {
				continue
			}
			out = append(out, loadedTransaction(st, t))
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

func (r memTransactions) GetStockMovement(_ context.Context, from, to time.Time) ([]repository.StockMovementData, error) {
	byDay := map[string]*repository.StockMovementData{}
	err := r.with(func(st *memState) error {
		for _, t := range st.transactions {
			if t.Date.Before(from) || t.Date.After(to) {
				continue
			}
			day := t.Date.Format("2006-01-02")
			d, ok := byDay[day]
			if !ok {
				d = &repository.StockMovementData{Date: day}
				byDay[day] = d
			}
			if t.Type == model.TxIn {
				d.Inbound += t.Quantity
			} else {
				d.Outbound += t.Quantity
			}
		}
		return nil
	})
	out := make([]repository.StockMovementData, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, err
}

// ---- requests ----

type memRequests struct{ memRepos }

func bareRequest(q model.ItemRequest) model.ItemRequest {
	q.Item, q.ItemSize, q.User, q.Processor = nil, nil, nil, nil
	return q
}

func (r memRequests) Create(_ context.Context, q *model.ItemRequest) error {
	return r.with(func(st *memState) error {
		r.stamp(&q.BaseModel)
		st.requests[q.ID] = bareRequest(*q)
		return nil
	})
}

func (r memRequests) Update(_ context.Context, q *model.ItemRequest) error {
	return r.with(func(st *memState) error {
		q.UpdatedAt = r.store.tick()
		st.requests[q.ID] = bareRequest(*q)
		return nil
	})
}

func loadedRequest(st *memState, q model.ItemRequest) model.ItemRequest {
	if i, ok := st.items[q.ItemID]; ok {
		i = bareItem(i)
		q.Item = &i
	}
	if q.ItemSizeID != nil {
		if s, ok := st.sizes[*q.ItemSizeID]; ok {
			q.ItemSize = &s
		}
	}
	if u, ok := st.users[q.UserID]; ok {
		q.User = &u
	}
	if q.ProcessedBy != nil {
		if u, ok := st.users[*q.ProcessedBy]; ok {
			q.Processor = &u
		}
	}
	return q
}

func (r memRequests) FindByID(_ context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	var out *model.ItemRequest
	err := r.with(func(st *memState) error {
		q, ok := st.requests[id]
		if !ok || q.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		loaded := loadedRequest(st, q)
		out = &loaded
		return nil
	})
	return out, err
}

func (r memRequests) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	var out *model.ItemRequest
	err := r.with(func(st *memState) error {
		q, ok := st.requests[id]
		if !ok || q.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &q
		return nil
	})
	return out, err
}

func (r memRequests) List(_ context.Context, f repository.RequestFilter) ([]model.ItemRequest, error) {
	var out []model.ItemRequest
	err := r.with(func(st *memState) error {
		for _, q := range st.requests {
			if q.DeletedAt.Valid {
				continue
			}
			if f.UserID != nil && q.UserID != *f.UserID {
				continue
			}
			if f.Status != "" && q.Status != f.Status {
				continue
			}
			if f.DateFrom != nil && q.CreatedAt.Before(*f.DateFrom) {
				continue
			}
			if f.DateTo != nil && !q.CreatedAt.Before(f.DateTo.AddDate(0, 0, 1)) {
				continue
			}
			out = append(out, loadedRequest(st, q))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r memRequests) CountByStatus(_ context.Context, status model.RequestStatus) (int64, error) {
	var n int64
	err := r.with(func(st *memState) error {
		for _, q := range st.requests {
			if !q.DeletedAt.Valid && q.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ---- users ----

type memUsers struct{ memRepos }

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.with(func(st *memState) error {
		for _, u := range st.users {
			if !u.DeletedAt.Valid && strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	var out *model.User
	err := r.with(func(st *memState) error {
		u, ok := st.users[id]
		if !ok || u.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r memUsers) Create(_ context.Context, u *model.User) error {
	return r.with(func(st *memState) error {
		for _, other := range st.users {
			if !other.DeletedAt.Valid && strings.EqualFold(other.Email, u.Email) {
				return repository.ErrDuplicate
			}
		}
		r.stamp(&u.BaseModel)
		st.users[u.ID] = *u
		return nil
	})
}

func (r memUsers) Update(_ context.Context, u *model.User) error {
	return r.with(func(st *memState) error {
		u.UpdatedAt = r.store.tick()
		st.users[u.ID] = *u
		return nil
	})
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID, by string) error {
	return r.with(func(st *memState) error {
		u, ok := st.users[id]
		if !ok || u.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		u.DeletedAt = r.deleted(by)
		u.DeletedBy = by
		st.users[id] = u
		return nil
	})
}

func (r memUsers) FindAll(_ context.Context) ([]model.User, error) {
	var out []model.User
	err := r.with(func(st *memState) error {
		for _, u := range st.users {
			if !u.DeletedAt.Valid {
				out = append(out, u)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (r memUsers) UpdateTokenVersion(_ context.Context, id uuid.UUID, version string) error {
	return r.with(func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.TokenVersion = version
		st.users[id] = u
		return nil
	})
}
