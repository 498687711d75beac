package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (p *recordingPublisher) Publish(e interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := e.(map[string]interface{}); ok {
		p.events = append(p.events, m)
	}
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e["action"].(string))
	}
	return out
}

type fixture struct {
	ctx   context.Context
	store *memStore
	cache cache.Cache
	pub   *recordingPublisher
	now   time.Time

	catalog   CatalogService
	items     ItemService
	ledger    LedgerService
	requests  RequestService
	dashboard DashboardService
	reports   ReportService

	admin      Actor
	staff      Actor
	otherStaff Actor
	category   *model.Category
	unit       *model.Unit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		store: newMemStore(),
		cache: cache.NewMemory(),
		pub:   &recordingPublisher{},
		now:   time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.catalog = NewCatalogService(f.store, f.cache)
	f.items = NewItemService(f.store, f.cache, f.pub)
	f.ledger = NewLedgerService(f.store, f.cache, f.pub, clock)
	f.requests = NewRequestService(f.store, f.cache, f.pub, clock)
	f.dashboard = NewDashboardService(f.store, f.cache, 10, clock)
	f.reports = NewReportService(f.store)

	f.admin = f.addUser(t, "Admin Gudang", "admin@example.com", model.RoleAdmin)
	f.staff = f.addUser(t, "Budi", "budi@example.com", model.RoleStaff)
	f.otherStaff = f.addUser(t, "Sari", "sari@example.com", model.RoleStaff)

	var err error
	f.category, err = f.catalog.CreateCategory(f.ctx, f.admin, CategoryInput{Name: "Pakaian"})
	require.NoError(t, err)
	f.unit, err = f.catalog.CreateUnit(f.ctx, f.admin, UnitInput{Name: "Pieces", Symbol: "pcs"})
	require.NoError(t, err)

	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role model.Role) Actor {
	t.Helper()
	u := &model.User{Name: name, Email: email, Role: role}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return ActorFromUser(u)
}

func (f *fixture) itemInput(code, name string, sizes ...SizeInput) ItemInput {
	return ItemInput{
		Code:       code,
		Name:       name,
		CategoryID: f.category.ID,
		UnitID:     f.unit.ID,
		Price:      decimal.NewFromInt(50000),
		Sizes:      sizes,
	}
}

// createKaos builds the "Kaos" item with sizes M=10 and L=5.
func (f *fixture) createKaos(t *testing.T) *model.Item {
	t.Helper()
	item, err := f.items.CreateItem(f.ctx, f.admin, f.itemInput("KAOS-01", "Kaos",
		SizeInput{Size: "M", Stock: 10}, SizeInput{Size: "L", Stock: 5}))
	require.NoError(t, err)
	return item
}

func (f *fixture) item(t *testing.T, id uuid.UUID) *model.Item {
	t.Helper()
	item, err := f.store.Items().FindByID(f.ctx, id)
	require.NoError(t, err)
	return item
}

func sizeOf(t *testing.T, item *model.Item, label string) model.ItemSize {
	t.Helper()
	for _, s := range item.Sizes {
		if s.Size == label {
			return s
		}
	}
	t.Fatalf("item %s has no size %q", item.Name, label)
	return model.ItemSize{}
}

// assertStockConsistent checks that the item counter equals the sum of its
// variants whenever variants exist, and that no counter is negative.
func (f *fixture) assertStockConsistent(t *testing.T, id uuid.UUID) {
	t.Helper()
	item := f.item(t, id)
	assert.GreaterOrEqual(t, item.Stock, 0)
	for _, s := range item.Sizes {
		assert.GreaterOrEqual(t, s.Stock, 0)
	}
	if len(item.Sizes) > 0 {
		assert.Equal(t, model.SumStock(item.Sizes), item.Stock, "item stock must equal the sum of its variants")
	}
}

func (f *fixture) transactionCount(t *testing.T) int {
	t.Helper()
	txs, err := f.store.Transactions().List(f.ctx, emptyTxFilter)
	require.NoError(t, err)
	return len(txs)
}
