package service

import (
	"context"
	"errors"
	"log"
	"time"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"

	"github.com/shopspring/decimal"
)

const dashboardCacheTTL = 30 * time.Second

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// DashboardStats untuk overview dashboard
type DashboardStats struct {
	TotalItems      int64           `json:"total_items"`
	PendingRequests int64           `json:"pending_requests"`
	LowStockCount   int64           `json:"low_stock_count"`
	LowStockLimit   int             `json:"low_stock_threshold"`
	TotalValuation  decimal.Decimal `json:"total_valuation"`
}

type dashboardService struct {
	store             repository.Store
	cache             cache.Cache
	lowStockThreshold int
	now               Clock
}

func NewDashboardService(store repository.Store, c cache.Cache, lowStockThreshold int, now Clock) DashboardService {
	if c == nil {
		c = cache.NewMemory()
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	if now == nil {
		now = time.Now
	}
	return &dashboardService{store: store, cache: c, lowStockThreshold: lowStockThreshold, now: now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := dateOnly(s.now())
	// days calendar days ending today, both ends inclusive
	startDate := endDate.AddDate(0, 0, -(days - 1))

	return s.store.Transactions().GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	if err := cache.GetJSON(ctx, s.cache, cache.KeyDashboardStats, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Warning: dashboard cache read failed: %v", err)
	}

	stock, err := s.store.Items().GetStockStats(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.Requests().CountByStatus(ctx, model.RequestPending)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalItems:      stock.TotalItems,
		PendingRequests: pending,
		LowStockCount:   stock.LowStockCount,
		LowStockLimit:   s.lowStockThreshold,
		TotalValuation:  stock.TotalValuation,
	}
	if err := cache.SetJSON(ctx, s.cache, cache.KeyDashboardStats, stats, dashboardCacheTTL); err != nil {
		log.Printf("Warning: dashboard cache write failed: %v", err)
	}
	return stats, nil
}
