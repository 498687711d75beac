package service

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
)

// ReportService serves read-only snapshots for export.
type ReportService interface {
	StockReport(ctx context.Context, actor Actor) ([]model.Item, error)
	TransactionReport(ctx context.Context, actor Actor, from, to *time.Time) ([]model.Transaction, error)
	RequestReport(ctx context.Context, actor Actor, status model.RequestStatus, from, to *time.Time) ([]model.ItemRequest, error)
}

type reportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) ReportService {
	return &reportService{store: store}
}

func (s *reportService) StockReport(ctx context.Context, actor Actor) ([]model.Item, error) {
	if err := actor.require(model.CapReportView); err != nil {
		return nil, err
	}
	return s.store.Items().Search(ctx, "")
}

func (s *reportService) TransactionReport(ctx context.Context, actor Actor, from, to *time.Time) ([]model.Transaction, error) {
	if err := actor.require(model.CapReportView); err != nil {
		return nil, err
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.store.Transactions().List(ctx, repository.TransactionFilter{DateFrom: from, DateTo: to})
}

func (s *reportService) RequestReport(ctx context.Context, actor Actor, status model.RequestStatus, from, to *time.Time) ([]model.ItemRequest, error) {
	if err := actor.require(model.CapReportView); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, validationf("Unknown status '%s'", status)
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.store.Requests().List(ctx, repository.RequestFilter{Status: status, DateFrom: from, DateTo: to})
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return validationf("End date must not be before start date")
	}
	return nil
}
