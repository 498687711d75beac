package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/validator"

	"github.com/google/uuid"
)

type RequestService interface {
	SubmitRequest(ctx context.Context, actor Actor, in SubmitRequestInput) (*model.ItemRequest, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.ItemRequest, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, rejectionReason string) (*model.ItemRequest, error)
	ListRequests(ctx context.Context, actor Actor, q RequestQuery) ([]model.ItemRequest, error)
	GetRequest(ctx context.Context, actor Actor, id uuid.UUID) (*model.ItemRequest, error)
}

type SubmitRequestInput struct {
	ItemID   uuid.UUID `json:"item_id" validate:"uuid_required"`
	Size     string    `json:"size" validate:"max=50"`
	Quantity int       `json:"quantity" validate:"gt=0"`
	Reason   string    `json:"reason" validate:"required"`
}

type RequestQuery struct {
	Status model.RequestStatus
}

type requestService struct {
	store     repository.Store
	cache     cache.Cache
	publisher Publisher
	now       Clock
}

func NewRequestService(store repository.Store, c cache.Cache, publisher Publisher, now Clock) RequestService {
	if publisher == nil {
		publisher = NopPublisher
	}
	if now == nil {
		now = time.Now
	}
	return &requestService{store: store, cache: c, publisher: publisher, now: now}
}

func (s *requestService) SubmitRequest(ctx context.Context, actor Actor, in SubmitRequestInput) (*model.ItemRequest, error) {
	if err := actor.require(model.CapRequestCreate); err != nil {
		return nil, err
	}
	in.Size = strings.TrimSpace(in.Size)
	in.Reason = strings.TrimSpace(in.Reason)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	req := &model.ItemRequest{
		ItemID:   in.ItemID,
		UserID:   actor.ID,
		Size:     in.Size,
		Quantity: in.Quantity,
		Reason:   in.Reason,
		Status:   model.RequestPending,
	}
	req.CreatedBy = actor.audit()
	req.UpdatedBy = actor.audit()

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		item, err := r.Items().FindByID(ctx, in.ItemID)
		if err != nil {
			return repoErr(err, "Item")
		}

		// Advisory only: approval re-checks under lock.
		available := item.Stock
		label := item.Name
		if in.Size != "" {
			size, err := r.ItemSizes().FindByItemAndSize(ctx, item.ID, in.Size)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return newError(ErrSizeNotFound, "Size '%s' not found for item '%s'", in.Size, item.Name)
				}
				return err
			}
			sizeID := size.ID
			req.ItemSizeID = &sizeID
			available = size.Stock
			label = fmt.Sprintf("%s (Size: %s)", item.Name, size.Size)
		} else if len(item.Sizes) > 0 {
			return validationf("Item '%s' has size variants; a size is required", item.Name)
		}

		if in.Quantity > available {
			return insufficientf("Insufficient stock for %s: available %d, requested %d", label, available, in.Quantity)
		}
		return repoErr(r.Requests().Create(ctx, req), "Item request")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyDashboardStats)
	s.publisher.Publish(event(eventRequestUpdate, "request_submitted",
		fmt.Sprintf("%s requested %d unit(s)", actor.Name, req.Quantity), actor,
		map[string]interface{}{"request": requestPayload(req)}))
	return s.reload(ctx, req.ID)
}

func (s *requestService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.ItemRequest, error) {
	if err := actor.require(model.CapRequestProcess); err != nil {
		return nil, err
	}

	var (
		req  *model.ItemRequest
		item *model.Item
	)
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		// Lock order: request, item, variant.
		req, err = r.Requests().FindByIDForUpdate(ctx, id)
		if err != nil {
			return repoErr(err, "Item request")
		}
		if !req.IsPending() {
			return invalidStatef("Request has already been %s", req.Status)
		}

		item, err = r.Items().FindByIDForUpdate(ctx, req.ItemID)
		if errors.Is(err, repository.ErrNotFound) {
			return insufficientf("Item is no longer available")
		} else if err != nil {
			return err
		}

		var size *model.ItemSize
		if req.ItemSizeID != nil {
			size, err = r.ItemSizes().FindByIDForUpdate(ctx, *req.ItemSizeID)
			if errors.Is(err, repository.ErrNotFound) {
				return insufficientf("Size '%s' of '%s' is no longer available", req.Size, item.Name)
			} else if err != nil {
				return err
			}
		} else {
			variants, err := r.ItemSizes().FindByItem(ctx, item.ID)
			if err != nil {
				return err
			}
			if len(variants) > 0 {
				return insufficientf("Item '%s' now has size variants; the request has no size", item.Name)
			}
		}

		note := fmt.Sprintf("Approved request #%s", req.ID)
		if size != nil {
			note += fmt.Sprintf(" (Size: %s)", size.Size)
		}

		now := s.now()
		requestID := req.ID
		if _, err := applyMovement(ctx, r, movement{
			item:      item,
			size:      size,
			txType:    model.TxOut,
			quantity:  req.Quantity,
			userID:    req.UserID,
			date:      dateOnly(now),
			note:      note,
			requestID: &requestID,
			auditBy:   actor.audit(),
		}); err != nil {
			return err
		}

		processedBy := actor.ID
		req.Status = model.RequestApproved
		req.ProcessedBy = &processedBy
		req.ProcessedAt = &now
		req.UpdatedBy = actor.audit()
		return repoErr(r.Requests().Update(ctx, req), "Item request")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyDashboardStats)
	s.publisher.Publish(event(eventRequestUpdate, "request_approved",
		fmt.Sprintf("%s approved a request for %d unit(s) of '%s'", actor.Name, req.Quantity, item.Name), actor,
		map[string]interface{}{"request": requestPayload(req)}))
	s.publisher.Publish(event(eventStockUpdate, "request_approved",
		fmt.Sprintf("%s removed %d units of '%s' (OUT)", actor.Name, req.Quantity, item.Name), actor,
		map[string]interface{}{"item": map[string]interface{}{"id": item.ID, "name": item.Name, "new_stock": item.Stock}}))
	return s.reload(ctx, req.ID)
}

func (s *requestService) Reject(ctx context.Context, actor Actor, id uuid.UUID, rejectionReason string) (*model.ItemRequest, error) {
	if err := actor.require(model.CapRequestProcess); err != nil {
		return nil, err
	}

	var req *model.ItemRequest
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		req, err = r.Requests().FindByIDForUpdate(ctx, id)
		if err != nil {
			return repoErr(err, "Item request")
		}
		if !req.IsPending() {
			return invalidStatef("Request has already been %s", req.Status)
		}
		reason := strings.TrimSpace(rejectionReason)
		if reason == "" {
			return validationf("Rejection reason is required")
		}

		now := s.now()
		processedBy := actor.ID
		req.Status = model.RequestRejected
		req.RejectionReason = reason
		req.ProcessedBy = &processedBy
		req.ProcessedAt = &now
		req.UpdatedBy = actor.audit()
		return repoErr(r.Requests().Update(ctx, req), "Item request")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyDashboardStats)
	s.publisher.Publish(event(eventRequestUpdate, "request_rejected",
		fmt.Sprintf("%s rejected a request", actor.Name), actor,
		map[string]interface{}{"request": requestPayload(req)}))
	return s.reload(ctx, req.ID)
}

func (s *requestService) ListRequests(ctx context.Context, actor Actor, q RequestQuery) ([]model.ItemRequest, error) {
	if err := actor.require(model.CapRequestView); err != nil {
		return nil, err
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, validationf("Unknown status '%s'", q.Status)
	}
	filter := repository.RequestFilter{Status: q.Status}
	if !actor.Can(model.CapViewAllRecords) {
		id := actor.ID
		filter.UserID = &id
	}
	return s.store.Requests().List(ctx, filter)
}

func (s *requestService) GetRequest(ctx context.Context, actor Actor, id uuid.UUID) (*model.ItemRequest, error) {
	if err := actor.require(model.CapRequestView); err != nil {
		return nil, err
	}
	req, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.sees(req.UserID) {
		return nil, forbiddenf("You can only view your own requests")
	}
	return req, nil
}

func (s *requestService) reload(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	req, err := s.store.Requests().FindByID(ctx, id)
	return req, repoErr(err, "Item request")
}

func requestPayload(req *model.ItemRequest) map[string]interface{} {
	return map[string]interface{}{
		"id":       req.ID,
		"item_id":  req.ItemID,
		"user_id":  req.UserID,
		"size":     req.Size,
		"quantity": req.Quantity,
		"status":   req.Status,
	}
}
