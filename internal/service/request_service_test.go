package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKaosScenario(t *testing.T) {
	f := newFixture(t)

	kaos := f.createKaos(t)
	assert.Equal(t, 15, kaos.Stock)
	m := sizeOf(t, kaos, "M")

	_, err := f.ledger.RecordTransaction(f.ctx, f.admin, TransactionInput{ItemSizeID: &m.ID, Type: model.TxOut, Quantity: 4})
	require.NoError(t, err)
	after := f.item(t, kaos.ID)
	assert.Equal(t, 6, sizeOf(t, after, "M").Stock)
	assert.Equal(t, 11, after.Stock)

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "L", Quantity: 5, Reason: "seragam panitia"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, "L", req.Size)

	approved, err := f.requests.Approve(f.ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, approved.Status)
	require.NotNil(t, approved.ProcessedBy)
	assert.Equal(t, f.admin.ID, *approved.ProcessedBy)
	require.NotNil(t, approved.ProcessedAt)
	assert.Equal(t, f.now, *approved.ProcessedAt)

	after = f.item(t, kaos.ID)
	assert.Equal(t, 0, sizeOf(t, after, "L").Stock)
	assert.Equal(t, 6, after.Stock)
	f.assertStockConsistent(t, kaos.ID)

	txs, err := f.ledger.ListTransactions(f.ctx, f.staff, TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	out := txs[0]
	assert.Equal(t, model.TxOut, out.Type)
	assert.Equal(t, 5, out.Quantity)
	require.NotNil(t, out.ItemSize)
	assert.Equal(t, "L", out.ItemSize.Size)
	assert.Equal(t, fmt.Sprintf("Approved request #%s (Size: L)", req.ID), out.Note)

	assert.Contains(t, f.pub.actions(), "request_submitted")
	assert.Contains(t, f.pub.actions(), "request_approved")
}

func TestSubmitRequestAdvisoryCheck(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)
	l := sizeOf(t, kaos, "L")

	_, err := f.ledger.RecordTransaction(f.ctx, f.admin, TransactionInput{ItemSizeID: &l.ID, Type: model.TxOut, Quantity: 5})
	require.NoError(t, err)

	_, err = f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "L", Quantity: 100, Reason: "stok"})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	pending, err := f.requests.ListRequests(f.ctx, f.admin, RequestQuery{})
	require.NoError(t, err)
	assert.Empty(t, pending, "no request may be created")
}

func TestSubmitRequestErrors(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	_, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "XXL", Quantity: 1, Reason: "x"})
	assert.ErrorIs(t, err, ErrSizeNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Quantity: 1, Reason: "x"})
	assert.ErrorIs(t, err, ErrValidation, "a size is required when the item has variants")

	_, err = f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 0, Reason: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 1, Reason: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: uuid.New(), Quantity: 1, Reason: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSizelessRequestFlow(t *testing.T) {
	f := newFixture(t)
	pen, err := f.items.CreateItem(f.ctx, f.admin, f.itemInput("PEN-01", "Pulpen"))
	require.NoError(t, err)
	_, err = f.ledger.RecordTransaction(f.ctx, f.admin, TransactionInput{ItemID: &pen.ID, Type: model.TxIn, Quantity: 10})
	require.NoError(t, err)

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: pen.ID, Quantity: 4, Reason: "rapat"})
	require.NoError(t, err)
	assert.Nil(t, req.ItemSizeID)

	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, f.item(t, pen.ID).Stock)

	txs, err := f.ledger.ListTransactions(f.ctx, f.admin, TransactionQuery{ItemID: &pen.ID})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, fmt.Sprintf("Approved request #%s", req.ID), txs[0].Note)
}

func TestApproveRechecksStock(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)
	l := sizeOf(t, kaos, "L")

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "L", Quantity: 5, Reason: "x"})
	require.NoError(t, err)

	// stock consumed between submission and approval
	_, err = f.ledger.RecordTransaction(f.ctx, f.admin, TransactionInput{ItemSizeID: &l.ID, Type: model.TxOut, Quantity: 3})
	require.NoError(t, err)

	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	still, err := f.requests.GetRequest(f.ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, still.Status)
	assert.Nil(t, still.ProcessedBy)

	after := f.item(t, kaos.ID)
	assert.Equal(t, 2, sizeOf(t, after, "L").Stock)
	assert.Equal(t, 12, after.Stock)
	assert.Equal(t, 1, f.transactionCount(t))
}

func TestApproveRemovedVariantCountsAsNoStock(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "L", Quantity: 1, Reason: "x"})
	require.NoError(t, err)

	// the edit re-creates M and drops L
	_, err = f.items.UpdateItem(f.ctx, f.admin, kaos.ID, f.itemInput("KAOS-01", "Kaos", SizeInput{Size: "M", Stock: 10}))
	require.NoError(t, err)

	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	f.assertStockConsistent(t, kaos.ID)
}

func TestApproveDeletedItem(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 1, Reason: "x"})
	require.NoError(t, err)
	require.NoError(t, f.items.DeleteItem(f.ctx, f.admin, kaos.ID))

	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// the request still resolves its item for history
	got, err := f.requests.GetRequest(f.ctx, f.staff, req.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Item)
	assert.Equal(t, "Kaos", got.Item.Name)
}

func TestApproveIsTerminal(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 2, Reason: "x"})
	require.NoError(t, err)
	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	require.NoError(t, err)

	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.requests.Reject(f.ctx, f.admin, req.ID, "terlambat")
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Equal(t, 1, f.transactionCount(t), "no second ledger row")
	assert.Equal(t, 8, sizeOf(t, f.item(t, kaos.ID), "M").Stock)
}

func TestRejectFlow(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 2, Reason: "x"})
	require.NoError(t, err)

	_, err = f.requests.Reject(f.ctx, f.admin, req.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)
	still, err := f.requests.GetRequest(f.ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, still.Status)

	rejected, err := f.requests.Reject(f.ctx, f.admin, req.ID, "stok untuk acara lain")
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, rejected.Status)
	assert.Equal(t, "stok untuk acara lain", rejected.RejectionReason)
	require.NotNil(t, rejected.ProcessedAt)

	// state is checked before the reason
	_, err = f.requests.Reject(f.ctx, f.admin, req.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.requests.Approve(f.ctx, f.admin, req.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Equal(t, 15, f.item(t, kaos.ID).Stock, "reject has no stock effect")
	assert.Equal(t, 0, f.transactionCount(t))
	assert.Contains(t, f.pub.actions(), "request_rejected")
}

func TestProcessingRequiresCapability(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)
	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 1, Reason: "x"})
	require.NoError(t, err)

	_, err = f.requests.Approve(f.ctx, f.staff, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.requests.Reject(f.ctx, f.staff, req.ID, "no")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.requests.Approve(f.ctx, f.admin, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestVisibility(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	mine, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 1, Reason: "x"})
	require.NoError(t, err)
	_, err = f.requests.SubmitRequest(f.ctx, f.otherStaff, SubmitRequestInput{ItemID: kaos.ID, Size: "L", Quantity: 1, Reason: "y"})
	require.NoError(t, err)

	own, err := f.requests.ListRequests(f.ctx, f.staff, RequestQuery{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	all, err := f.requests.ListRequests(f.ctx, f.admin, RequestQuery{Status: model.RequestPending})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.requests.GetRequest(f.ctx, f.otherStaff, mine.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.requests.ListRequests(f.ctx, f.admin, RequestQuery{Status: "cancelled"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConcurrentApprovalsDoNotOversell(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)

	// both pass the advisory check against M=10
	first, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 6, Reason: "a"})
	require.NoError(t, err)
	second, err := f.requests.SubmitRequest(f.ctx, f.otherStaff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 6, Reason: "b"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.requests.Approve(f.ctx, f.admin, id)
		}(i, id)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	after := f.item(t, kaos.ID)
	assert.Equal(t, 4, sizeOf(t, after, "M").Stock)
	assert.Equal(t, 9, after.Stock)
	f.assertStockConsistent(t, kaos.ID)
}

func TestConcurrentApprovalsOfSameRequest(t *testing.T) {
	f := newFixture(t)
	kaos := f.createKaos(t)
	req, err := f.requests.SubmitRequest(f.ctx, f.staff, SubmitRequestInput{ItemID: kaos.ID, Size: "M", Quantity: 1, Reason: "x"})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.requests.Approve(f.ctx, f.admin, req.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.transactionCount(t))
	assert.Equal(t, 9, sizeOf(t, f.item(t, kaos.ID), "M").Stock)
}
