package handler

import (
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GET /api/v1/reports/stock
func (h *ReportHandler) Stock(c *fiber.Ctx) error {
	items, err := h.service.StockReport(c.UserContext(), currentActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": items, "count": len(items)})
}

// GET /api/v1/reports/transactions?date_from=&date_to=
func (h *ReportHandler) Transactions(c *fiber.Ctx) error {
	from, ok := parseDateQuery(c, "date_from")
	if !ok {
		return badDate(c, "date_from")
	}
	to, ok := parseDateQuery(c, "date_to")
	if !ok {
		return badDate(c, "date_to")
	}

	txs, err := h.service.TransactionReport(c.UserContext(), currentActor(c), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": txs, "count": len(txs)})
}

// GET /api/v1/reports/requests?status=&date_from=&date_to=
func (h *ReportHandler) Requests(c *fiber.Ctx) error {
	from, ok := parseDateQuery(c, "date_from")
	if !ok {
		return badDate(c, "date_from")
	}
	to, ok := parseDateQuery(c, "date_to")
	if !ok {
		return badDate(c, "date_to")
	}

	reqs, err := h.service.RequestReport(c.UserContext(), currentActor(c), model.RequestStatus(c.Query("status")), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": reqs, "count": len(reqs)})
}
