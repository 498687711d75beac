package handler

import (
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TransactionHandler struct {
	service service.LedgerService
}

func NewTransactionHandler(s service.LedgerService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// GET /api/v1/transactions?item_id=&date_from=&date_to=
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	var q service.TransactionQuery
	if raw := c.Query("item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		q.ItemID = &id
	}
	var ok bool
	if q.DateFrom, ok = parseDateQuery(c, "date_from"); !ok {
		return badDate(c, "date_from")
	}
	if q.DateTo, ok = parseDateQuery(c, "date_to"); !ok {
		return badDate(c, "date_to")
	}

	transactions, err := h.service.ListTransactions(c.UserContext(), currentActor(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "transaction")
	}
	tx, err := h.service.GetTransaction(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}

// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.TransactionInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	tx, err := h.service.RecordTransaction(c.UserContext(), currentActor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}
