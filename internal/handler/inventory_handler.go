package handler

import (
	"errors"
	"fmt"

	"go-barcode-stock/internal/model"
	"go-barcode-stock/internal/service"
	"go-barcode-stock/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// Request structs dengan validasi field-level. Payload ditolak di boundary
// ini sebelum menyentuh store.
type CreateProductRequest struct {
	Barcode     string `json:"barcode" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	MinStock    int    `json:"min_stock" validate:"gte=0"`
}

type StockRequest struct {
	Barcode  string `json:"barcode" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Note     string `json:"note"`
}

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationJSON(c, errs)
	}

	product, err := h.service.AddProduct(c.UserContext(), req.Barcode, req.Name, req.Description, req.MinStock)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	barcode := c.Params("barcode")
	product, err := h.service.GetProductByBarcode(c.UserContext(), barcode)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(product)
}

func (h *InventoryHandler) StockIn(c *fiber.Ctx) error {
	return h.applyStock(c, model.TxIn)
}

func (h *InventoryHandler) StockOut(c *fiber.Ctx) error {
	return h.applyStock(c, model.TxOut)
}

func (h *InventoryHandler) applyStock(c *fiber.Ctx, txType model.TransactionType) error {
	var req StockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationJSON(c, errs)
	}

	result, err := h.service.ApplyTransaction(c.UserContext(), req.Barcode, req.Quantity, txType, req.Note)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction recorded", "data": result})
}

func (h *InventoryHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultHistoryLimit)
	entries, err := h.service.GetHistory(c.UserContext(), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(entries)
}

func validationJSON(c *fiber.Ctx, errs []*validator.ErrorResponse) error {
	first := errs[0]
	msg := fmt.Sprintf("Validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// errorJSON menerjemahkan error taxonomy service ke status HTTP.
// Hanya ErrStorageUnavailable yang 5xx.
func errorJSON(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicateBarcode),
		errors.Is(err, service.ErrInsufficientStock):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTransactionType):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrStorageUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
