package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/domain/sale"
	"batteryshop/internal/infrastructure/http/v1/dto"
)

// SaleService is the sale use case as seen by HTTP.
type SaleService interface {
	Submit(ctx context.Context, req sale.Request) (*sale.Result, error)
	GetInvoice(ctx context.Context, invoiceNumber string) (*sale.Invoice, error)
}

// SaleHandler handles sale endpoints.
type SaleHandler struct {
	*BaseHandler
	service SaleService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service SaleService) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create submits a sale.
// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var body dto.CreateSaleRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := body.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSaleResult(result))
}

// Get returns a stored invoice.
// GET /sales/:invoiceNumber
func (h *SaleHandler) Get(c *gin.Context) {
	number := strings.TrimSpace(c.Param("invoiceNumber"))
	if number == "" {
		h.Error(c, apperror.NewValidation("invoice number is required"))
		return
	}

	inv, err := h.service.GetInvoice(c.Request.Context(), number)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}
