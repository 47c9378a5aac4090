package handler

import (
	"net/http"

	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/service"
	"github.com/gin-gonic/gin"
)

// OrderHandler exposes the key-free trading surface. Orders address the
// wallet by Safe address and ride on clients cached during the lifecycle
// stages.
type OrderHandler struct {
	orders    *service.OrderService
	positions *service.PositionService
}

func NewOrderHandler(orders *service.OrderService, positions *service.PositionService) *OrderHandler {
	return &OrderHandler{orders: orders, positions: positions}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidation("invalid request body"))
		return
	}

	resp, err := h.orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) RedeemPosition(c *gin.Context) {
	var req model.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidation("invalid request body"))
		return
	}

	resp, err := h.orders.Redeem(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) OrderBook(c *gin.Context) {
	book, err := h.orders.OrderBook(c.Request.Context(), c.Param("marketId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orderBook": book})
}

func (h *OrderHandler) Positions(c *gin.Context) {
	resp, err := h.positions.Positions(c.Request.Context(), c.Param("safeAddress"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
