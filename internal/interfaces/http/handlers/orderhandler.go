package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	"github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

var _ = dto.OrderDTO{}

type OrderHandler struct {
	createOrderUC createOrderUseCase
	getOrderUC    getOrderStatusUseCase
	logger        logger.Interface
}

func NewOrderHandler(
	createOrderUC createOrderUseCase,
	getOrderUC getOrderStatusUseCase,
	logger logger.Interface,
) *OrderHandler {
	return &OrderHandler{
		createOrderUC: createOrderUC,
		getOrderUC:    getOrderUC,
		logger:        logger,
	}
}

type CreateOrderRequest struct {
	UserID uint   `json:"user_id" binding:"required,gt=0"`
	PlanID uint   `json:"plan_id" binding:"required,gt=0"`
	Chain  string `json:"chain" binding:"required,usdt_chain"`
}

// CreateOrder allocates a payment address and amount for a plan purchase
// @Summary Create order
// @Description Reserve a receiving address and a unique USDT amount for the plan
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order request"
// @Success 201 {object} utils.APIResponse{data=dto.OrderDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create order", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.createOrderUC.Execute(c.Request.Context(), usecases.CreateOrderCommand{
		UserID: req.UserID,
		PlanID: req.PlanID,
		Chain:  req.Chain,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Order created")
}

// GetOrder returns the order status, expiring it first when its window has passed
// @Summary Get order status
// @Tags Orders
// @Produce json
// @Param order_no path string true "Order number"
// @Success 200 {object} utils.APIResponse{data=dto.OrderDTO}
// @Failure 404 {object} utils.APIResponse
// @Router /orders/{order_no} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderNo := c.Param("order_no")
	if orderNo == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("order_no is required"))
		return
	}

	result, err := h.getOrderUC.Execute(c.Request.Context(), orderNo)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListUserOrders
// @Summary List a user's orders
// @Tags Orders
// @Produce json
// @Param user_id path int true "User ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.APIResponse{data=utils.ListResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /users/{user_id}/orders [get]
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid user_id"))
		return
	}

	p := utils.ParsePagination(c)
	orders, total, err := h.getOrderUC.ListUserOrders(c.Request.Context(), uint(userID), p.Page, p.PageSize)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, orders, total, p.Page, p.PageSize)
}
