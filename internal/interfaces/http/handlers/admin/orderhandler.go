package admin

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/constants"
	"github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHandler serves the admin order console.
type OrderHandler struct {
	ordersUC adminOrdersUseCase
	logger   logger.Interface
}

func NewOrderHandler(ordersUC adminOrdersUseCase, logger logger.Interface) *OrderHandler {
	return &OrderHandler{
		ordersUC: ordersUC,
		logger:   logger,
	}
}

type MarkPaidRequest struct {
	TxHash      string `json:"tx_hash" binding:"required,max=128"`
	FromAddress string `json:"from_address" binding:"max=128"`
	AmountPaid  string `json:"amount_paid"`
	Note        string `json:"note" binding:"max=2000"`
}

type FailOrderRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

func listQuery(c *gin.Context) usecases.ListOrdersQuery {
	p := utils.ParsePagination(c)
	return usecases.ListOrdersQuery{
		Status:    c.Query("status"),
		Chain:     c.Query("chain"),
		From:      c.Query("from"),
		To:        c.Query("to"),
		MinAmount: c.Query("min_amount"),
		MaxAmount: c.Query("max_amount"),
		Page:      p.Page,
		PageSize:  p.PageSize,
	}
}

func parseOrderID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("invalid order id")
	}
	return uint(id), nil
}

// ListOrders
// @Summary List orders
// @Tags Admin Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, seen, credited, expired or failed"
// @Param chain query string false "TRC20 or BSC"
// @Param from query string false "First business day, YYYY-MM-DD"
// @Param to query string false "Last business day, YYYY-MM-DD"
// @Param min_amount query string false "Minimum amount due"
// @Param max_amount query string false "Maximum amount due"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.APIResponse{data=utils.ListResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /admin/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	q := listQuery(c)

	orders, total, err := h.ordersUC.List(c.Request.Context(), q)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, orders, total, q.Page, q.PageSize)
}

// ExportOrders streams every order matching the list filters as xlsx.
// @Summary Export orders
// @Tags Admin Orders
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 400 {object} utils.APIResponse
// @Router /admin/orders/export [get]
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.ordersUC.Export(c.Request.Context(), listQuery(c), &buf); err != nil {
		h.logger.Errorw("failed to export orders", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", biztime.NowUTC().In(biztime.Location()).Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetOrder
// @Summary Get order detail
// @Tags Admin Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} utils.APIResponse{data=dto.OrderDTO}
// @Failure 404 {object} utils.APIResponse
// @Router /admin/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parseOrderID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.ordersUC.Get(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// MarkPaid credits an order by hand
// @Summary Mark order paid
// @Description Credits the user as an on-chain match would and fires the payment webhook
// @Tags Admin Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body MarkPaidRequest true "Payment evidence"
// @Success 200 {object} utils.APIResponse{data=dto.OrderDTO}
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/orders/{id}/mark-paid [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	id, err := parseOrderID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.ordersUC.MarkPaid(c.Request.Context(), id, usecases.MarkPaidCommand{
		TxHash:      req.TxHash,
		FromAddress: req.FromAddress,
		AmountPaid:  req.AmountPaid,
		Note:        req.Note,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("order marked paid by admin",
		"order_id", id,
		"order_no", result.OrderNo,
		"admin", c.GetString(constants.ContextKeySubject),
	)
	utils.SuccessResponse(c, http.StatusOK, "Order credited", result)
}

// ExpireOrder
// @Summary Expire order
// @Tags Admin Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} utils.APIResponse{data=dto.OrderDTO}
// @Failure 409 {object} utils.APIResponse
// @Router /admin/orders/{id}/expire [post]
func (h *OrderHandler) ExpireOrder(c *gin.Context) {
	id, err := parseOrderID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.ordersUC.Expire(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order expired", result)
}

// FailOrder
// @Summary Fail order
// @Tags Admin Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body FailOrderRequest false "Reason"
// @Success 200 {object} utils.APIResponse{data=dto.OrderDTO}
// @Failure 409 {object} utils.APIResponse
// @Router /admin/orders/{id}/fail [post]
func (h *OrderHandler) FailOrder(c *gin.Context) {
	id, err := parseOrderID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	// the body is optional
	var req FailOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.ordersUC.Fail(c.Request.Context(), id, req.Note)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order failed", result)
}
