package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

type PaymentHandler struct {
	ingestUC     ingestPaymentUseCase
	forceCheckUC forceCheckUseCase
	logger       logger.Interface
}

func NewPaymentHandler(ingestUC ingestPaymentUseCase, forceCheckUC forceCheckUseCase, logger logger.Interface) *PaymentHandler {
	return &PaymentHandler{
		ingestUC:     ingestUC,
		forceCheckUC: forceCheckUC,
		logger:       logger,
	}
}

// IngestPaymentRequest uses the field names external watchers already send.
// Amount accepts a JSON number or a numeric string.
type IngestPaymentRequest struct {
	Chain       string      `json:"chain" binding:"required"`
	TxHash      string      `json:"txHash" binding:"required"`
	ToAddress   string      `json:"toAddress" binding:"required"`
	FromAddress string      `json:"fromAddress"`
	Amount      json.Number `json:"amount" binding:"required" swaggertype:"string"`
}

type ForceCheckRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// IngestPayment matches a transfer reported by an external watcher
// @Summary Ingest on-chain transfer
// @Description Credits the live order whose address and amount match the transfer
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IngestPaymentRequest true "Observed transfer"
// @Success 200 {object} utils.APIResponse{data=dto.IngestResultDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /payments/ingest [post]
func (h *PaymentHandler) IngestPayment(c *gin.Context) {
	var req IngestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid ingest payload", "client_ip", c.ClientIP(), "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.ingestUC.Execute(c.Request.Context(), usecases.IngestPaymentCommand{
		Chain:       req.Chain,
		TxHash:      req.TxHash,
		ToAddress:   req.ToAddress,
		FromAddress: req.FromAddress,
		Amount:      req.Amount.String(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ForceCheck polls the order's receiving address immediately
// @Summary Force payment check
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body ForceCheckRequest true "Order to check"
// @Success 200 {object} utils.APIResponse{data=dto.ForceCheckResultDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /payments/force-check [post]
func (h *PaymentHandler) ForceCheck(c *gin.Context) {
	var req ForceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.forceCheckUC.Execute(c.Request.Context(), req.OrderNo)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
