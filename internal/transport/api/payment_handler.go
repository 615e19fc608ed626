package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svs PaymentServicer
}

func NewPaymentHandler(svs PaymentServicer) *PaymentHandler {
	return &PaymentHandler{
		svs: svs,
	}
}

type PayParams struct {
	PlanID string `binding:"required,max=50" json:"planId"`
}

type OrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type PayResponse struct {
	Order         OrderResponse `json:"order"`
	TransactionID int64         `json:"transactionId"`
	Plan          string        `json:"plan"`
	Credits       int64         `json:"credits"`
}

// Pay POST RouteGroup + PayRoute. Создает заказ на покупку пакета кредитов.
func (h *PaymentHandler) Pay(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params PayParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, PaymentServiceTimeout)
	defer cancel()

	order, err := h.svs.CreateOrder(reqCtx, currentUserID, params.PlanID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PayResponse{
		Order: OrderResponse{
			ID:       order.OrderID,
			Amount:   order.Amount,
			Currency: order.Currency,
			Receipt:  order.Receipt,
			Status:   order.Status,
		},
		TransactionID: order.TransactionID,
		Plan:          string(order.Plan),
		Credits:       order.Credits,
	})
}

type VerifyPaymentParams struct {
	OrderID string `binding:"required,notblank,max=100" json:"orderId"`
}

// VerifyPayment POST RouteGroup + VerifyPaymentRoute. Подтверждает оплату заказа и начисляет кредиты.
// Подтвердить можно только собственный заказ.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params VerifyPaymentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, PaymentServiceTimeout)
	defer cancel()

	balance, err := h.svs.VerifyPayment(reqCtx, currentUserID, params.OrderID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreditsResponse{Credits: balance})
}
