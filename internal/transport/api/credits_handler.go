package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type CreditsHandler struct {
	svs CreditServicer
}

func NewCreditsHandler(svs CreditServicer) *CreditsHandler {
	return &CreditsHandler{
		svs: svs,
	}
}

type CreditsUserResponse struct {
	Name string `json:"name"`
}

type CreditsResponse struct {
	Credits int64                `json:"credits"`
	User    *CreditsUserResponse `json:"user,omitempty"`
}

// Index GET RouteGroup + CreditsRoute. Текущий баланс кредитов и имя юзера.
func (h *CreditsHandler) Index(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	user, err := h.svs.GetAccount(reqCtx, currentUserID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreditsResponse{
		Credits: user.CreditBalance,
		User:    &CreditsUserResponse{Name: user.Name},
	})
}

type HistoryParams struct {
	Limit uint `binding:"omitempty,max=100" form:"limit"`
}

type HistoryResponseItem struct {
	ID            int64  `json:"id"`
	TransactionID *int64 `json:"transactionId,omitempty"`
	Direction     string `json:"direction"`
	Reason        string `json:"reason"`
	Amount        int64  `json:"amount"`
	CreatedAt     string `json:"createdAt"`
}

// History GET RouteGroup + CreditsHistoryRoute. Журнал движения кредитов, самые свежие записи первыми.
func (h *CreditsHandler) History(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params HistoryParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	entries, err := h.svs.History(reqCtx, currentUserID, params.Limit)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := make([]HistoryResponseItem, len(entries))
	for i, entry := range entries {
		response[i] = HistoryResponseItem{
			ID:            entry.ID,
			TransactionID: entry.TransactionID,
			Direction:     string(entry.Direction),
			Reason:        string(entry.Reason),
			Amount:        entry.Amount,
			CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, response)
}
