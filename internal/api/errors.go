package api

import (
	"errors"
	"net/http"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/orders"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reservations"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func statusFor(err error) int {
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrNoActiveOrder), errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, reservations.ErrReservationNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	resp := ErrorResponse{Error: err.Error()}
	var verr *orders.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	c.JSON(statusFor(err), resp)
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
}
