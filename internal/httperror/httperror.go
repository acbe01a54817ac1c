// Package httperror renders errors as JSON API responses.
package httperror

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/remote"
)

type HTTPError struct {
	Error string `json:"error" example:"The specified resource ID is not a valid UUID"`
}

// New writes an HTTPError response on the fly.
func New(c *gin.Context, status int, msgAndArgs ...any) {
	msg := ""
	if len(msgAndArgs) == 1 {
		if msgAsStr, ok := msgAndArgs[0].(string); ok {
			msg = msgAsStr
		}
	}
	if len(msgAndArgs) > 1 {
		msg = fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
	}

	c.JSON(status, HTTPError{
		Error: msg,
	})
}

func InvalidUUID(c *gin.Context) {
	New(c, http.StatusBadRequest, "The specified resource ID is not a valid UUID")
}

func InvalidQueryString(c *gin.Context) {
	New(c, http.StatusBadRequest, "The query string contains unparseable data. Please check the values")
}

// validationErrors are caller mistakes, not server failures.
var validationErrors = []error{
	models.ErrExpenseNameRequired,
	models.ErrExpenseAmountNotPositive,
	models.ErrExpenseProjectRequired,
	models.ErrProjectNameRequired,
	models.ErrBudgetTotalNegative,
	models.ErrBudgetPeriodNotValid,
	models.ErrGoalTargetNotPositive,
	models.ErrGoalCurrentNegative,
}

// Handler maps an error from the cache or store layer to a response.
func Handler(c *gin.Context, err error) {
	if errors.Is(err, remote.ErrNotFound) {
		New(c, http.StatusNotFound, "There is no resource for the ID you specified")
		return
	}

	for _, validation := range validationErrors {
		if errors.Is(err, validation) {
			New(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	if errors.Is(err, io.EOF) {
		New(c, http.StatusBadRequest, "The request body must not be empty")
		return
	}

	log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
	New(c, http.StatusInternalServerError, fmt.Sprintf("An error occurred on the server during your request, please contact your server administrator. The request id is '%v'", requestid.Get(c)))
}
