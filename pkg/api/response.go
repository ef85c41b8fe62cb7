// Package api exposes the roster services over HTTP with gin.
package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// Response is the envelope returned by every endpoint
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// IllegalTransitionDetail is the error body of a rejected transition
type IllegalTransitionDetail struct {
	CurrentStatus    model.Status   `json:"currentStatus"`
	NewStatus        model.Status   `json:"newStatus"`
	ValidTransitions []model.Status `json:"validTransitions"`
}

// ValidationDetail lists the offending fields of a 400 response
type ValidationDetail struct {
	Fields []model.FieldError `json:"fields"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// respondError maps domain errors to status codes. Anything unclassified is
// logged and answered with a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr      *model.ValidationError
		notFound  *model.NotFoundError
		illegal   *model.IllegalTransitionError
		duplicate *model.DuplicateError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{
			Message: verr.Message,
			Error:   ValidationDetail{Fields: nonNilFields(verr.Fields)},
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, Response{Message: notFound.Error()})
	case errors.As(err, &illegal):
		allowed := illegal.Allowed
		if allowed == nil {
			allowed = []model.Status{}
		}
		c.JSON(http.StatusBadRequest, Response{
			Message: illegal.Error(),
			Error: IllegalTransitionDetail{
				CurrentStatus:    illegal.From,
				NewStatus:        illegal.To,
				ValidTransitions: allowed,
			},
		})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, Response{Message: duplicate.Error()})
	default:
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Message: "Internal server error"})
	}
}

// bindJSON decodes the body into req, answering 400 itself on failure
func bindJSON(c *gin.Context, logger *zap.Logger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, logger, bindingError(err))
		return false
	}
	return true
}

var registerTagNames sync.Once

// useJSONFieldNames makes binding errors name fields as the client sent them
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	})
}

func bindingError(err error) error {
	verr := &model.ValidationError{Message: "invalid request body"}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				verr.Add(fe.Field(), "is required")
				continue
			}
			verr.Add(fe.Field(), "failed "+fe.Tag()+" validation")
		}
		return verr
	}

	verr.Add("body", err.Error())
	return verr
}

func nonNilFields(fields []model.FieldError) []model.FieldError {
	if fields == nil {
		return []model.FieldError{}
	}
	return fields
}
