package handler

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"freightops/internal/middleware"
	"freightops/internal/service"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RegisterValidators makes decimal fields checkable with gt/gte/lte tags and
// reports fields by their json names
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// respondError maps a service error to its HTTP status. Internal errors are
// logged and answered with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	svcErr, ok := service.AsError(err)
	if !ok {
		logger.Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	}
	if svcErr.Details != nil {
		c.JSON(status, response.ErrorWithDetails(status, svcErr.Message, svcErr.Details))
		return
	}
	c.JSON(status, response.Error(status, svcErr.Message))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// actorFrom builds the caller identity from the claims set by RequireRole
func actorFrom(c *gin.Context) (service.Actor, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return service.Actor{}, false
	}
	return service.Actor{
		ID:       id,
		Username: c.GetString(middleware.ContextUsername),
		Role:     c.GetString(middleware.ContextUserRole),
	}, true
}

// queryBool parses an optional boolean query parameter
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+name+" flag"))
		return nil, false
	}
	return &v, true
}
