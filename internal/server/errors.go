package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/talentlink/pkg/apperr"
	"gorm.io/gorm"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var (
	ErrInvalidRequest = apperr.Validation("invalid_request", "invalid request")
	ErrNotFound       = apperr.NotFound("not_found", "not found")
	ErrRateLimited    = apperr.TooManyRequests("rate_limited", "rate limit exceeded")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

func invalidFieldError(field string) error {
	return apperr.Validation("invalid_"+field, "invalid "+field)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, errorResponse{Error: ErrNotFound.Message, Code: ErrNotFound.Code}
	}

	appErr, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"}
	}
	return appErr.Kind.Status(), errorResponse{Error: appErr.Message, Code: appErr.Code}
}

func classifyErrorForLog(err error) (string, string) {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Kind.Type(), appErr.Code
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.KindNotFound.Type(), ErrNotFound.Code
	}
	return apperr.KindInternal.Type(), "internal_error"
}
