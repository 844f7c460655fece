package middleware

import (
	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/errors"
	"embedding-harmonizer/internal/app/logging"
)

// ErrorHandler middleware handles errors consistently across the API
func ErrorHandler(logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := GetRequestID(c)

		switch err := recovered.(type) {
		case error:
			// Log the original error for debugging
			logger.Errorw("Internal server error",
				"error", err.Error(),
				"request_id", requestID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		default:
			logger.Errorw("Unknown panic occurred",
				"recovered", recovered,
				"request_id", requestID,
			)
		}

		// Never leak internals to the client
		abortWith(c, errors.NewInternalError("Internal server error"))
	})
}

// HandleError is a helper function for handlers to return errors. Errors
// that map to no API kind panic into ErrorHandler, which logs them.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := errors.FromError(err)
	if apiErr.Kind == errors.KindInternal {
		if _, isAPI := err.(*errors.APIError); !isAPI {
			panic(err)
		}
	}
	_ = c.Error(err)
	abortWith(c, apiErr)
}

func abortWith(c *gin.Context, apiErr *errors.APIError) {
	apiErr.RequestID = GetRequestID(c)
	c.Header("Content-Type", "application/json")
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
