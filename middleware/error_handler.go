package middleware

import (
	"errors"
	"net/http"

	"github.com/collablink/collablink/common"
	"github.com/gin-gonic/gin"
)

// ErrorHandler drains errors attached to the context and renders the last
// one as the response body. Typed APIErrors keep their status and fields;
// anything else becomes a 500 without leaking internals.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var apiErr common.APIError
		if errors.As(err, &apiErr) {
			response := gin.H{"error": apiErr.Message}
			if apiErr.Fields != nil {
				response["fields"] = apiErr.Fields
			}
			c.JSON(apiErr.Status, response)
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
