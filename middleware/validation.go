package middleware

import (
	"net/http"

	"github.com/collablink/collablink/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Bind decodes the JSON body into dest and runs struct validation.
// On failure it records an APIError on the context and returns false.
func Bind[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return false
	}

	if err := validate.Struct(dest); err != nil {
		c.Error(common.APIError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  FormatValidationErrors(err),
		})
		return false
	}

	return true
}

func FormatValidationErrors(err error) map[string]any {
	fields := map[string]any{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fields
	}
	for _, e := range verrs {
		fields[e.Field()] = "failed " + e.Tag()
	}
	return fields
}
