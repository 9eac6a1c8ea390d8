package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/pkg/errors"
	"github.com/healthmate/api/pkg/validator"
)

var paramValidator = validator.New()

// ValidateUUIDParams rejects requests whose named path parameters are not
// UUIDs before they reach a handler.
func ValidateUUIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			if err := paramValidator.Var(name, c.Param(name), "required,uuid"); err != nil {
				handler.RespondWithError(c, errors.BadRequest(err.Error(), err))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
