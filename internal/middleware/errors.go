package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/pkg/response"
)

const plainErrorsKey = "plain_errors"

// PlainErrors makes the auth middlewares that follow answer with
// {"error": "..."} instead of the envelope.
func PlainErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(plainErrorsKey, true)
		c.Next()
	}
}

// WantsPlainErrors reports whether PlainErrors ran for this request.
func WantsPlainErrors(c *gin.Context) bool {
	return c.GetBool(plainErrorsKey)
}

func abortWithError(c *gin.Context, err error) {
	if WantsPlainErrors(c) {
		response.PlainError(c, err)
	} else {
		response.Error(c, err)
	}
	c.Abort()
}
