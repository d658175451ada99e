package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bloomcart-system/internal/utils"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// JWTAuth requires a valid bearer token and stores the customer identity on
// the context.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or missing token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserId)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// OptionalJWTAuth parses a bearer token when present but lets anonymous
// requests through. Checkout supports guests; handlers read a zero user id as
// a guest customer.
func OptionalJWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, secret); ok {
			c.Set(ContextUserID, claims.UserId)
			c.Set(ContextEmail, claims.Email)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret []byte) (*utils.Claims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}

	claims, err := utils.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}
