package middleware

import (
	"crypto/subtle"
	"net/http"

	"leavedesk/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminBasicAuth gates the console behind a single admin credential.
// passwordHash is a bcrypt hash.
func AdminBasicAuth(username, passwordHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}

		if subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 {
			unauthorized(c)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)); err != nil {
			unauthorized(c)
			return
		}

		c.Set("admin_user", user)
		ctx := contextutil.WithActor(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="Login Required"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "Authentication is required",
	})
}
