package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/response"
)

const AdminSubjectKey = "admin_subject"

// AdminAuthMiddleware requires an HS256 bearer token signed with secret.
// An empty secret disables the check.
func AdminAuthMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	key := []byte(secret)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Generic(response.APIResponseCodeUnauthorized))
			return
		}

		var claims jwt.StandardClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			logctx.FromGin(c, base).Warnw("admin_auth_rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Generic(response.APIResponseCodeUnauthorized))
			return
		}

		c.Set(AdminSubjectKey, claims.Subject)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
