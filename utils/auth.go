package utils

import (
	"fmt"
	"net/http"
	"strings"

	"sqlconsoleapi/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated caller: the user plus its group memberships,
// the unit permission checks are evaluated against.
type Principal struct {
	UserID         uint
	Username       string
	GroupIDs       []uint
	OrganizationID *uint
}

// AuthClaims are the JWT claims issued by the console's identity service.
type AuthClaims struct {
	UserID         uint   `json:"user_id"`
	Username       string `json:"username"`
	GroupIDs       []uint `json:"group_ids"`
	OrganizationID *uint  `json:"organization_id"`
	jwt.RegisteredClaims
}

const principalKey = "principal"

// AuthMiddleware validates the Bearer token and stores the resolved Principal
// in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		claims, err := ParseToken(authHeader[len("Bearer "):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, &Principal{
			UserID:         claims.UserID,
			Username:       claims.Username,
			GroupIDs:       claims.GroupIDs,
			OrganizationID: claims.OrganizationID,
		})
		c.Next()
	}
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.Cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// CurrentPrincipal returns the Principal stored by AuthMiddleware, or nil.
func CurrentPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
