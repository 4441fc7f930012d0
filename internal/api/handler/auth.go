package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	jwt "github.com/golang-jwt/jwt/v5"
)

// GenerateModeratorJWT issues a signed token for the moderator review
// surface. The admin CLI calls this; moderators paste the token into the
// review client.
func GenerateModeratorJWT(secret, moderatorID string) (string, error) {
	claims := jwt.MapClaims{
		"moderator_id": moderatorID,
		"exp":          time.Now().Add(72 * time.Hour).Unix(),
		"iss":          "privacyreport-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateModeratorJWT checks the signature and expiry and returns the
// moderator id claim.
func validateModeratorJWT(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	moderatorID, _ := claims["moderator_id"].(string)
	if moderatorID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return moderatorID, nil
}

// ModeratorAuth guards the review endpoints with a bearer JWT. The moderator
// id lands in the context under "moderator_id".
func (h *Handler) ModeratorAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}

		moderatorID, err := validateModeratorJWT(h.Cfg.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}

		c.Set("moderator_id", moderatorID)
		c.Next()
	}
}
