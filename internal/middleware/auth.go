package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/rs/zerolog/log"
)

const identityKey = "identity"

// Claims carries the numeric user id in sub and the caller role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth requires an HS256 bearer token and stores the caller identity in the
// gin context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "authentication is not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header is required")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header must be in the format: Bearer {token}")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.Debug().Err(err).Msg("Token validation failed")
			abort(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
			return
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || id == 0 {
			abort(c, http.StatusUnauthorized, "invalid_token", "token subject must be a numeric user id")
			return
		}
		role := model.Role(claims.Role)
		if role != model.RoleStudent && role != model.RoleAdmin {
			abort(c, http.StatusUnauthorized, "invalid_token", "token role must be student or admin")
			return
		}

		c.Set(identityKey, model.Identity{ID: uint(id), Role: role})
		c.Next()
	}
}

// RequireRole rejects callers whose role differs. It must run after Auth.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if identity.Role != role {
			abort(c, http.StatusForbidden, "forbidden", fmt.Sprintf("%s role required", role))
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}

// IssueToken signs a token accepted by Auth.
func IssueToken(secret string, identity model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

func abort(c *gin.Context, status int, reason, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: reason, Message: msg})
}
