package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionCookie carries the token for browser clients; API clients send
// "Authorization: Bearer <token>".
const SessionCookie = "session_token"

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

var errInvalidClaims = errors.New("invalid token claims")

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RoleLookup returns the stored role of a user. found is false when the
// account no longer exists.
type RoleLookup func(ctx context.Context, userID uint) (role string, found bool, err error)

// Auth issues and checks session tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
	lookup RoleLookup
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl}
}

// WithLookup returns a copy of a that resolves every token against the
// user store, so a deleted account is rejected and role checks see the
// current role rather than the one signed into the token.
func (a *Auth) WithLookup(lookup RoleLookup) *Auth {
	return &Auth{secret: a.secret, ttl: a.ttl, lookup: lookup}
}

func (a *Auth) TTL() time.Duration {
	return a.ttl
}

func (a *Auth) GenerateToken(userID uint, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errInvalidClaims
	}
	return claims, nil
}

func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// resolveRole maps the token's claims onto the caller's current role.
func (a *Auth) resolveRole(c *gin.Context, claims *Claims) (string, bool, error) {
	if a.lookup == nil {
		return claims.Role, true, nil
	}
	return a.lookup(c.Request.Context(), claims.UserID)
}

// RequireAuth ensures a valid session token for an existing account is
// present and stores the caller's identity in the context.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		role, found, err := a.resolveRole(c, claims)
		if err != nil {
			logrus.WithError(err).WithField("user_id", claims.UserID).Error("could not load session user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// OptionalAuth records the caller's identity when a valid token for an
// existing account is sent and otherwise lets the request through anonymously.
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := a.ValidateToken(tokenString); err == nil {
				role, found, err := a.resolveRole(c, claims)
				if err != nil {
					logrus.WithError(err).WithField("user_id", claims.UserID).Warn("could not load session user")
				}
				if found {
					c.Set(ctxUserID, claims.UserID)
					c.Set(ctxRole, role)
				}
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := CurrentRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have access to this resource"})
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func CurrentRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
