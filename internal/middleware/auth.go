package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireRole
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextUserRole = "userRole"
)

const accessTokenCookie = "access_token"

// Auth validates HS256 tokens issued by the login endpoint
type Auth struct {
	secret       []byte
	secureCookie bool
}

// NewAuth builds the auth middleware. secureCookie marks cookies Secure and SameSite=None.
func NewAuth(secret string, secureCookie bool) *Auth {
	return &Auth{secret: []byte(secret), secureCookie: secureCookie}
}

// Secret exposes the signing key for the websocket handshake
func (a *Auth) Secret() []byte {
	return a.secret
}

// SetTokenCookie stores the access token as an HttpOnly cookie
func (a *Auth) SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	sameSite := http.SameSiteLaxMode
	if a.secureCookie {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, int(ttl.Seconds()), "/", "", a.secureCookie, true)
}

// tokenFromRequest tries the cookie first, then the Authorization header
func tokenFromRequest(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie(accessTokenCookie); err == nil && tokenString != "" {
		return tokenString, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// ParseToken verifies the signature and expiry and returns the claims
func (a *Auth) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// RequireRole validates the JWT token and checks the user's role is in allowedRoles.
// With no roles given any authenticated user passes.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		userID, _ := claims["sub"].(string)
		userRole, ok := claims["role"].(string)
		if userID == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		if len(allowedRoles) > 0 {
			roleAllowed := false
			for _, role := range allowedRoles {
				if userRole == role {
					roleAllowed = true
					break
				}
			}
			if !roleAllowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
				return
			}
		}

		username, _ := claims["username"].(string)
		c.Set(ContextUserID, userID)
		c.Set(ContextUsername, username)
		c.Set(ContextUserRole, userRole)

		c.Next()
	}
}

// AllowRoles restricts a route to the given roles. It must run after RequireRole.
func AllowRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ContextUserRole)
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}
