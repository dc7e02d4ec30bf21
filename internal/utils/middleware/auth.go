package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/port/outbound"
	"github.com/botmarket/server/internal/utils/errors"
	"github.com/botmarket/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// SubjectKey is the context key for the caller subject.
	SubjectKey = "subject"
	// ClaimsKey is the context key for the caller claims.
	ClaimsKey = "claims"
)

// Auth returns a middleware that validates caller bearer tokens.
// If the token is valid, it sets the subject and claims in the context.
// If optional is true, the middleware will not abort on missing/invalid tokens.
func Auth(validator outbound.TokenValidatorPort, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			if !optional {
				abort(c, errors.Unauthorized("Authorization header required"))
				return
			}
			c.Next()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			if !optional {
				appErr := errors.Unauthorized("Invalid or expired token")
				appErr.Code = "INVALID_TOKEN"
				abort(c, appErr)
				return
			}
			c.Next()
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(requestctx.WithCaller(c.Request.Context(), claims.Subject))

		c.Next()
	}
}

// RequireAuth returns a middleware that requires a valid caller token.
func RequireAuth(validator outbound.TokenValidatorPort) gin.HandlerFunc {
	return Auth(validator, false)
}

// OptionalAuth returns a middleware that optionally validates caller tokens.
func OptionalAuth(validator outbound.TokenValidatorPort) gin.HandlerFunc {
	return Auth(validator, true)
}

// RequireScope aborts with 403 unless the authenticated caller was granted scope.
// It must run after RequireAuth.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abort(c, errors.Unauthorized(""))
			return
		}
		if !claims.HasScope(scope) {
			abort(c, errors.Forbidden("missing scope "+scope))
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	}
	return ""
}

// GetSubject returns the caller subject, or "" if the request is anonymous.
func GetSubject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

// GetClaims returns the caller claims, or nil if the request is anonymous.
func GetClaims(c *gin.Context) *outbound.CallerClaims {
	if val, exists := c.Get(ClaimsKey); exists {
		if claims, ok := val.(*outbound.CallerClaims); ok {
			return claims
		}
	}
	return nil
}

func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, err.ToResponse())
}
