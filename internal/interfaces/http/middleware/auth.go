package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/usdtpay/internal/infrastructure/auth"
	"github.com/orris-inc/usdtpay/internal/shared/constants"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

type verifyFunc func(token string) (*auth.Claims, error)

// AuthMiddleware guards admin routes with the admin JWT service and the
// ingest route with a separately keyed service.
type AuthMiddleware struct {
	adminJWT  *auth.JWTService
	ingestJWT *auth.JWTService
	logger    logger.Interface
}

// NewAuthMiddleware builds the middleware. A nil ingestJWT leaves ingest open.
func NewAuthMiddleware(adminJWT, ingestJWT *auth.JWTService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		adminJWT:  adminJWT,
		ingestJWT: ingestJWT,
		logger:    logger,
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.require(m.adminJWT.VerifyAdmin)
}

func (m *AuthMiddleware) RequireIngest() gin.HandlerFunc {
	if m.ingestJWT == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return m.require(m.ingestJWT.VerifyIngest)
}

func (m *AuthMiddleware) require(verify verifyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := verify(token)
		if err != nil {
			m.logger.Warnw("failed to verify token",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"error", err,
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeySubject, claims.Subject)
		c.Set(constants.ContextKeyRole, string(claims.Role))

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
