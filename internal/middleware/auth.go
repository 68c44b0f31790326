// Package middleware holds fiber middleware for authentication and request
// metrics.
package middleware

import (
	"errors"
	"strings"

	"paybaba/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	LocalClaims     = "claims"
	LocalMerchantID = "merchantID"

	// RoleAdmin passes every role check.
	RoleAdmin = "admin"
)

// MerchantClaims is the token payload issued by the identity service.
type MerchantClaims struct {
	MerchantID string `json:"merchant_id"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HS256 bearer tokens. Tokens are issued elsewhere;
// this service only verifies them.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Handler checks the Authorization header and stores the caller's claims and
// merchant id in the request locals.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := m.Parse(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		logrus.WithError(err).Debug("Rejected bearer token")
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals(LocalClaims, claims)
	c.Locals(LocalMerchantID, claims.MerchantID)
	return c.Next()
}

// Parse verifies the token signature and expiry and requires a merchant id.
func (m *AuthMiddleware) Parse(tokenString string) (*MerchantClaims, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	claims := &MerchantClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.MerchantID == "" {
		return nil, errors.New("token has no merchant_id claim")
	}
	return claims, nil
}

// RequireRole rejects callers whose token role differs from role. Admins pass.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(LocalClaims).(*MerchantClaims)
		if !ok || claims == nil {
			return response.Unauthorized(c)
		}
		if claims.Role != role && claims.Role != RoleAdmin {
			return response.Error(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// MerchantID returns the authenticated merchant id, or "" outside Handler.
func MerchantID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalMerchantID).(string)
	return id
}
