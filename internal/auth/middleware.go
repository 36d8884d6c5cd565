package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shopdesk/ticket-service/internal/domain"
	apperrors "github.com/shopdesk/ticket-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// IdentityMiddleware attaches the caller identity carried by a bearer token.
// Requests without an Authorization header pass through anonymously.
type IdentityMiddleware struct {
	tokens *TokenManager
}

// NewIdentityMiddleware constructs middleware.
func NewIdentityMiddleware(tokens *TokenManager) *IdentityMiddleware {
	return &IdentityMiddleware{tokens: tokens}
}

// Handle parses the bearer token when present.
func (m *IdentityMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(identityKey, claims.Identity())
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}
