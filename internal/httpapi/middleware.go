package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tradeSite/internal/auth"
	"tradeSite/internal/logging"
	"tradeSite/models"
)

const userKey = "user"

// protect authenticates the bearer token and stores the principal in the
// request context. Every failure gets the same response.
func (s *Server) protect(c *fiber.Ctx) error {
	p, err := s.authn.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		s.log.Warn(c.UserContext(), "authentication failed", "path", c.Path(), "ip", c.IP(), "error", err)
		return fail(c, fiber.StatusUnauthorized, auth.ErrUnauthenticated.Error())
	}
	ctx := logging.WithFields(auth.WithPrincipal(c.UserContext(), p), "user_id", p.ID)
	c.SetUserContext(ctx)
	return c.Next()
}

// authorize re-reads the caller's account and admits only live roles in allowed.
func (s *Server) authorize(allowed auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		p, _ := auth.FromContext(ctx)
		u, err := s.authz.Authorize(ctx, p, allowed)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrRoleChanged):
			s.log.Warn(ctx, "stale role rejected", "path", c.Path(), "error", err)
			return fail(c, fiber.StatusUnauthorized, auth.ErrRoleChanged.Error())
		case auth.IsAuthentication(err):
			s.log.Warn(ctx, "principal rejected", "path", c.Path(), "error", err)
			return fail(c, fiber.StatusUnauthorized, auth.ErrUnauthenticated.Error())
		case auth.IsForbidden(err):
			s.log.Warn(ctx, "forbidden", "path", c.Path(), "error", err)
			return fail(c, fiber.StatusForbidden, auth.ErrForbidden.Error())
		default:
			return err
		}
		c.SetUserContext(auth.WithPrincipal(ctx, &auth.Principal{ID: u.ID, Role: u.Role}))
		c.Locals(userKey, u)
		return c.Next()
	}
}

// currentUser returns the account loaded by authorize.
func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
