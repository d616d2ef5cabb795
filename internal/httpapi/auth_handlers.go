package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tradeSite/internal/accounts"
)

func (s *Server) register(c *fiber.Ctx) error {
	return fail(c, fiber.StatusForbidden, "Self-registration is disabled")
}

func (s *Server) login(c *fiber.Ctx) error {
	var req accounts.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sess, err := s.accounts.Login(c.UserContext(), req)
	if err != nil {
		return s.accountError(c, err)
	}
	return c.JSON(envelope{Success: true, Data: sess.User, Token: sess.Token})
}

func (s *Server) me(c *fiber.Ctx) error {
	return ok(c, currentUser(c))
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var req accounts.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := s.accounts.UpdateProfile(c.UserContext(), currentUser(c).ID, req)
	if err != nil {
		return s.accountError(c, err)
	}
	return ok(c, u)
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req accounts.PasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.accounts.ChangePassword(c.UserContext(), currentUser(c).ID, req); err != nil {
		return s.accountError(c, err)
	}
	return c.JSON(envelope{Success: true, Message: "Password updated successfully"})
}

func (s *Server) accountError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		return badRequest(c, err)
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, accounts.ErrInvalidCredentials.Error())
	case errors.Is(err, accounts.ErrWrongPassword), errors.Is(err, accounts.ErrUserExists):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrNotFound):
		return fail(c, fiber.StatusNotFound, accounts.ErrNotFound.Error())
	default:
		return err
	}
}
