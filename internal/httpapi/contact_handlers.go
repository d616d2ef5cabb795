package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"

	"tradeSite/models"
	"tradeSite/repository"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r contactRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Name is required")),
		validation.Field(&r.Email, validation.Required.Error("Valid email is required"), is.Email.Error("Valid email is required")),
		validation.Field(&r.Phone, validation.Required.Error("Phone is required")),
		validation.Field(&r.Message, validation.Required.Error("Message is required"), validation.Length(0, 5000)),
	)
}

type contactStatusRequest struct {
	Status models.ContactStatus `json:"status"`
	Reply  string               `json:"reply"`
}

func (r contactStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required,
			validation.In(models.ContactStatusUnread, models.ContactStatusRead, models.ContactStatusReplied)),
	)
}

func (s *Server) createContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	msg, err := s.contacts.Create(c.UserContext(), &models.Contact{
		Name: req.Name, Email: req.Email, Phone: req.Phone, Company: req.Company,
		Subject: req.Subject, Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: msg, Message: "Message sent successfully"})
}

func (s *Server) listContacts(c *fiber.Ctx) error {
	params := repository.ListContactsParams{
		Page:  clamp(c.QueryInt("page", 1), 1, 1<<20),
		Limit: clamp(c.QueryInt("limit", 20), 1, 100),
	}
	if st := models.ContactStatus(c.Query("status")); st != "" {
		if !models.ValidContactStatus(st) {
			return fail(c, fiber.StatusBadRequest, "Invalid status")
		}
		params.Status = &st
	}
	list, total, err := s.contacts.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return c.JSON(envelope{Success: true, Data: list, Pagination: newPagination(params.Page, params.Limit, total)})
}

func (s *Server) updateContact(c *fiber.Ctx) error {
	var req contactStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	msg, err := s.contacts.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, req.Reply)
	if err != nil {
		return err
	}
	if msg == nil {
		return fail(c, fiber.StatusNotFound, "Contact not found")
	}
	return ok(c, msg)
}

func (s *Server) deleteContact(c *fiber.Ctx) error {
	removed, err := s.contacts.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !removed {
		return fail(c, fiber.StatusNotFound, "Contact not found")
	}
	return c.JSON(envelope{Success: true, Message: "Contact deleted successfully"})
}
