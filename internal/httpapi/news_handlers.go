package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"tradeSite/models"
	"tradeSite/repository"
)

type newsRequest struct {
	Title      models.LocalizedText `json:"title"`
	Content    models.LocalizedText `json:"content"`
	Summary    models.LocalizedText `json:"summary"`
	Category   string               `json:"category"`
	CoverImage string               `json:"coverImage"`
	Author     string               `json:"author"`
	Status     models.NewsStatus    `json:"status"`
}

func (r newsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.By(requireLocalized)),
		validation.Field(&r.Content, validation.By(requireLocalized)),
		validation.Field(&r.Category, validation.Required),
		validation.Field(&r.CoverImage, validation.By(optionalUploadOrURL)),
		validation.Field(&r.Author, validation.Length(0, 100)),
		validation.Field(&r.Status, validation.In(models.NewsStatusPublished, models.NewsStatusDraft)),
	)
}

func (r newsRequest) news() *models.News {
	return &models.News{
		Title:      r.Title,
		Content:    r.Content,
		Summary:    r.Summary,
		Category:   r.Category,
		CoverImage: r.CoverImage,
		Author:     r.Author,
		Status:     r.Status,
	}
}

func (s *Server) listNews(c *fiber.Ctx) error {
	params := repository.ListNewsParams{
		Category: c.Query("category"),
		Page:     clamp(c.QueryInt("page", 1), 1, 1<<20),
		Limit:    clamp(c.QueryInt("limit", 10), 1, 50),
	}
	list, total, err := s.news.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return c.JSON(envelope{Success: true, Data: list, Pagination: newPagination(params.Page, params.Limit, total)})
}

func (s *Server) latestNews(c *fiber.Ctx) error {
	list, err := s.news.Latest(c.UserContext(), clamp(c.QueryInt("limit", 5), 1, 50))
	if err != nil {
		return err
	}
	return ok(c, list)
}

// getNews returns the article as read, then counts the view.
func (s *Server) getNews(c *fiber.Ctx) error {
	n, err := s.news.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if n == nil {
		return fail(c, fiber.StatusNotFound, "News not found")
	}
	if err := s.news.IncrementViews(c.UserContext(), n.ID); err != nil {
		return err
	}
	return ok(c, n)
}

func (s *Server) createNews(c *fiber.Ctx) error {
	var req newsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	n, err := s.news.Create(c.UserContext(), req.news())
	if err != nil {
		return err
	}
	s.log.Info(c.UserContext(), "news created", "news_id", n.ID)
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: n})
}

func (s *Server) updateNews(c *fiber.Ctx) error {
	var req newsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	n, err := s.news.Update(c.UserContext(), c.Params("id"), req.news())
	if err != nil {
		return err
	}
	if n == nil {
		return fail(c, fiber.StatusNotFound, "News not found")
	}
	return ok(c, n)
}

func (s *Server) deleteNews(c *fiber.Ctx) error {
	removed, err := s.news.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !removed {
		return fail(c, fiber.StatusNotFound, "News not found")
	}
	s.log.Info(c.UserContext(), "news deleted", "news_id", c.Params("id"))
	return c.JSON(envelope{Success: true, Message: "News deleted successfully"})
}
