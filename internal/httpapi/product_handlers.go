package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"tradeSite/models"
	"tradeSite/repository"
)

type productRequest struct {
	Name           models.LocalizedText   `json:"name"`
	Description    models.LocalizedText   `json:"description"`
	Category       string                 `json:"category"`
	Images         []string               `json:"images"`
	Specifications []models.Specification `json:"specifications"`
	Price          *float64               `json:"price"`
	Featured       bool                   `json:"featured"`
	Status         models.ProductStatus   `json:"status"`
	Order          int                    `json:"order"`
}

func (r productRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.By(requireLocalized)),
		validation.Field(&r.Category, validation.Required),
		validation.Field(&r.Images, validation.Each(validation.By(uploadOrURL))),
		validation.Field(&r.Status, validation.In(models.ProductStatusActive, models.ProductStatusInactive)),
	)
}

func (r productRequest) product() *models.Product {
	return &models.Product{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		Images:         r.Images,
		Specifications: r.Specifications,
		Price:          r.Price,
		Featured:       r.Featured,
		Status:         r.Status,
		SortOrder:      r.Order,
	}
}

func (s *Server) listProducts(c *fiber.Ctx) error {
	params := repository.ListProductsParams{
		Category:     c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
		Search:       c.Query("search"),
		Page:         clamp(c.QueryInt("page", 1), 1, 1<<20),
		Limit:        clamp(c.QueryInt("limit", 10), 1, 50),
	}
	list, total, err := s.products.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return c.JSON(envelope{Success: true, Data: list, Pagination: newPagination(params.Page, params.Limit, total)})
}

func (s *Server) featuredProducts(c *fiber.Ctx) error {
	list, err := s.products.ListFeatured(c.UserContext(), 8)
	if err != nil {
		return err
	}
	return ok(c, list)
}

func (s *Server) getProduct(c *fiber.Ctx) error {
	p, err := s.products.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	return ok(c, p)
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	p, err := s.products.Create(c.UserContext(), req.product())
	if err != nil {
		return err
	}
	s.log.Info(c.UserContext(), "product created", "product_id", p.ID)
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: p})
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	p, err := s.products.Update(c.UserContext(), c.Params("id"), req.product())
	if err != nil {
		return err
	}
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	return ok(c, p)
}

func (s *Server) deleteProduct(c *fiber.Ctx) error {
	removed, err := s.products.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !removed {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	s.log.Info(c.UserContext(), "product deleted", "product_id", c.Params("id"))
	return c.JSON(envelope{Success: true, Message: "Product deleted successfully"})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
