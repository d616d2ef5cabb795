package httpapi

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"

	"tradeSite/models"
)

type settingsRequest struct {
	SiteName        models.LocalizedText `json:"siteName"`
	SiteDescription models.LocalizedText `json:"siteDescription"`
	Logo            string               `json:"logo"`
	Favicon         string               `json:"favicon"`
	Contact         models.SiteContact   `json:"contact"`
	Social          models.SocialLinks   `json:"social"`
	SEO             models.SEO           `json:"seo"`
	About           models.LocalizedText `json:"about"`
	Banners         json.RawMessage      `json:"banners"`
	HomepageContent json.RawMessage      `json:"homepageContent"`
}

func (r settingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Logo, validation.By(optionalUploadOrURL)),
		validation.Field(&r.Favicon, validation.By(optionalUploadOrURL)),
		validation.Field(&r.Contact, validation.By(func(v interface{}) error {
			c, _ := v.(models.SiteContact)
			return validation.ValidateStruct(&c, validation.Field(&c.Email, is.Email))
		})),
		validation.Field(&r.Banners, validation.By(jsonArray)),
		validation.Field(&r.HomepageContent, validation.By(jsonObject)),
	)
}

func (r settingsRequest) settings() *models.Settings {
	return &models.Settings{
		SiteName:        r.SiteName,
		SiteDescription: r.SiteDescription,
		Logo:            r.Logo,
		Favicon:         r.Favicon,
		Contact:         r.Contact,
		Social:          r.Social,
		SEO:             r.SEO,
		About:           r.About,
		Banners:         r.Banners,
		HomepageContent: r.HomepageContent,
	}
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	st, err := s.settings.Get(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, st)
}

func (s *Server) updateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}
	st, err := s.settings.Update(c.UserContext(), req.settings())
	if err != nil {
		return err
	}
	s.log.Info(c.UserContext(), "settings updated")
	return ok(c, st)
}
