package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"tradeSite/internal/accounts"
	"tradeSite/internal/auth"
	"tradeSite/internal/config"
	"tradeSite/internal/logging"
	"tradeSite/repository"
)

const bodyLimit = 1 << 20

// Server wires the public JSON API.
type Server struct {
	cfg      *config.Config
	log      logging.Logger
	authn    *auth.Authenticator
	authz    *auth.Authorizer
	accounts *accounts.Service
	products repository.ProductRepositoryI
	news     repository.NewsRepositoryI
	contacts repository.ContactRepositoryI
	settings repository.SettingsRepositoryI

	authLimiter  *ipLimiter
	writeLimiter *ipLimiter
}

// Deps are the collaborators a Server needs. All fields are required.
type Deps struct {
	Config   *config.Config
	Log      logging.Logger
	Authn    *auth.Authenticator
	Authz    *auth.Authorizer
	Accounts *accounts.Service
	Products repository.ProductRepositoryI
	News     repository.NewsRepositoryI
	Contacts repository.ContactRepositoryI
	Settings repository.SettingsRepositoryI
}

func NewServer(d Deps) *Server {
	if d.Config == nil || d.Authn == nil || d.Authz == nil {
		panic("httpapi: config, authenticator and authorizer are required")
	}
	return &Server{
		cfg:          d.Config,
		log:          d.Log.With("component", "http"),
		authn:        d.Authn,
		authz:        d.Authz,
		accounts:     d.Accounts,
		products:     d.Products,
		news:         d.News,
		contacts:     d.Contacts,
		settings:     d.Settings,
		authLimiter:  newIPLimiter(30, 15*time.Minute, "Too many authentication requests, please try again later."),
		writeLimiter: newIPLimiter(200, 15*time.Minute, "Too many requests, please try again later."),
	}
}

// App builds the fiber application with middleware and routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.cfg.HTTP.CORSOrigins, ","),
	}))
	app.Use(helmet.New())

	api := app.Group("/api")
	api.Get("/health", s.health)

	a := api.Group("/auth", s.authLimiter.handler)
	a.Post("/register", s.register)
	a.Post("/login", s.login)
	a.Get("/me", s.protect, s.authorize(auth.AnyAccount), s.me)
	a.Put("/profile", s.protect, s.authorize(auth.AnyAccount), s.updateProfile)
	a.Put("/password", s.protect, s.authorize(auth.AnyAccount), s.changePassword)

	p := api.Group("/products")
	p.Get("/", s.listProducts)
	p.Get("/featured", s.featuredProducts)
	p.Get("/:id", s.getProduct)
	p.Post("/", s.protect, s.authorize(auth.ContentEditors), s.createProduct)
	p.Put("/:id", s.protect, s.authorize(auth.ContentEditors), s.updateProduct)
	p.Delete("/:id", s.protect, s.authorize(auth.AdminsOnly), s.deleteProduct)

	n := api.Group("/news")
	n.Get("/", s.listNews)
	n.Get("/latest", s.latestNews)
	n.Get("/:id", s.getNews)
	n.Post("/", s.protect, s.authorize(auth.ContentEditors), s.createNews)
	n.Put("/:id", s.protect, s.authorize(auth.ContentEditors), s.updateNews)
	n.Delete("/:id", s.protect, s.authorize(auth.AdminsOnly), s.deleteNews)

	c := api.Group("/contacts", s.writeLimiter.handler)
	c.Post("/", s.createContact)
	c.Get("/", s.protect, s.authorize(auth.ContentEditors), s.listContacts)
	c.Put("/:id", s.protect, s.authorize(auth.ContentEditors), s.updateContact)
	c.Delete("/:id", s.protect, s.authorize(auth.AdminsOnly), s.deleteContact)

	st := api.Group("/settings")
	st.Get("/", s.getSettings)
	st.Put("/", s.protect, s.authorize(auth.AdminsOnly), s.updateSettings)

	return app
}

// Start listens on the configured port and returns a shutdown function.
func (s *Server) Start() (func(context.Context) error, error) {
	app := s.App()
	addr := s.cfg.HTTPAddress()
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(addr) }()

	// Surface immediate bind failures.
	select {
	case err := <-errc:
		return nil, err
	case <-time.After(100 * time.Millisecond):
	}

	return func(ctx context.Context) error {
		return app.ShutdownWithContext(ctx)
	}, nil
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "message": "Server is running"})
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok && fe.Code != fiber.StatusInternalServerError {
		code = fe.Code
		return c.Status(code).JSON(envelope{Success: false, Message: fe.Message})
	}
	s.log.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
	resp := envelope{Success: false, Message: "Something went wrong!"}
	if !s.cfg.IsProduction() {
		resp.Error = err.Error()
	}
	return c.Status(code).JSON(resp)
}
