package repository

import (
	"context"
	"time"

	"tradeSite/models"
)

// UserRepositoryI defines operations on principals.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id, username, avatar string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id, role string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ProductRepositoryI defines operations on Product entities.
type ProductRepositoryI interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, p ListProductsParams) ([]models.Product, int, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Product, error)
}

// NewsRepositoryI defines operations on News entities.
type NewsRepositoryI interface {
	Create(ctx context.Context, n *models.News) (*models.News, error)
	GetByID(ctx context.Context, id string) (*models.News, error)
	IncrementViews(ctx context.Context, id string) error
	Update(ctx context.Context, id string, n *models.News) (*models.News, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, p ListNewsParams) ([]models.News, int, error)
	Latest(ctx context.Context, limit int) ([]models.News, error)
}

// ContactRepositoryI defines operations on Contact entities.
type ContactRepositoryI interface {
	Create(ctx context.Context, c *models.Contact) (*models.Contact, error)
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	UpdateStatus(ctx context.Context, id string, status models.ContactStatus, reply string) (*models.Contact, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, p ListContactsParams) ([]models.Contact, int, error)
}

// SettingsRepositoryI defines operations on the settings row.
type SettingsRepositoryI interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, s *models.Settings) (*models.Settings, error)
}

var (
	_ UserRepositoryI     = (*UserRepository)(nil)
	_ ProductRepositoryI  = (*ProductRepository)(nil)
	_ NewsRepositoryI     = (*NewsRepository)(nil)
	_ ContactRepositoryI  = (*ContactRepository)(nil)
	_ SettingsRepositoryI = (*SettingsRepository)(nil)
)
