package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradeSite/models"
)

const productColumns = `id, name_zh, name_en, description_zh, description_en, category, images, specifications, price, featured, status, sort_order, created_at, updated_at`

// ProductRepository persists catalogue products.
type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db, now: time.Now}
}

// Create inserts a new product. Status defaults to 'active' if empty.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p == nil {
		return nil, errors.New("product is nil")
	}
	if p.Status == "" {
		p.Status = models.ProductStatusActive
	}
	images, specs, err := encodeProductLists(p)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	id := uuid.NewString()
	now := r.now().UTC()
	_, err = r.db.ExecContext(ctx, `INSERT INTO products (id, name_zh, name_en, description_zh, description_en, category, images, specifications, price, featured, status, sort_order, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, p.Name.Zh, p.Name.En, p.Description.Zh, p.Description.En, p.Category, images, specs, nullFloat(p.Price), p.Featured, string(p.Status), p.SortOrder, now, now)
	if err != nil {
		return nil, err
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("created product not found: id=%s", id)
	}
	return created, nil
}

// GetByID fetches a product by its ID; nil, nil when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Update overwrites every editable column. Returns nil, nil when absent.
func (r *ProductRepository) Update(ctx context.Context, id string, p *models.Product) (*models.Product, error) {
	if p == nil {
		return nil, errors.New("product is nil")
	}
	if p.Status == "" {
		p.Status = models.ProductStatusActive
	}
	images, specs, err := encodeProductLists(p)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE products SET name_zh = ?, name_en = ?, description_zh = ?, description_en = ?, category = ?, images = ?, specifications = ?, price = ?, featured = ?, status = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		p.Name.Zh, p.Name.En, p.Description.Zh, p.Description.En, p.Category, images, specs, nullFloat(p.Price), p.Featured, string(p.Status), p.SortOrder, r.now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product by ID and reports whether a row was removed.
func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func encodeProductLists(p *models.Product) (string, string, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	specs := p.Specifications
	if specs == nil {
		specs = []models.Specification{}
	}
	ib, err := json.Marshal(images)
	if err != nil {
		return "", "", fmt.Errorf("encode images: %w", err)
	}
	sb, err := json.Marshal(specs)
	if err != nil {
		return "", "", fmt.Errorf("encode specifications: %w", err)
	}
	return string(ib), string(sb), nil
}

func scanProduct(s rowScanner) (*models.Product, error) {
	var p models.Product
	var images, specs, status string
	var price sql.NullFloat64
	if err := s.Scan(&p.ID, &p.Name.Zh, &p.Name.En, &p.Description.Zh, &p.Description.En, &p.Category, &images, &specs, &price, &p.Featured, &status, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProductStatus(status)
	if price.Valid {
		v := price.Float64
		p.Price = &v
	}
	p.Images = []string{}
	if strings.TrimSpace(images) != "" {
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	p.Specifications = []models.Specification{}
	if strings.TrimSpace(specs) != "" {
		if err := json.Unmarshal([]byte(specs), &p.Specifications); err != nil {
			return nil, fmt.Errorf("decode specifications: %w", err)
		}
	}
	return &p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
