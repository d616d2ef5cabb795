package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tradeSite/models"
)

// ListProductsParams represents filters and offset pagination for the public catalogue.
type ListProductsParams struct {
	Category     string
	FeaturedOnly bool
	Search       string // matched against both names
	Page         int    // 1-based
	Limit        int
}

// List returns active products matching filters ordered by sort_order asc,
// created_at desc, plus the total match count for pagination.
func (r *ProductRepository) List(ctx context.Context, p ListProductsParams) ([]models.Product, int, error) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 50 {
		p.Limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where := []string{"status = ?"}
	args := []any{string(models.ProductStatusActive)}
	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}
	if p.FeaturedOnly {
		where = append(where, "featured = 1")
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		where = append(where, "(name_zh LIKE ? OR name_en LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + clause + ` ORDER BY sort_order ASC, created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, p.Limit, (p.Page-1)*p.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanProductRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListFeatured returns up to limit active featured products.
func (r *ProductRepository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 8
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE status = ? AND featured = 1 ORDER BY sort_order ASC LIMIT ?`,
		string(models.ProductStatusActive), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductRows(rows)
}

// scanProductRows is a helper to scan rows into Product objects.
func scanProductRows(rows *sql.Rows) ([]models.Product, error) {
	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
