package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradeSite/models"
)

const newsColumns = `id, title_zh, title_en, content_zh, content_en, summary_zh, summary_en, category, cover_image, author, views, status, published_at, created_at, updated_at`

const defaultNewsAuthor = "Admin"

// NewsRepository persists news articles.
type NewsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db, now: time.Now}
}

// ListNewsParams filters the public article list.
type ListNewsParams struct {
	Category string
	Page     int // 1-based
	Limit    int
}

// Create inserts an article stamped as published now. Author defaults to
// Admin and status to published.
func (r *NewsRepository) Create(ctx context.Context, n *models.News) (*models.News, error) {
	if n == nil {
		return nil, errors.New("news is nil")
	}
	applyNewsDefaults(n)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	id := uuid.NewString()
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO news (id, title_zh, title_en, content_zh, content_en, summary_zh, summary_en, category, cover_image, author, status, published_at, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, n.Title.Zh, n.Title.En, n.Content.Zh, n.Content.En, nullString(n.Summary.Zh), nullString(n.Summary.En),
		n.Category, nullString(n.CoverImage), n.Author, string(n.Status), now, now, now)
	if err != nil {
		return nil, err
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("created news not found: id=%s", id)
	}
	return created, nil
}

// GetByID returns nil, nil when absent.
func (r *NewsRepository) GetByID(ctx context.Context, id string) (*models.News, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	n, err := scanNews(r.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

// IncrementViews bumps the read counter of one article.
func (r *NewsRepository) IncrementViews(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE news SET views = views + 1 WHERE id = ?`, id)
	return err
}

// Update overwrites the editable columns; views and published_at are kept.
// Returns nil, nil when absent.
func (r *NewsRepository) Update(ctx context.Context, id string, n *models.News) (*models.News, error) {
	if n == nil {
		return nil, errors.New("news is nil")
	}
	applyNewsDefaults(n)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE news SET title_zh = ?, title_en = ?, content_zh = ?, content_en = ?, summary_zh = ?, summary_en = ?, category = ?, cover_image = ?, author = ?, status = ?, updated_at = ? WHERE id = ?`,
		n.Title.Zh, n.Title.En, n.Content.Zh, n.Content.En, nullString(n.Summary.Zh), nullString(n.Summary.En),
		n.Category, nullString(n.CoverImage), n.Author, string(n.Status), r.now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Delete reports whether a row was removed.
func (r *NewsRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// List returns published articles, newest first, and the total match count.
func (r *NewsRepository) List(ctx context.Context, p ListNewsParams) ([]models.News, int, error) {
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
	args := []any{string(models.NewsStatusPublished)}
	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+newsColumns+` FROM news`+clause+` ORDER BY published_at DESC LIMIT ? OFFSET ?`,
		append(args, p.Limit, (p.Page-1)*p.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanNewsRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Latest returns up to limit published articles, newest first.
func (r *NewsRepository) Latest(ctx context.Context, limit int) ([]models.News, error) {
	if limit <= 0 {
		limit = 5
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+newsColumns+` FROM news WHERE status = ? ORDER BY published_at DESC LIMIT ?`,
		string(models.NewsStatusPublished), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNewsRows(rows)
}

func applyNewsDefaults(n *models.News) {
	if strings.TrimSpace(n.Author) == "" {
		n.Author = defaultNewsAuthor
	}
	if n.Status == "" {
		n.Status = models.NewsStatusPublished
	}
}

func scanNews(s rowScanner) (*models.News, error) {
	var n models.News
	var summaryZh, summaryEn, cover sql.NullString
	var status string
	if err := s.Scan(&n.ID, &n.Title.Zh, &n.Title.En, &n.Content.Zh, &n.Content.En, &summaryZh, &summaryEn,
		&n.Category, &cover, &n.Author, &n.Views, &status, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Summary = models.LocalizedText{Zh: summaryZh.String, En: summaryEn.String}
	n.CoverImage = cover.String
	n.Status = models.NewsStatus(status)
	return &n, nil
}

func scanNewsRows(rows *sql.Rows) ([]models.News, error) {
	out := []models.News{}
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
