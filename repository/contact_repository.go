package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradeSite/models"
)

const contactColumns = `id, name, email, phone, company, subject, message, status, reply, created_at, updated_at`

// ContactRepository stores messages from the public contact form.
type ContactRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db, now: time.Now}
}

// Create inserts a new message. Status is always 'unread' on creation.
func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	if c == nil {
		return nil, errors.New("contact is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c.ID = uuid.NewString()
	c.Status = models.ContactStatusUnread
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO contacts (id, name, email, phone, company, subject, message, status, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Email, c.Phone, nullString(c.Company), c.Subject, c.Message, string(c.Status), now, now)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, c.ID)
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	c, err := scanContact(r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// UpdateStatus sets status and, when non-empty, the reply text. Returns nil, nil when absent.
func (r *ContactRepository) UpdateStatus(ctx context.Context, id string, status models.ContactStatus, reply string) (*models.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE contacts SET status = ?, reply = COALESCE(?, reply), updated_at = ? WHERE id = ?`,
		string(status), nullString(reply), r.now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *ContactRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListContactsParams contains filters and pagination for the admin inbox.
type ListContactsParams struct {
	Status *models.ContactStatus
	Page   int
	Limit  int
}

// List returns messages newest first with the total match count.
func (r *ContactRepository) List(ctx context.Context, p ListContactsParams) ([]models.Contact, int, error) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where := make([]string, 0, 1)
	args := make([]any, 0, 3)
	if p.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*p.Status))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts`+clause+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, p.Limit, (p.Page-1)*p.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanContact(s rowScanner) (*models.Contact, error) {
	var c models.Contact
	var company, reply sql.NullString
	var status string
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &company, &c.Subject, &c.Message, &status, &reply, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Company = company.String
	c.Reply = reply.String
	c.Status = models.ContactStatus(status)
	return &c, nil
}
